// Package rental opens and closes rides. It is the only place that checks
// rules spanning members, bikes and rides together.
package rental

import (
	"context"
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/bike"
	"github.com/gocomet/bike-sharing/internal/domain/member"
	"github.com/gocomet/bike-sharing/internal/domain/nationalid"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/internal/service/lock"
	"github.com/gocomet/bike-sharing/pkg/clock"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
)

// Members looks up members
type Members interface {
	Find(ctx context.Context, id string) (*member.Member, error)
}

// Bikes looks up bikes
type Bikes interface {
	Find(ctx context.Context, id int64) (*bike.Bike, error)
}

// Rides is the ride ledger as seen by the engine
type Rides interface {
	Find(ctx context.Context, id int64) (*ride.Ride, error)
	FindActiveRideByMember(ctx context.Context, memberID string) (*ride.Ride, error)
	FindActiveRideByBike(ctx context.Context, bikeID int64) (*ride.Ride, error)
	Record(ctx context.Context, r *ride.Ride) (int64, error)
	Close(ctx context.Context, r *ride.Ride, end time.Time) (*ride.Ride, error)
}

// Engine runs the ride lifecycle
type Engine struct {
	members   Members
	bikes     Bikes
	rides     Rides
	locks     *lock.Keyed
	clock     clock.Clock
	observers Observer
	logger    *logger.Logger
}

// NewEngine creates a new rental engine. The lock set must be the one shared
// with the membership and fleet services.
func NewEngine(members Members, bikes Bikes, rides Rides, locks *lock.Keyed, clk clock.Clock, log *logger.Logger, observers ...Observer) *Engine {
	return &Engine{
		members:   members,
		bikes:     bikes,
		rides:     rides,
		locks:     locks,
		clock:     clk,
		observers: Fanout(observers...),
		logger:    log,
	}
}

// OpenRide starts a ride for the member on the bike named in req. The start
// time is taken from the clock; any id, start time or price in req is ignored
// or rejected. Returns the stored ride with its generated id.
func (e *Engine) OpenRide(ctx context.Context, req *ride.Ride) (*ride.Ride, error) {
	if req == nil {
		return nil, apperrors.ErrMissingRide
	}
	if req.ID != nil {
		return nil, apperrors.ErrRideIDPreassigned.WithMessagef("ride id %d must not be supplied", *req.ID)
	}
	memberID, err := nationalid.Parse(req.MemberID)
	if err != nil {
		// no member can hold an invalid identifier
		return nil, apperrors.ErrMemberNotFound.WithMessagef("member %q not found", req.MemberID)
	}

	unlock := e.locks.Lock(lock.MemberKey(memberID.String()), lock.BikeKey(req.BikeID))
	defer unlock()

	m, err := e.members.Find(ctx, memberID.String())
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, e.reject(apperrors.ErrMembershipEnded.WithMessagef("membership of %s has ended", m.NationalID), req)
	}
	if open, err := e.rides.FindActiveRideByMember(ctx, m.NationalID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, e.reject(apperrors.ErrMemberHasActiveRide.WithMessagef("member %s is on ride %d", m.NationalID, *open.ID), req)
	}

	b, err := e.bikes.Find(ctx, req.BikeID)
	if err != nil {
		return nil, err
	}
	if !b.IsRentable() {
		return nil, e.reject(apperrors.ErrBikeNotRentable.WithMessagef("bike %d is in %s", b.ID, b.Condition), req)
	}
	if open, err := e.rides.FindActiveRideByBike(ctx, b.ID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, e.reject(apperrors.ErrBikeInUse.WithMessagef("bike %d is on ride %d", b.ID, *open.ID), req)
	}

	if req.EndTime != nil {
		return nil, e.reject(apperrors.ErrRideAlreadyClosed.WithMessage("a new ride cannot carry an end time"), req)
	}

	start := e.clock.Now().Truncate(ride.Resolution)
	opened := &ride.Ride{
		MemberID:  m.NationalID,
		BikeID:    b.ID,
		StartTime: &start,
	}
	if _, err := e.rides.Record(ctx, opened); err != nil {
		return nil, err
	}

	e.observers.RideOpened(ctx, opened.Clone())
	return opened, nil
}

// CloseRide ends the ride with the given id at the current instant and
// prices it. A ride is closed at most once.
func (e *Engine) CloseRide(ctx context.Context, id *int64) (*ride.Ride, error) {
	if id == nil {
		return nil, apperrors.ErrMissingRide
	}

	found, err := e.find(ctx, *id)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(lock.MemberKey(found.MemberID), lock.BikeKey(found.BikeID))
	defer unlock()

	// reread under the lock; a concurrent close may have won
	r, err := e.find(ctx, *id)
	if err != nil {
		return nil, err
	}
	switch {
	case r.StartTime == nil:
		return nil, e.reject(apperrors.ErrRideNotStarted.WithMessagef("ride %d has no start time", *id), r)
	case r.EndTime != nil:
		return nil, e.reject(apperrors.ErrRideAlreadyClosed.WithMessagef("ride %d ended at %s", *id, r.EndTime.Format(time.RFC3339)), r)
	case r.Price != nil:
		return nil, e.reject(apperrors.ErrPriceAlreadySet.WithMessagef("ride %d already has a price", *id), r)
	}

	// end time is strictly after the start, even when the clock lags
	end := e.clock.Now().Truncate(ride.Resolution)
	if !end.After(*r.StartTime) {
		end = r.StartTime.Add(ride.Resolution)
	}
	closed, err := e.rides.Close(ctx, r, end)
	if err != nil {
		return nil, err
	}

	e.observers.RideClosed(ctx, closed.Clone())
	return closed, nil
}

// GetRide returns the ride with the given id
func (e *Engine) GetRide(ctx context.Context, id int64) (*ride.Ride, error) {
	return e.find(ctx, id)
}

func (e *Engine) find(ctx context.Context, id int64) (*ride.Ride, error) {
	r, err := e.rides.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperrors.ErrRideNotFound.WithMessagef("ride %d not found", id)
	}
	return r, nil
}

func (e *Engine) reject(err *apperrors.AppError, r *ride.Ride) error {
	e.logger.Debug("Ride operation rejected",
		logger.String("code", err.Code),
		logger.String("member_id", r.MemberID),
		logger.Int64("bike_id", r.BikeID),
	)
	return err
}
