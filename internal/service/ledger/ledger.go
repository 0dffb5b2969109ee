// Package ledger keeps the record of rides. It owns the lookups the other
// services rely on and closes rides with their price.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/internal/service/pricing"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
)

// Service handles ride persistence and lookups
type Service struct {
	rides   ride.Repository
	pricing *pricing.Service
	logger  *logger.Logger
}

// NewService creates a new ride ledger
func NewService(rides ride.Repository, pricer *pricing.Service, log *logger.Logger) *Service {
	return &Service{
		rides:   rides,
		pricing: pricer,
		logger:  log,
	}
}

// Find returns the ride with the given id, or nil when there is none
func (s *Service) Find(ctx context.Context, id int64) (*ride.Ride, error) {
	r, err := s.rides.FindByID(ctx, id)
	if errors.Is(err, ride.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// List returns the rides matching filter, ordered by start time
func (s *Service) List(ctx context.Context, filter ride.Filter) ([]*ride.Ride, error) {
	return s.rides.List(ctx, filter)
}

// FindEarliestRide returns the member's first ride by start time, or nil
func (s *Service) FindEarliestRide(ctx context.Context, memberID string) (*ride.Ride, error) {
	return s.first(ctx, ride.Filter{MemberID: memberID})
}

// FindActiveRideByMember returns the member's open ride, or nil
func (s *Service) FindActiveRideByMember(ctx context.Context, memberID string) (*ride.Ride, error) {
	return s.first(ctx, ride.Filter{MemberID: memberID, OpenOnly: true})
}

// FindActiveRideByBike returns the bike's open ride, or nil
func (s *Service) FindActiveRideByBike(ctx context.Context, bikeID int64) (*ride.Ride, error) {
	return s.first(ctx, ride.Filter{BikeID: bikeID, OpenOnly: true})
}

func (s *Service) first(ctx context.Context, filter ride.Filter) (*ride.Ride, error) {
	filter.Limit = 1
	rides, err := s.rides.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(rides) == 0 {
		return nil, nil
	}
	return rides[0], nil
}

// Record stores an open ride and sets its generated id. A conflict with an
// existing open ride surfaces as MemberHasActiveRide or BikeInUse.
func (s *Service) Record(ctx context.Context, r *ride.Ride) (int64, error) {
	id, err := s.rides.Insert(ctx, r)
	switch {
	case errors.Is(err, ride.ErrMemberOnRide):
		return 0, apperrors.ErrMemberHasActiveRide.WithMessagef("member %s is already on a ride", r.MemberID)
	case errors.Is(err, ride.ErrBikeOnRide):
		return 0, apperrors.ErrBikeInUse.WithMessagef("bike %d is already on a ride", r.BikeID)
	case err != nil:
		return 0, err
	}

	r.ID = &id
	s.logger.Info("Ride recorded",
		logger.Int64("ride_id", id),
		logger.String("member_id", r.MemberID),
		logger.Int64("bike_id", r.BikeID),
	)
	return id, nil
}

// Close ends r at end, prices it, and persists end time and price in one
// update. r must be open; the caller checks that.
func (s *Service) Close(ctx context.Context, r *ride.Ride, end time.Time) (*ride.Ride, error) {
	price := s.pricing.CalculatePrice(*r.StartTime, end)

	err := s.rides.Update(ctx, *r.ID, ride.Changes{EndTime: &end, Price: &price})
	if errors.Is(err, ride.ErrNotFound) {
		return nil, apperrors.ErrRideNotFound.WithMessagef("ride %d not found", *r.ID)
	}
	if err != nil {
		return nil, err
	}

	closed := r.Clone()
	closed.EndTime = &end
	closed.Price = &price

	s.logger.Info("Ride closed",
		logger.Int64("ride_id", *r.ID),
		logger.Int64("price", price),
		logger.Duration("elapsed", end.Sub(*r.StartTime)),
	)
	return closed, nil
}
