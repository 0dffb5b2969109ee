// Package fleet manages bikes and their maintenance condition.
package fleet

import (
	"context"
	"errors"

	"github.com/gocomet/bike-sharing/internal/domain/bike"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/internal/service/lock"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
)

// RideLister is the part of the ride ledger the fleet needs
type RideLister interface {
	List(ctx context.Context, filter ride.Filter) ([]*ride.Ride, error)
}

// Service handles bike registration and condition changes
type Service struct {
	bikes  bike.Repository
	rides  RideLister
	locks  *lock.Keyed
	logger *logger.Logger
}

// NewService creates a new fleet service
func NewService(bikes bike.Repository, rides RideLister, locks *lock.Keyed, log *logger.Logger) *Service {
	return &Service{
		bikes:  bikes,
		rides:  rides,
		locks:  locks,
		logger: log,
	}
}

// Create registers a new bike in active condition and returns its
// generated registration number
func (s *Service) Create(ctx context.Context, b *bike.Bike) (int64, error) {
	if b == nil {
		return 0, apperrors.ErrMissingField.WithMessage("bike is required")
	}
	if b.ID != 0 {
		return 0, apperrors.ErrBikeAlreadyHasID.WithMessagef("registration number %d must not be supplied", b.ID)
	}

	created := b.Clone()
	created.Condition = bike.ConditionActive

	id, err := s.bikes.Insert(ctx, created)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Bike created",
		logger.Int64("bike_id", id),
		logger.String("location", created.Location),
	)
	return id, nil
}

// SendToRepair moves an active bike to repair
func (s *Service) SendToRepair(ctx context.Context, id int64, note string) error {
	return s.transition(ctx, id, bike.ConditionRepair, note)
}

// Retire takes an active or repaired bike out of circulation for good
func (s *Service) Retire(ctx context.Context, id int64, note string) error {
	return s.transition(ctx, id, bike.ConditionRetired, note)
}

// ReturnToService moves a bike from repair back to active
func (s *Service) ReturnToService(ctx context.Context, id int64, note string) error {
	return s.transition(ctx, id, bike.ConditionActive, note)
}

func (s *Service) transition(ctx context.Context, id int64, to bike.Condition, note string) error {
	unlock := s.locks.Lock(lock.BikeKey(id))
	defer unlock()

	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !bike.CanTransition(b.Condition, to) {
		s.logger.Debug("Condition change rejected",
			logger.Int64("bike_id", id),
			logger.String("from", string(b.Condition)),
			logger.String("to", string(to)),
		)
		return apperrors.ErrInvalidConditionTransition.WithMessagef("bike %d cannot go from %s to %s", id, b.Condition, to)
	}

	if err := s.bikes.Update(ctx, id, bike.Changes{Condition: &to, Note: &note}); err != nil {
		return mapNotFound(err, id)
	}

	s.logger.Info("Bike condition changed",
		logger.Int64("bike_id", id),
		logger.String("from", string(b.Condition)),
		logger.String("to", string(to)),
	)
	return nil
}

// UpdateNote replaces the note of a bike without touching its condition
func (s *Service) UpdateNote(ctx context.Context, id int64, note string) error {
	unlock := s.locks.Lock(lock.BikeKey(id))
	defer unlock()

	if err := s.bikes.Update(ctx, id, bike.Changes{Note: &note}); err != nil {
		return mapNotFound(err, id)
	}
	s.logger.Info("Bike note updated", logger.Int64("bike_id", id))
	return nil
}

// Find returns the bike with the given registration number
func (s *Service) Find(ctx context.Context, id int64) (*bike.Bike, error) {
	return s.find(ctx, id)
}

// ListAll returns every bike ordered by registration number
func (s *Service) ListAll(ctx context.Context) ([]*bike.Bike, error) {
	return s.bikes.List(ctx, bike.Filter{})
}

// ListAvailable returns the active bikes that are not on a ride
func (s *Service) ListAvailable(ctx context.Context) ([]*bike.Bike, error) {
	active, err := s.bikes.List(ctx, bike.Filter{Condition: bike.ConditionActive})
	if err != nil {
		return nil, err
	}
	open, err := s.rides.List(ctx, ride.Filter{OpenOnly: true})
	if err != nil {
		return nil, err
	}

	busy := make(map[int64]struct{}, len(open))
	for _, r := range open {
		busy[r.BikeID] = struct{}{}
	}
	out := make([]*bike.Bike, 0, len(active))
	for _, b := range active {
		if _, ok := busy[b.ID]; !ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) find(ctx context.Context, id int64) (*bike.Bike, error) {
	b, err := s.bikes.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return b, nil
}

func mapNotFound(err error, id int64) error {
	if errors.Is(err, bike.ErrNotFound) {
		return apperrors.ErrBikeNotFound.WithMessagef("bike %d not found", id)
	}
	return err
}
