// Package membership registers members and manages the lifetime of their
// membership.
package membership

import (
	"context"
	"errors"
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/member"
	"github.com/gocomet/bike-sharing/internal/domain/nationalid"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/internal/service/lock"
	"github.com/gocomet/bike-sharing/pkg/clock"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
)

// RideFinder is the part of the ride ledger membership rules depend on
type RideFinder interface {
	FindEarliestRide(ctx context.Context, memberID string) (*ride.Ride, error)
	FindActiveRideByMember(ctx context.Context, memberID string) (*ride.Ride, error)
}

// Service handles member registration and lifecycle
type Service struct {
	members member.Repository
	rides   RideFinder
	locks   *lock.Keyed
	clock   clock.Clock
	logger  *logger.Logger
}

// NewService creates a new membership service
func NewService(members member.Repository, rides RideFinder, locks *lock.Keyed, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{
		members: members,
		rides:   rides,
		locks:   locks,
		clock:   clk,
		logger:  log,
	}
}

// Register stores a new member and returns the normalized identifier.
// The start date defaults to today and the end date is always cleared.
func (s *Service) Register(ctx context.Context, m *member.Member) (string, error) {
	if m == nil {
		return "", apperrors.ErrMissingField.WithMessage("member is required")
	}
	if field := m.MissingField(); field != "" {
		return "", missing(field)
	}
	id, err := nationalid.Parse(m.NationalID)
	if err != nil {
		return "", err
	}

	registered := m.Clone()
	registered.NationalID = id.String()
	registered.EndDate = nil
	if registered.StartDate.IsZero() {
		registered.StartDate = clock.Today(s.clock.Now())
	} else {
		registered.StartDate = clock.Today(registered.StartDate)
	}

	if err := s.members.Insert(ctx, registered); err != nil {
		if errors.Is(err, member.ErrDuplicate) {
			s.logger.Debug("Duplicate member registration rejected", logger.String("member_id", id.String()))
			return "", apperrors.ErrDuplicateMember.WithMessagef("member %s already exists", id)
		}
		return "", err
	}

	s.logger.Info("Member registered",
		logger.String("member_id", id.String()),
		logger.Time("start_date", registered.StartDate),
	)
	return id.String(), nil
}

// Update changes the name, email and note of an active member.
// Dates are never touched by Update.
func (s *Service) Update(ctx context.Context, m *member.Member) error {
	if m == nil {
		return apperrors.ErrMissingField.WithMessage("member is required")
	}
	if field := m.MissingField(); field != "" {
		return missing(field)
	}
	id, err := nationalid.Parse(m.NationalID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(lock.MemberKey(id.String()))
	defer unlock()

	if _, err := s.findActive(ctx, id.String()); err != nil {
		return err
	}

	err = s.members.Update(ctx, id.String(), member.Changes{
		FirstName: &m.FirstName,
		LastName:  &m.LastName,
		Email:     &m.Email,
		Note:      &m.Note,
	})
	if err != nil {
		return s.mapNotFound(err, id.String())
	}

	s.logger.Info("Member updated", logger.String("member_id", id.String()))
	return nil
}

// ChangeStartDate moves the start of an active membership. The new date may
// not fall on a later calendar day than the member's first ride.
func (s *Service) ChangeStartDate(ctx context.Context, rawID string, date time.Time) error {
	id, err := nationalid.Parse(rawID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(lock.MemberKey(id.String()))
	defer unlock()

	if _, err := s.findActive(ctx, id.String()); err != nil {
		return err
	}

	day := clock.Today(date)
	earliest, err := s.rides.FindEarliestRide(ctx, id.String())
	if err != nil {
		return err
	}
	if earliest != nil && earliest.StartTime != nil {
		firstRideDay := clock.Today(*earliest.StartTime)
		if day.After(firstRideDay) {
			s.logger.Debug("Start date change rejected",
				logger.String("member_id", id.String()),
				logger.Time("requested", day),
				logger.Time("first_ride", firstRideDay),
			)
			return apperrors.ErrStartDateTooRecent.WithMessagef(
				"start date %s is after the first ride on %s",
				day.Format(time.DateOnly), firstRideDay.Format(time.DateOnly))
		}
	}

	if err := s.members.Update(ctx, id.String(), member.Changes{StartDate: &day}); err != nil {
		return s.mapNotFound(err, id.String())
	}

	s.logger.Info("Member start date changed",
		logger.String("member_id", id.String()),
		logger.Time("start_date", day),
	)
	return nil
}

// Withdraw ends the membership today. A member on a ride cannot withdraw.
// Withdrawal is final.
func (s *Service) Withdraw(ctx context.Context, rawID string) error {
	id, err := nationalid.Parse(rawID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(lock.MemberKey(id.String()))
	defer unlock()

	m, err := s.findActive(ctx, id.String())
	if err != nil {
		return err
	}

	active, err := s.rides.FindActiveRideByMember(ctx, id.String())
	if err != nil {
		return err
	}
	if active != nil {
		s.logger.Debug("Withdrawal rejected, member is on a ride",
			logger.String("member_id", id.String()),
			logger.Int64("ride_id", *active.ID),
		)
		return apperrors.ErrHasActiveRide.WithMessagef("member %s must return bike %d first", id, active.BikeID)
	}

	end := clock.Today(s.clock.Now())
	if end.Before(m.StartDate) {
		end = m.StartDate
	}
	if err := s.members.Update(ctx, id.String(), member.Changes{EndDate: &end}); err != nil {
		return s.mapNotFound(err, id.String())
	}

	s.logger.Info("Member withdrawn",
		logger.String("member_id", id.String()),
		logger.Time("end_date", end),
	)
	return nil
}

// Find returns the member with the given identifier
func (s *Service) Find(ctx context.Context, rawID string) (*member.Member, error) {
	id, err := nationalid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	m, err := s.members.FindByID(ctx, id.String())
	if err != nil {
		return nil, s.mapNotFound(err, id.String())
	}
	return m, nil
}

// ListAll returns every member ordered by last name, then first name
func (s *Service) ListAll(ctx context.Context) ([]*member.Member, error) {
	return s.members.List(ctx)
}

func (s *Service) findActive(ctx context.Context, id string) (*member.Member, error) {
	m, err := s.members.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	if !m.IsActive() {
		s.logger.Debug("Operation on ended membership rejected", logger.String("member_id", id))
		return nil, apperrors.ErrMembershipEnded.WithMessagef("membership of %s ended on %s", id, m.EndDate.Format(time.DateOnly))
	}
	return m, nil
}

func (s *Service) mapNotFound(err error, id string) error {
	if errors.Is(err, member.ErrNotFound) {
		return apperrors.ErrMemberNotFound.WithMessagef("member %s not found", id)
	}
	return err
}

func missing(field string) error {
	return apperrors.ErrMissingField.WithMessagef("%s is required", field)
}
