// Package storagetest provides repository doubles that fail on demand.
package storagetest

import (
	"context"
	"errors"
	"sync"

	"github.com/gocomet/bike-sharing/internal/domain/member"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
)

// ErrUnavailable is the cause carried by every injected failure
var ErrUnavailable = errors.New("connection refused")

// Operations that can be made to fail
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpFind   = "find"
	OpList   = "list"
)

type faults struct {
	mu      sync.Mutex
	entity  string
	failing map[string]bool
}

// Fail makes the given operations return a StorageError until Heal
func (f *faults) Fail(ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing == nil {
		f.failing = make(map[string]bool)
	}
	for _, op := range ops {
		f.failing[op] = true
	}
}

// Heal lets every operation through again
func (f *faults) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = nil
}

func (f *faults) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[op] {
		return apperrors.Storage(f.entity+"."+op, ErrUnavailable)
	}
	return nil
}

// Rides wraps a ride.Repository
type Rides struct {
	ride.Repository
	faults
}

func NewRides(inner ride.Repository) *Rides {
	return &Rides{Repository: inner, faults: faults{entity: "rides"}}
}

func (r *Rides) Insert(ctx context.Context, rd *ride.Ride) (int64, error) {
	if err := r.check(OpInsert); err != nil {
		return 0, err
	}
	return r.Repository.Insert(ctx, rd)
}

func (r *Rides) Update(ctx context.Context, id int64, changes ride.Changes) error {
	if err := r.check(OpUpdate); err != nil {
		return err
	}
	return r.Repository.Update(ctx, id, changes)
}

func (r *Rides) FindByID(ctx context.Context, id int64) (*ride.Ride, error) {
	if err := r.check(OpFind); err != nil {
		return nil, err
	}
	return r.Repository.FindByID(ctx, id)
}

func (r *Rides) List(ctx context.Context, filter ride.Filter) ([]*ride.Ride, error) {
	if err := r.check(OpList); err != nil {
		return nil, err
	}
	return r.Repository.List(ctx, filter)
}

// Members wraps a member.Repository
type Members struct {
	member.Repository
	faults
}

func NewMembers(inner member.Repository) *Members {
	return &Members{Repository: inner, faults: faults{entity: "members"}}
}

func (m *Members) Insert(ctx context.Context, mb *member.Member) error {
	if err := m.check(OpInsert); err != nil {
		return err
	}
	return m.Repository.Insert(ctx, mb)
}

func (m *Members) Update(ctx context.Context, nationalID string, changes member.Changes) error {
	if err := m.check(OpUpdate); err != nil {
		return err
	}
	return m.Repository.Update(ctx, nationalID, changes)
}

func (m *Members) FindByID(ctx context.Context, nationalID string) (*member.Member, error) {
	if err := m.check(OpFind); err != nil {
		return nil, err
	}
	return m.Repository.FindByID(ctx, nationalID)
}

func (m *Members) List(ctx context.Context) ([]*member.Member, error) {
	if err := m.check(OpList); err != nil {
		return nil, err
	}
	return m.Repository.List(ctx)
}
