package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gocomet/bike-sharing/internal/domain/ride"
)

// RideRepo is an in-memory ride.Repository. Like the postgres schema it
// refuses a second open ride for the same member or bike.
type RideRepo struct {
	mu     sync.RWMutex
	lastID int64
	byID   map[int64]*ride.Ride
}

func NewRideRepo() *RideRepo {
	return &RideRepo{byID: make(map[int64]*ride.Ride)}
}

func (r *RideRepo) Insert(ctx context.Context, rd *ride.Ride) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if rd.IsOpen() {
		if r.hasOpen(ride.Filter{MemberID: rd.MemberID, OpenOnly: true}) {
			return 0, ride.ErrMemberOnRide
		}
		if r.hasOpen(ride.Filter{BikeID: rd.BikeID, OpenOnly: true}) {
			return 0, ride.ErrBikeOnRide
		}
	}

	r.lastID++
	id := r.lastID
	stored := rd.Clone()
	stored.ID = &id
	r.byID[id] = stored
	return id, nil
}

func (r *RideRepo) hasOpen(filter ride.Filter) bool {
	for _, existing := range r.byID {
		if filter.Matches(existing) {
			return true
		}
	}
	return false
}

func (r *RideRepo) Update(ctx context.Context, id int64, changes ride.Changes) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return ride.ErrNotFound
	}
	next := existing.Clone()
	if changes.EndTime != nil {
		end := *changes.EndTime
		next.EndTime = &end
	}
	if changes.Price != nil {
		price := *changes.Price
		next.Price = &price
	}
	r.byID[id] = next
	return nil
}

func (r *RideRepo) FindByID(ctx context.Context, id int64) (*ride.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.byID[id]
	if !ok {
		return nil, ride.ErrNotFound
	}
	return rd.Clone(), nil
}

func (r *RideRepo) List(ctx context.Context, filter ride.Filter) ([]*ride.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ride.Ride, 0)
	for _, rd := range r.byID {
		if filter.Matches(rd) {
			out = append(out, rd.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return ride.Less(out[i], out[j]) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
