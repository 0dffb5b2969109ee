package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gocomet/bike-sharing/internal/domain/bike"
)

// BikeRepo is an in-memory bike.Repository with sequential ids
type BikeRepo struct {
	mu     sync.RWMutex
	lastID int64
	byID   map[int64]*bike.Bike
}

func NewBikeRepo() *BikeRepo {
	return &BikeRepo{byID: make(map[int64]*bike.Bike)}
}

func (r *BikeRepo) Insert(ctx context.Context, b *bike.Bike) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	stored := b.Clone()
	stored.ID = r.lastID
	r.byID[stored.ID] = stored
	return stored.ID, nil
}

func (r *BikeRepo) Update(ctx context.Context, id int64, changes bike.Changes) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return bike.ErrNotFound
	}
	next := existing.Clone()
	if changes.Condition != nil {
		next.Condition = *changes.Condition
	}
	if changes.Note != nil {
		next.Note = *changes.Note
	}
	r.byID[id] = next
	return nil
}

func (r *BikeRepo) FindByID(ctx context.Context, id int64) (*bike.Bike, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byID[id]
	if !ok {
		return nil, bike.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BikeRepo) List(ctx context.Context, filter bike.Filter) ([]*bike.Bike, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*bike.Bike, 0, len(r.byID))
	for _, b := range r.byID {
		if filter.Condition != "" && b.Condition != filter.Condition {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
