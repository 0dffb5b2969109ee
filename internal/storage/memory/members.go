// Package memory holds in-process repositories. They are safe for concurrent
// use and hand out copies so callers never share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gocomet/bike-sharing/internal/domain/member"
)

// MemberRepo is an in-memory member.Repository
type MemberRepo struct {
	mu   sync.RWMutex
	byID map[string]*member.Member
}

func NewMemberRepo() *MemberRepo {
	return &MemberRepo{byID: make(map[string]*member.Member)}
}

func (r *MemberRepo) Insert(ctx context.Context, m *member.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.NationalID]; ok {
		return member.ErrDuplicate
	}
	r.byID[m.NationalID] = m.Clone()
	return nil
}

func (r *MemberRepo) Update(ctx context.Context, nationalID string, changes member.Changes) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[nationalID]
	if !ok {
		return member.ErrNotFound
	}
	next := existing.Clone()
	if changes.FirstName != nil {
		next.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		next.LastName = *changes.LastName
	}
	if changes.Email != nil {
		next.Email = *changes.Email
	}
	if changes.Note != nil {
		next.Note = *changes.Note
	}
	if changes.StartDate != nil {
		next.StartDate = *changes.StartDate
	}
	if changes.EndDate != nil {
		end := *changes.EndDate
		next.EndDate = &end
	}
	r.byID[nationalID] = next
	return nil
}

func (r *MemberRepo) FindByID(ctx context.Context, nationalID string) (*member.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[nationalID]
	if !ok {
		return nil, member.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *MemberRepo) List(ctx context.Context) ([]*member.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*member.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return member.Less(out[i], out[j]) })
	return out, nil
}
