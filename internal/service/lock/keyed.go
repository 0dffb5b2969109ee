// Package lock provides the per-entity write locks shared by the services
// that change members, bikes and rides.
package lock

import (
	"fmt"
	"sort"
	"sync"
)

// MemberKey returns the lock key of a member
func MemberKey(nationalID string) string {
	return "member:" + nationalID
}

// BikeKey returns the lock key of a bike
func BikeKey(id int64) string {
	return fmt.Sprintf("bike:%d", id)
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed is a set of mutexes addressed by key. Entries are created on demand
// and released once nobody holds or waits for them.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewKeyed creates an empty lock set
func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Lock acquires every given key and returns the function releasing them.
// Keys are taken in sorted order so two callers locking overlapping sets
// cannot deadlock. Duplicate keys are locked once.
func (k *Keyed) Lock(keys ...string) (unlock func()) {
	sorted := uniqueSorted(keys)

	held := make([]*entry, 0, len(sorted))
	for _, key := range sorted {
		e := k.acquire(key)
		e.mu.Lock()
		held = append(held, e)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				k.release(sorted[i])
			}
		})
	}
}

func (k *Keyed) acquire(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// size reports the number of live entries
func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
