package ride

import (
	"context"
	"errors"
	"time"
)

// Resolution is the precision ride timestamps are kept at, matching
// postgres timestamptz. A closed ride lasts at least this long.
const Resolution = time.Microsecond

// Status is derived from the timestamps, never stored
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Ride is one rental of one bike by one member
type Ride struct {
	ID        *int64     `json:"id,omitempty"`
	MemberID  string     `json:"member_id"`
	BikeID    int64      `json:"bike_id"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	// Price is in whole currency units and set together with EndTime
	Price *int64 `json:"price,omitempty"`
}

// Changes lists the columns an update touches; nil fields are left alone.
type Changes struct {
	EndTime *time.Time
	Price   *int64
}

// Filter narrows List. The zero value matches every ride.
type Filter struct {
	MemberID string
	BikeID   int64
	// OpenOnly keeps rides with a start time and no end time
	OpenOnly bool
	// Limit caps the result; 0 means no cap
	Limit int
}

// Repository interface
type Repository interface {
	// Insert stores a new ride and returns its generated id. Returns
	// ErrMemberOnRide or ErrBikeOnRide when the ride is open and would be a
	// second open ride for its member or bike.
	Insert(ctx context.Context, r *Ride) (int64, error)

	// Update returns ErrNotFound if there is no ride with the id
	Update(ctx context.Context, id int64, changes Changes) error

	// FindByID returns ErrNotFound if there is no ride with the id
	FindByID(ctx context.Context, id int64) (*Ride, error)

	// List returns matching rides ordered by start time, then id
	List(ctx context.Context, filter Filter) ([]*Ride, error)
}

// Errors
var (
	ErrNotFound     = errors.New("ride not found")
	ErrMemberOnRide = errors.New("member already has an open ride")
	ErrBikeOnRide   = errors.New("bike already has an open ride")
)

// IsOpen is the single definition of an active ride: started and not ended
func (r *Ride) IsOpen() bool {
	return r.StartTime != nil && r.EndTime == nil
}

// Status returns open or closed
func (r *Ride) Status() Status {
	if r.EndTime != nil {
		return StatusClosed
	}
	return StatusOpen
}

// Matches reports whether the ride passes filter, ignoring Limit
func (f Filter) Matches(r *Ride) bool {
	if f.MemberID != "" && r.MemberID != f.MemberID {
		return false
	}
	if f.BikeID != 0 && r.BikeID != f.BikeID {
		return false
	}
	if f.OpenOnly && !r.IsOpen() {
		return false
	}
	return true
}

// Less orders rides by start time, then id. Rides without a start time sort last.
func Less(a, b *Ride) bool {
	switch {
	case a.StartTime == nil && b.StartTime != nil:
		return false
	case a.StartTime != nil && b.StartTime == nil:
		return true
	case a.StartTime != nil && b.StartTime != nil && !a.StartTime.Equal(*b.StartTime):
		return a.StartTime.Before(*b.StartTime)
	}
	return idOf(a) < idOf(b)
}

func idOf(r *Ride) int64 {
	if r.ID == nil {
		return 0
	}
	return *r.ID
}

// Clone returns a deep copy
func (r *Ride) Clone() *Ride {
	out := *r
	if r.ID != nil {
		id := *r.ID
		out.ID = &id
	}
	if r.StartTime != nil {
		st := *r.StartTime
		out.StartTime = &st
	}
	if r.EndTime != nil {
		et := *r.EndTime
		out.EndTime = &et
	}
	if r.Price != nil {
		p := *r.Price
		out.Price = &p
	}
	return &out
}
