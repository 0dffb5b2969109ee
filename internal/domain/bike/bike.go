package bike

import (
	"context"
	"errors"
)

// Condition is the maintenance state of a bike
type Condition string

const (
	ConditionActive  Condition = "active"
	ConditionRepair  Condition = "repair"
	ConditionRetired Condition = "retired"
)

// Bike represents a rentable bike
type Bike struct {
	ID        int64     `json:"id"`
	Condition Condition `json:"condition"`
	Location  string    `json:"location"`
	Note      string    `json:"note,omitempty"`
}

// Changes lists the columns an update touches; nil fields are left alone.
type Changes struct {
	Condition *Condition
	Note      *string
}

// Filter narrows List. The zero value matches every bike.
type Filter struct {
	Condition Condition
}

// Repository defines the interface for bike data access
type Repository interface {
	// Insert stores a new bike and returns its generated registration number
	Insert(ctx context.Context, b *Bike) (int64, error)

	// Update returns ErrNotFound if there is no bike with the id
	Update(ctx context.Context, id int64, changes Changes) error

	// FindByID returns ErrNotFound if there is no bike with the id
	FindByID(ctx context.Context, id int64) (*Bike, error)

	// List returns matching bikes ordered by registration number
	List(ctx context.Context, filter Filter) ([]*Bike, error)
}

var ErrNotFound = errors.New("bike not found")

// IsValid validates the condition
func (c Condition) IsValid() bool {
	switch c {
	case ConditionActive, ConditionRepair, ConditionRetired:
		return true
	}
	return false
}

// transitions maps a target condition to the conditions it may be reached from.
// Nothing leaves retired.
var transitions = map[Condition][]Condition{
	ConditionRepair:  {ConditionActive},
	ConditionRetired: {ConditionActive, ConditionRepair},
	ConditionActive:  {ConditionRepair},
}

// CanTransition reports whether a bike in from may move to to
func CanTransition(from, to Condition) bool {
	for _, src := range transitions[to] {
		if src == from {
			return true
		}
	}
	return false
}

// IsRentable returns true if the bike may start a ride
func (b *Bike) IsRentable() bool {
	return b.Condition == ConditionActive
}

// Clone returns a copy
func (b *Bike) Clone() *Bike {
	out := *b
	return &out
}
