package member

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Member is a person allowed to rent bikes, keyed by national identification number
type Member struct {
	NationalID string     `json:"national_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// Changes lists the columns an update touches; nil fields are left alone.
type Changes struct {
	FirstName *string
	LastName  *string
	Email     *string
	Note      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Repository defines the interface for member data access
type Repository interface {
	// Insert stores a new member. Returns ErrDuplicate if the key is taken.
	Insert(ctx context.Context, m *Member) error

	// Update applies changes to the member with the given key.
	// Returns ErrNotFound if there is none.
	Update(ctx context.Context, nationalID string, changes Changes) error

	// FindByID returns ErrNotFound when no member has the key.
	FindByID(ctx context.Context, nationalID string) (*Member, error)

	// List returns all members ordered by last name, then first name.
	List(ctx context.Context) ([]*Member, error)
}

var (
	ErrNotFound  = errors.New("member not found")
	ErrDuplicate = errors.New("member already exists")
)

// IsActive is true until the membership has an end date
func (m *Member) IsActive() bool {
	return m.EndDate == nil
}

// MissingField returns the name of the first blank required field, or ""
func (m *Member) MissingField() string {
	switch {
	case strings.TrimSpace(m.FirstName) == "":
		return "first name"
	case strings.TrimSpace(m.LastName) == "":
		return "last name"
	case strings.TrimSpace(m.Email) == "":
		return "email"
	case strings.TrimSpace(m.NationalID) == "":
		return "national identification number"
	}
	return ""
}

// Less orders members by last name, then first name, then key
func Less(a, b *Member) bool {
	if a.LastName != b.LastName {
		return a.LastName < b.LastName
	}
	if a.FirstName != b.FirstName {
		return a.FirstName < b.FirstName
	}
	return a.NationalID < b.NationalID
}

// Clone returns a deep copy
func (m *Member) Clone() *Member {
	out := *m
	if m.EndDate != nil {
		end := *m.EndDate
		out.EndDate = &end
	}
	return &out
}
