package dto

import (
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/bike"
	"github.com/gocomet/bike-sharing/internal/domain/member"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
)

// DateLayout is the wire format of calendar dates
const DateLayout = time.DateOnly

// RegisterMemberRequest represents a request to register a member.
// Required fields are checked by the membership service so that a blank
// field is reported as MISSING_FIELD.
type RegisterMemberRequest struct {
	NationalID string `json:"national_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	StartDate  string `json:"start_date,omitempty"`
	Note       string `json:"note,omitempty"`
}

// ToMember converts the request, parsing the optional start date
func (r RegisterMemberRequest) ToMember() (*member.Member, error) {
	m := &member.Member{
		NationalID: r.NationalID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Note:       r.Note,
	}
	if r.StartDate != "" {
		start, err := ParseDate(r.StartDate)
		if err != nil {
			return nil, err
		}
		m.StartDate = start
	}
	return m, nil
}

// UpdateMemberRequest represents the editable fields of a member
type UpdateMemberRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Note      string `json:"note"`
}

// ChangeStartDateRequest moves the start of a membership
type ChangeStartDateRequest struct {
	StartDate string `json:"start_date" binding:"required"`
}

// CreateBikeRequest represents a request to add a bike. ID must be absent.
type CreateBikeRequest struct {
	ID       int64  `json:"id,omitempty"`
	Location string `json:"location" binding:"required"`
	Note     string `json:"note,omitempty"`
}

// NoteRequest carries the note of a condition change or note update
type NoteRequest struct {
	Note string `json:"note"`
}

// OpenRideRequest represents a request to start a ride. ID and EndTime
// are only accepted to be rejected.
type OpenRideRequest struct {
	ID       *int64     `json:"id,omitempty"`
	MemberID string     `json:"member_id"`
	BikeID   int64      `json:"bike_id" binding:"required"`
	EndTime  *time.Time `json:"end_time,omitempty"`
}

// ToRide converts the request
func (r OpenRideRequest) ToRide() *ride.Ride {
	return &ride.Ride{
		ID:       r.ID,
		MemberID: r.MemberID,
		BikeID:   r.BikeID,
		EndTime:  r.EndTime,
	}
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.BadRequest("Dates must look like 2006-01-02", err)
	}
	return t, nil
}

// MemberResponse represents a member
type MemberResponse struct {
	NationalID string  `json:"national_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date,omitempty"`
	Note       string  `json:"note,omitempty"`
	Active     bool    `json:"active"`
}

// NewMemberResponse converts a member
func NewMemberResponse(m *member.Member) MemberResponse {
	resp := MemberResponse{
		NationalID: m.NationalID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Email:      m.Email,
		StartDate:  m.StartDate.Format(DateLayout),
		Note:       m.Note,
		Active:     m.IsActive(),
	}
	if m.EndDate != nil {
		end := m.EndDate.Format(DateLayout)
		resp.EndDate = &end
	}
	return resp
}

// BikeResponse represents a bike
type BikeResponse struct {
	ID        int64          `json:"id"`
	Condition bike.Condition `json:"condition"`
	Location  string         `json:"location"`
	Note      string         `json:"note,omitempty"`
}

// NewBikeResponse converts a bike
func NewBikeResponse(b *bike.Bike) BikeResponse {
	return BikeResponse{
		ID:        b.ID,
		Condition: b.Condition,
		Location:  b.Location,
		Note:      b.Note,
	}
}

// RideResponse represents a ride
type RideResponse struct {
	ID        int64       `json:"id"`
	MemberID  string      `json:"member_id"`
	BikeID    int64       `json:"bike_id"`
	Status    ride.Status `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Price     *int64      `json:"price,omitempty"`
}

// NewRideResponse converts a ride
func NewRideResponse(r *ride.Ride) RideResponse {
	resp := RideResponse{
		MemberID:  r.MemberID,
		BikeID:    r.BikeID,
		Status:    r.Status(),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Price:     r.Price,
	}
	if r.ID != nil {
		resp.ID = *r.ID
	}
	return resp
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
