package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
// Two AppErrors are the same kind when their codes match, so a sentinel
// still matches after WithMessage.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Err:     e.Err,
	}
}

// WithMessagef is WithMessage with fmt.Sprintf formatting.
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Common error constructors

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, err)
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return NewAppError("CONFLICT", message, http.StatusConflict, err)
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL_ERROR", message, http.StatusInternalServerError, err)
}

// Domain-specific errors

var (
	// Members
	ErrMissingField       = NewAppError("MISSING_FIELD", "A required field is missing", http.StatusBadRequest, nil)
	ErrInvalidIdentifier  = NewAppError("INVALID_IDENTIFIER", "The national identification number is not valid", http.StatusBadRequest, nil)
	ErrDuplicateMember    = NewAppError("DUPLICATE_MEMBER", "A member with this national identification number already exists", http.StatusConflict, nil)
	ErrMemberNotFound     = NewAppError("MEMBER_NOT_FOUND", "Member not found", http.StatusNotFound, nil)
	ErrMembershipEnded    = NewAppError("MEMBERSHIP_ENDED", "The membership has ended", http.StatusConflict, nil)
	ErrStartDateTooRecent = NewAppError("START_DATE_TOO_RECENT", "The start date cannot be later than the member's first ride", http.StatusUnprocessableEntity, nil)
	ErrHasActiveRide      = NewAppError("HAS_ACTIVE_RIDE", "The member still has a ride that has not ended", http.StatusConflict, nil)

	// Bikes
	ErrBikeNotFound               = NewAppError("BIKE_NOT_FOUND", "Bike not found", http.StatusNotFound, nil)
	ErrBikeAlreadyHasID           = NewAppError("BIKE_ALREADY_HAS_ID", "The registration number is generated and must not be supplied", http.StatusBadRequest, nil)
	ErrInvalidConditionTransition = NewAppError("INVALID_CONDITION_TRANSITION", "The bike is not in the right condition for this change", http.StatusConflict, nil)
	ErrBikeNotRentable            = NewAppError("BIKE_NOT_RENTABLE", "The bike is not in active condition", http.StatusConflict, nil)
	ErrBikeInUse                  = NewAppError("BIKE_IN_USE", "The bike is already on a ride", http.StatusConflict, nil)

	// Rides
	ErrMissingRide         = NewAppError("MISSING_RIDE", "No ride was given", http.StatusBadRequest, nil)
	ErrRideIDPreassigned   = NewAppError("RIDE_ID_PREASSIGNED", "The ride id is generated and must not be supplied", http.StatusBadRequest, nil)
	ErrMemberHasActiveRide = NewAppError("MEMBER_HAS_ACTIVE_RIDE", "The member is already on a ride", http.StatusConflict, nil)
	ErrRideNotFound        = NewAppError("RIDE_NOT_FOUND", "Ride not found", http.StatusNotFound, nil)
	ErrRideNotStarted      = NewAppError("RIDE_NOT_STARTED", "The ride has not started", http.StatusConflict, nil)
	ErrRideAlreadyClosed   = NewAppError("RIDE_ALREADY_CLOSED", "The ride is already closed", http.StatusConflict, nil)
	ErrPriceAlreadySet     = NewAppError("PRICE_ALREADY_SET", "The price of the ride is already set", http.StatusConflict, nil)

	ErrDuplicateRequest     = Conflict("Duplicate request detected", nil)
	ErrIdempotencyKeyReused = NewAppError("IDEMPOTENCY_KEY_REUSED", "The Idempotency-Key was already used for a different request", http.StatusUnprocessableEntity, nil)
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// StorageError is an opaque failure of the persistence layer.
// Services pass it through untouched.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for operation op. Nil stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
