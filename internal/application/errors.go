package application

import "errors"

var (
	// ErrInvalidRoom is returned when a plan names an unknown or unavailable room.
	ErrInvalidRoom = errors.New("application: invalid room")
	// ErrNotAssigned is returned when an absence names a staff member who does
	// not hold the given role in the assignment.
	ErrNotAssigned = errors.New("application: staff not assigned")
	// ErrNotAbsent is returned when a replacement is requested for a slot with
	// no recorded absence.
	ErrNotAbsent = errors.New("application: no recorded absence")
	// ErrIneligibleReplacement is returned when a manually chosen substitute
	// fails the eligibility check. Callers with override authority may bypass it.
	ErrIneligibleReplacement = errors.New("application: ineligible replacement")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
