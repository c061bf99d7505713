package boost

import (
	"errors"
	"fmt"
)

// ErrBoostNotFound is returned when a boost record is not found.
var ErrBoostNotFound = errors.New("boost not found")

// ErrConfigNotFound is returned when a boost configuration is not found.
var ErrConfigNotFound = errors.New("boost configuration not found")

// ErrConfigDisabled is returned when applying a disabled configuration.
var ErrConfigDisabled = errors.New("boost configuration is disabled")

// ErrNotEligible is returned when a user does not meet a boost's eligibility rule.
var ErrNotEligible = errors.New("user is not eligible for this boost")

// ErrAlreadyBoosted is returned when a user already holds an active boost of the claimed type.
var ErrAlreadyBoosted = errors.New("user already has an active boost of this type")

// ErrApplyInProgress is returned when another bulk apply of the same configuration holds the lock.
var ErrApplyInProgress = errors.New("boost configuration is already being applied")

// ErrForbidden is returned when the caller may not act on the boost.
var ErrForbidden = errors.New("not allowed to modify this boost")

// ErrPromotionNotFound is returned when a configuration does not exist or is
// not a claimable promotion.
var ErrPromotionNotFound = errors.New("promotion not found")

// ErrPromotionInactive is returned when claiming outside a promotion's window.
var ErrPromotionInactive = errors.New("promotion is not currently active")

// ErrPromotionClaimed is returned when the user's active boost already came
// from the promotion. It matches ErrAlreadyBoosted.
var ErrPromotionClaimed = fmt.Errorf("%w: promotion already claimed", ErrAlreadyBoosted)

// ErrPromotionFull is returned when a promotion has reached its participant cap.
var ErrPromotionFull = errors.New("promotion has no places left")

// TierError is returned when a profile is not on a tier a promotion admits.
// It matches ErrNotEligible.
type TierError struct {
	Required []string
}

func (e *TierError) Error() string {
	return "promotion requires a " + tierRequirement(e.Required)
}

func (e *TierError) Unwrap() error {
	return ErrNotEligible
}

// ErrInvalidInput is the sentinel wrapped by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
