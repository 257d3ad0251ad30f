package loyalty

import (
	"errors"
	"fmt"
)

// Not-found and authorization failures are distinct so legitimate
// callers are never left guessing; conflicts are distinct from
// business-rule rejections because a conflict means the request was
// valid but lost a race and may be retried after re-reading state.
var (
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrCardNotFound     = errors.New("loyalty card not found")
	ErrNotAuthorized    = errors.New("requester does not own this merchant")

	ErrAlreadyCheckedIn = errors.New("customer already checked in today")
	ErrTierDisabled     = errors.New("tier 2 rewards are not enabled for this merchant")
	ErrCycleViolation   = errors.New("tier 1 reward already claimed this cycle")

	ErrRedemptionConflict = errors.New("reward already claimed")
)

// InsufficientStampsError carries the current/required counts so the UI
// can explain the rejection.
type InsufficientStampsError struct {
	Current  int
	Required int
}

func (e *InsufficientStampsError) Error() string {
	return fmt.Sprintf("insufficient stamps: %d of %d required", e.Current, e.Required)
}

// ValidationError reports a malformed field before any persisted state
// is read.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
