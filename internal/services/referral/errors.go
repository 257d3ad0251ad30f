package referral

import "errors"

var (
	// ErrInvalidCode deliberately collapses unknown code, disabled
	// program and deleted merchant into one result so probing requests
	// cannot learn program state.
	ErrInvalidCode = errors.New("invalid referral code")

	ErrSelfReferral     = errors.New("cannot refer your own phone number")
	ErrExistingCustomer = errors.New("a customer with this phone number already exists for this merchant")

	ErrVoucherNotFound = errors.New("voucher not found")
	ErrVoucherUsed     = errors.New("voucher already used")
)
