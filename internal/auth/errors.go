package auth

import "errors"

var (
	// ErrTokenInvalid is returned when a token fails signature, expiry,
	// or claim validation.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrVendorMismatch is returned when a valid token is presented to
	// an endpoint for a different vendor.
	ErrVendorMismatch = errors.New("auth: token vendor mismatch")
)
