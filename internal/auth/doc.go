// Package auth provides JWT token issue and validation for the vendor
// HTTP endpoints. Tokens are HS256-signed, carry the username as
// subject, and are scoped to a single vendor.
package auth
