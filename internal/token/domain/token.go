package domain

import "time"

// IssuedToken is the persisted revocation record for a signed access token.
// Expired and Revoked are monotonic: once true they are never reset, so a
// token's validity can only narrow over time.
type IssuedToken struct {
	ID        string
	Token     string // the opaque signed token value
	UserID    string
	Expired   bool
	Revoked   bool
	CreatedAt time.Time
}

// Live reports whether the record still authorizes requests: both flags false.
func (t *IssuedToken) Live() bool {
	return !t.Expired && !t.Revoked
}
