package domain

import "time"

// Passcode is a short-lived single-use numeric code proving control of a phone
// number. ConfirmedAt is set exactly once: by successful verification
// (activation) or by invalidation when a newer code supersedes it.
type Passcode struct {
	ID          string
	Code        string
	UserID      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ConfirmedAt *time.Time // nil while the code is still usable
}

// Expired reports whether the code is past its expiry at the given instant.
func (p *Passcode) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// Confirmed reports whether ConfirmedAt has been set (used or superseded).
func (p *Passcode) Confirmed() bool {
	return p.ConfirmedAt != nil
}
