package engine

import "time"

// IsExpired reports whether the expiry timestamp exists and lies strictly
// before now. A coupon without an expiry never expires. Callers compare both
// instants in UTC.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return expiresAt.Before(now)
}
