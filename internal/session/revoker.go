// Package session records per-user revocation cutoffs. Any refresh token
// issued before a user's cutoff is no longer accepted.
package session

import (
	"context"
	"time"
)

type Revoker interface {
	// RevokeUser invalidates every refresh token issued to userID up to now.
	RevokeUser(ctx context.Context, userID string, now time.Time) error
	// RevokedAt returns the user's cutoff, ok is false when none is recorded.
	RevokedAt(ctx context.Context, userID string) (cutoff time.Time, ok bool, err error)
}

// IsRevoked reports whether a token issued at issuedAt is at or before the
// cutoff. Both sides compare at microsecond precision.
func IsRevoked(ctx context.Context, r Revoker, userID string, issuedAt time.Time) (bool, error) {
	cutoff, ok, err := r.RevokedAt(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return !issuedAt.Truncate(time.Microsecond).After(cutoff.Truncate(time.Microsecond)), nil
}
