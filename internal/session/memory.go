package session

import (
	"context"
	"time"

	"github.com/zudaR107/todo-app/internal/cache"
)

// MemoryRevoker keeps cutoffs in process. Entries live as long as the longest
// refresh token they could affect.
type MemoryRevoker struct {
	cutoffs *cache.Cache[time.Time]
	ttl     time.Duration
}

func NewMemoryRevoker(refreshTTL time.Duration) *MemoryRevoker {
	return &MemoryRevoker{
		cutoffs: cache.New[time.Time](refreshTTL),
		ttl:     refreshTTL,
	}
}

func (r *MemoryRevoker) RevokeUser(_ context.Context, userID string, now time.Time) error {
	r.cutoffs.SetWithTTL(userID, now.UTC(), r.ttl)
	return nil
}

func (r *MemoryRevoker) RevokedAt(_ context.Context, userID string) (time.Time, bool, error) {
	t, ok := r.cutoffs.Get(userID)
	return t, ok, nil
}
