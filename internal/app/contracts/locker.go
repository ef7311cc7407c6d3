package contracts

import (
	"context"
	"time"
)

// LockerService is a best-effort distributed lock used for worker leader
// election, not for flow mutation. Flow writes rely on optimistic
// versioning instead of locks.
type LockerService interface {
	TryLock(ctx context.Context, key string, expiration time.Duration) (acquired bool, token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
