package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes navigation calls on one dialogue session
// across server replicas. The session manager takes it after its local mutex.
type DistributedLocker interface {
	// Lock blocks until key (a session ID) is held or ctx is done. The lock
	// expires after ttl if the holder never unlocks.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
