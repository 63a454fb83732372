package service

import (
	"context"
	"errors"

	"github.com/campuspulse/engagement-api/pkg/lock"
)

// Lease is held for the duration of a guarded job run.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker abstracts the advisory lock manager guarding frequency rebuilds.
type Locker interface {
	// Acquire takes the named lock, returning ErrLockHeld when another
	// owner has it.
	Acquire(ctx context.Context, name string) (Lease, error)
	// Held reports whether the named lock currently has an owner.
	Held(ctx context.Context, name string) (bool, error)
}

// ErrLockHeld signals the lock is owned elsewhere.
var ErrLockHeld = errors.New("lock held by another owner")

// RedisLocker adapts lock.Manager to the Locker interface.
type RedisLocker struct {
	Manager *lock.Manager
}

func (r RedisLocker) Acquire(ctx context.Context, name string) (Lease, error) {
	lease, err := r.Manager.Acquire(ctx, name)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrLockHeld
		}
		return nil, err
	}
	return lease, nil
}

func (r RedisLocker) Held(ctx context.Context, name string) (bool, error) {
	return r.Manager.Held(ctx, name)
}
