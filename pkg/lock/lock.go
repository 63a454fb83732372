// Package lock provides an advisory distributed lock over Redis. It is
// cooperative: holders are expected to release, and every lease carries an
// expiry so a crashed holder cannot wedge the system.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is held by another owner.
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Manager acquires named advisory locks.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewManager builds a lock manager. ttl bounds how long a lease survives a
// crashed holder.
func NewManager(client *redis.Client, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{client: client, ttl: ttl}
}

// Lease represents lock ownership. Release it when done.
type Lease struct {
	manager *Manager
	name    string
	token   string
}

// Acquire attempts to take the named lock. Returns ErrNotAcquired when
// another owner holds it.
func (m *Manager) Acquire(ctx context.Context, name string) (*Lease, error) {
	token := uuid.NewString()
	ok, err := m.client.SetNX(ctx, key(name), token, m.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lease{manager: m, name: name, token: token}, nil
}

// Held reports whether the named lock currently has an owner.
func (m *Manager) Held(ctx context.Context, name string) (bool, error) {
	n, err := m.client.Exists(ctx, key(name)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Release frees the lock if the lease still owns it. Releasing an expired
// or stolen lease is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.manager.client, []string{key(l.name)}, l.token).Result()
	return err
}

// Refresh extends the lease expiry. Fails silently when ownership was lost.
func (l *Lease) Refresh(ctx context.Context) error {
	return l.manager.client.Expire(ctx, key(l.name), l.manager.ttl).Err()
}

func key(name string) string {
	return "lock:" + name
}
