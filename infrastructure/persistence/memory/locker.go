package memory

import (
	"context"
	"sync"
	"time"

	"salesadmin/application/ports"
	"salesadmin/pkg/errors"
)

// Locker is a process-local ports.Locker
type Locker struct {
	mu     sync.Mutex
	leases map[string]lease
	seq    int64
	now    func() time.Time
}

type lease struct {
	owner     string
	token     int64
	expiresAt time.Time
}

// NewLocker creates an empty locker
func NewLocker() *Locker {
	return &Locker{leases: make(map[string]lease), now: time.Now}
}

// Acquire takes the named lease unless someone holds an unexpired one
func (l *Locker) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("lock", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[resource]; ok && now.Before(held.expiresAt) {
		return nil, errors.NewConflictError("lock already held").
			WithDetail("resource", resource).
			WithDetail("owner", held.owner)
	}

	l.seq++
	token := l.seq
	l.leases[resource] = lease{owner: owner, token: token, expiresAt: now.Add(ttl)}
	return &memoryLease{locker: l, resource: resource, token: token}, nil
}

type memoryLease struct {
	locker   *Locker
	resource string
	token    int64
}

// Release drops the lease if it is still ours
func (m *memoryLease) Release(ctx context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	if held, ok := m.locker.leases[m.resource]; ok && held.token == m.token {
		delete(m.locker.leases, m.resource)
	}
	return nil
}
