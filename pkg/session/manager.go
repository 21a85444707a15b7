package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held if its
// owner dies without releasing it.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Snapshotter is a dialogue whose session can be captured and rebuilt.
// *mortar.Engine satisfies it.
type Snapshotter interface {
	Active() bool
	Snapshot() (*domain.Snapshot, error)
	Restore(ctx context.Context, snap *domain.Snapshot) error
}

// Manager serializes access to sessions. Dialogue engines are not safe for
// concurrent use, so every navigation call for a session runs under its lock.
// Locks are reference counted and dropped when unused.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Session Manager over the given snapshot store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller locks entry.mu and calls release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// activeLocks reports how many sessions currently hold a lock entry.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Load retrieves a snapshot from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Save persists a snapshot.
func (m *Manager) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, snap)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Resume rebuilds d from the stored snapshot of sessionID. It does not lock;
// call it inside WithLock.
func (m *Manager) Resume(ctx context.Context, sessionID string, d Snapshotter) error {
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := d.Restore(ctx, snap); err != nil {
		return fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	return nil
}

// Persist writes the state of d for sessionID, or deletes the stored session
// once the dialogue has ended. It does not lock; call it inside WithLock.
func (m *Manager) Persist(ctx context.Context, sessionID string, d Snapshotter) error {
	_, err := m.Checkpoint(ctx, sessionID, d)
	return err
}

// Checkpoint is Persist reporting the UpdatedAt stamp it wrote. The stamp is
// zero when the session was deleted.
func (m *Manager) Checkpoint(ctx context.Context, sessionID string, d Snapshotter) (time.Time, error) {
	if !d.Active() {
		return time.Time{}, m.store.Delete(ctx, sessionID)
	}
	snap, err := d.Snapshot()
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return time.Time{}, m.store.Delete(ctx, sessionID)
		}
		return time.Time{}, err
	}
	snap.SessionID = sessionID
	snap.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, sessionID, snap); err != nil {
		return time.Time{}, err
	}
	return snap.UpdatedAt, nil
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
