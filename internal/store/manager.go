package store

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

// State is the lifecycle of one (location, collection) key.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// Timeouts bound each rung of the initialization ladder.
type Timeouts struct {
	Initial   time.Duration
	Retry     time.Duration
	Primitive time.Duration
	Backoff   time.Duration
}

// DefaultTimeouts mirror the store's historical initialization bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Initial:   15 * time.Second,
		Retry:     10 * time.Second,
		Primitive: 10 * time.Second,
		Backoff:   500 * time.Millisecond,
	}
}

type entry struct {
	mu     sync.Mutex
	state  State
	handle Store
}

// Manager owns creation and caching of store handles. It is an explicit
// registry constructed at startup and passed by reference; there is no
// module-level singleton.
type Manager struct {
	opener   Opener
	timeouts Timeouts

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates a Manager with default timeouts.
func NewManager(opener Opener) *Manager {
	return NewManagerWithTimeouts(opener, DefaultTimeouts())
}

// NewManagerWithTimeouts creates a Manager with explicit timeouts.
func NewManagerWithTimeouts(opener Opener, timeouts Timeouts) *Manager {
	return &Manager{
		opener:   opener,
		timeouts: timeouts,
		entries:  make(map[string]*entry),
	}
}

func key(location, collection string) string {
	return location + "\x00" + collection
}

// State reports the lifecycle state for a key.
func (m *Manager) State(location, collection string) State {
	m.mu.Lock()
	e, ok := m.entries[key(location, collection)]
	m.mu.Unlock()
	if !ok {
		return StateUninitialized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Acquire returns a ready handle for the key, initializing it if needed.
// Acquisition for a given key is serialized; different keys proceed
// independently. With forceNew the cached handle is evicted first.
func (m *Manager) Acquire(ctx context.Context, location, collection string, forceNew bool) (Store, error) {
	m.mu.Lock()
	e, ok := m.entries[key(location, collection)]
	if !ok {
		e = &entry{state: StateUninitialized}
		m.entries[key(location, collection)] = e
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateReady && !forceNew {
		return e.handle, nil
	}

	if e.handle != nil {
		_ = e.handle.Close()
		e.handle = nil
	}
	e.state = StateInitializing

	handle, err := m.initialize(ctx, location, collection)
	if err != nil {
		e.state = StateFailed
		return nil, err
	}

	e.state = StateReady
	e.handle = handle
	return handle, nil
}

// initialize runs the three-rung ladder: full open, cleanup + retry, then the
// primitive low-level handle. Every rung is bounded by a context deadline so
// a hung backend call is cancelled rather than abandoned.
func (m *Manager) initialize(ctx context.Context, location, collection string) (Store, error) {
	if m.opener.Exists(location) {
		log.Printf("store: loading existing store at %s", location)
	} else {
		log.Printf("store: creating new store at %s", location)
	}

	handle, err := m.attempt(ctx, m.timeouts.Initial, func(ctx context.Context) (Store, error) {
		return m.opener.Open(ctx, location, collection)
	})
	if err == nil {
		return handle, nil
	}
	if !retriable(err) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInitialization, "store open failed", err)
	}

	log.Printf("store: open failed (%v), cleaning up and retrying", err)
	m.cleanup()

	handle, err = m.attempt(ctx, m.timeouts.Retry, func(ctx context.Context) (Store, error) {
		return m.opener.Open(ctx, location, collection)
	})
	if err == nil {
		log.Printf("store: retry succeeded for %s", location)
		return handle, nil
	}

	log.Printf("store: retry failed (%v), falling back to primitive handle", err)
	handle, err = m.attempt(ctx, m.timeouts.Primitive, func(ctx context.Context) (Store, error) {
		return m.opener.OpenPrimitive(ctx, location, collection)
	})
	if err == nil {
		log.Printf("store: primitive fallback succeeded for %s", location)
		return handle, nil
	}

	return nil, fmt.Errorf("%w: location %s: %v", domain.ErrStoreUnavailable, location, err)
}

// attempt runs open under a deadline. A result arriving after the deadline is
// closed instead of surfacing, so late initializations never leak a handle or
// mutate the cache.
func (m *Manager) attempt(parent context.Context, timeout time.Duration, open func(context.Context) (Store, error)) (Store, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	type result struct {
		handle Store
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		handle, err := open(ctx)
		ch <- result{handle, err}
	}()

	select {
	case r := <-ch:
		return r.handle, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.handle != nil {
				_ = r.handle.Close()
			}
		}()
		return nil, fmt.Errorf("store initialization timed out after %s: %w", timeout, ctx.Err())
	}
}

// cleanup drops every cached handle, forces resource reclamation and waits a
// short backoff before the retry.
func (m *Manager) cleanup() {
	m.mu.Lock()
	for _, e := range m.entries {
		// Skip entries another caller is initializing right now.
		if e.mu.TryLock() {
			if e.handle != nil {
				_ = e.handle.Close()
				e.handle = nil
			}
			if e.state == StateReady {
				e.state = StateUninitialized
			}
			e.mu.Unlock()
		}
	}
	m.mu.Unlock()

	runtime.GC()
	time.Sleep(m.timeouts.Backoff)
}

// Evict closes and removes the cached handle for a key.
func (m *Manager) Evict(location, collection string) {
	m.mu.Lock()
	e, ok := m.entries[key(location, collection)]
	if ok {
		delete(m.entries, key(location, collection))
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	if e.handle != nil {
		_ = e.handle.Close()
		e.handle = nil
	}
	e.state = StateUninitialized
	e.mu.Unlock()
}

// Close releases every cached handle. The Manager is unusable afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for k, e := range m.entries {
		e.mu.Lock()
		if e.handle != nil {
			if err := e.handle.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			e.handle = nil
		}
		e.state = StateUninitialized
		e.mu.Unlock()
		delete(m.entries, k)
	}
	return firstErr
}

// conflictSignatures are error fragments that indicate a stale or competing
// handle rather than a hard failure; they trigger the cleanup + retry rung.
var conflictSignatures = []string{
	"already exists",
	"different settings",
	"conflicting",
	"database is locked",
	"timed out",
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range conflictSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
