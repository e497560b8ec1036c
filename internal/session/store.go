package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/naveenspark/careerbox/internal/logger"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// StorageKey names the persisted session in every backend.
const StorageKey = "persist:auth"

// Persister saves and restores the session between runs.
// Implementations: FilePersister, RedisPersister, MemoryPersister.
type Persister interface {
	// Load returns the stored session, or the zero Session if none is stored.
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
	Close() error
}

// Store holds the single canonical Session for the process.
type Store struct {
	mu      sync.RWMutex
	current domain.Session
	loaded  bool
	persist Persister
}

// NewStore creates a store with an empty session. Call Load before reading
// it so a persisted session is restored first.
func NewStore(p Persister) *Store {
	if p == nil {
		p = NewMemoryPersister()
	}
	return &Store{persist: p}
}

// Load rehydrates the session from the persister.
func (st *Store) Load(ctx context.Context) error {
	s, err := st.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("session.Load: %w", err)
	}
	st.mu.Lock()
	st.current = s
	st.loaded = true
	st.mu.Unlock()
	return nil
}

// Loaded reports whether Load has completed.
func (st *Store) Loaded() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loaded
}

// Session returns a copy of the current session.
func (st *Store) Session() domain.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.Clone()
}

// Dispatch applies t and persists the result. Saves happen under the lock so
// the persisted value never lags a later dispatch. The in-memory session
// keeps the new value even if persisting fails.
func (st *Store) Dispatch(ctx context.Context, t Transition) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current = t.Apply(st.current)

	logger.Debugf("session: %s", t.Name())
	if err := st.persist.Save(ctx, st.current); err != nil {
		logger.Errorf("session: persist after %s: %v", t.Name(), err)
		return fmt.Errorf("session.Dispatch %s: %w", t.Name(), err)
	}
	return nil
}

// DispatchAll applies ts in order as one change and persists once.
func (st *Store) DispatchAll(ctx context.Context, ts ...Transition) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		st.current = t.Apply(st.current)
		names = append(names, t.Name())
	}

	logger.Debugf("session: %v", names)
	if err := st.persist.Save(ctx, st.current); err != nil {
		logger.Errorf("session: persist after %v: %v", names, err)
		return fmt.Errorf("session.DispatchAll: %w", err)
	}
	return nil
}

// Close releases the persister.
func (st *Store) Close() error {
	return st.persist.Close()
}
