package settings

import "sync"

// Store is a mutex-guarded view of the live Settings, shared between the
// poll loop (keyword reads) and the command handler (user edits).
type Store struct {
	mu sync.RWMutex
	s  Settings
}

// NewStore loads the config file and wraps it in a Store.
func NewStore() *Store {
	return &Store{s: Load()}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// Update applies fn to the settings under the lock and persists the
// result. The save error is returned but the in-memory update sticks
// either way, matching "last write wins" semantics.
func (st *Store) Update(fn func(*Settings)) error {
	st.mu.Lock()
	fn(&st.s)
	st.s.Normalize()
	s := st.s
	st.mu.Unlock()
	return Save(s)
}
