// Package auth manages the client's bearer credential: one persisted
// token pair, an observer list for change notification, and a
// single-flight refresh gateway.
package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"zchat/internal/logger"
	"zchat/pkg/types"
)

// Observer receives the new token pair (or nil on logout) whenever the
// stored credential changes.
type Observer func(pair *types.TokenPair)

type observerEntry struct {
	id int
	fn Observer
}

// TokenStore persists the current token pair to a single JSON file with
// a read-through memory cache. If the file is unreadable or unwritable
// the store degrades to memory-only and keeps working; persistence
// trouble is never surfaced as an error to callers.
//
// Only the refresh gateway and the logout path write to the store; all
// other components read. Writers are serialized upstream (the gateway's
// single-flight ticket), so observer delivery order matches write order.
type TokenStore struct {
	mu        sync.Mutex
	path      string
	loaded    bool
	degraded  bool
	cached    *types.TokenPair
	observers []observerEntry
	nextID    int
}

// NewTokenStore creates a store backed by the given file path. An empty
// path means memory-only from the start.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path, degraded: path == ""}
}

// Read returns the current token pair, or nil when logged out. The first
// call loads from disk; subsequent calls hit the memory cache.
func (s *TokenStore) Read() *types.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return copyPair(s.cached)
}

// Write replaces the stored pair (nil clears it, i.e. logout), persists
// it, and notifies observers with the new value. Writing the same value
// twice is harmless: observers may see a duplicate notification but its
// payload is equal.
func (s *TokenStore) Write(pair *types.TokenPair) {
	s.mu.Lock()
	s.loadLocked()
	s.cached = copyPair(pair)
	s.persistLocked()
	notify := make([]observerEntry, len(s.observers))
	copy(notify, s.observers)
	value := copyPair(s.cached)
	s.mu.Unlock()

	for _, entry := range notify {
		entry.fn(copyPair(value))
	}
}

// Clear removes the stored pair. Equivalent to Write(nil).
func (s *TokenStore) Clear() {
	s.Write(nil)
}

// Subscribe registers an observer and returns its unsubscribe function.
// Observers are called synchronously from Write, in registration order.
func (s *TokenStore) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.observers {
			if entry.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *TokenStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.degraded {
		return
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("token file unreadable, using memory-only credentials", "path", s.path, "error", err)
			s.degraded = true
		}
		return
	}
	var pair types.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		logger.Warn("token file corrupt, ignoring", "path", s.path, "error", err)
		return
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return
	}
	s.cached = &pair
}

func (s *TokenStore) persistLocked() {
	if s.degraded {
		return
	}
	if s.cached == nil {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove token file", "path", s.path, "error", err)
		}
		return
	}
	raw, err := json.Marshal(s.cached)
	if err != nil {
		logger.Warn("failed to encode token pair", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		logger.Warn("token directory unavailable, using memory-only credentials", "path", s.path, "error", err)
		s.degraded = true
		return
	}
	// Write-then-rename so readers never observe a partial file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		logger.Warn("token file unwritable, using memory-only credentials", "path", s.path, "error", err)
		s.degraded = true
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logger.Warn("token file rename failed, using memory-only credentials", "path", s.path, "error", err)
		s.degraded = true
	}
}

func copyPair(pair *types.TokenPair) *types.TokenPair {
	if pair == nil {
		return nil
	}
	clone := *pair
	return &clone
}
