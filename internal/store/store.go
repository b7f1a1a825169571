// package store implements durable session persistence backed by a single TOML file.
//
// The file is the only shared mutable resource in the process: every mutation
// runs as a read-modify-persist sequence under one writer lock, and the file
// is rewritten in full via a temp-file rename so a crash never leaves a
// truncated store behind.
package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
)

// appConfig is the on-disk shape of the session set.
type appConfig struct {
	Sessions []*models.Session `toml:"sessions"`
}

// Store is the durable collection of user sessions.
type Store struct {
	mu       sync.Mutex
	path     string
	sessions map[string]*models.Session
}

// Open loads the session store from path. A missing file yields an empty
// store, not an error.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		sessions: make(map[string]*models.Session),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session store: %w", err)
	}

	var config appConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse session store: %w", err)
	}

	for _, sess := range config.Sessions {
		if _, exists := s.sessions[sess.ID]; exists {
			return nil, fmt.Errorf("%w: %s", shared.ErrSessionIDCollision, sess.ID)
		}
		s.sessions[sess.ID] = sess
	}

	return s, nil
}

// Get returns a detached copy of the session with the given id.
func (s *Store) Get(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

// Create inserts a new session and persists the store.
//
// A duplicate id is fatal: the store never silently overwrites an existing
// session's token material.
func (s *Store) Create(sess *models.Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("%w: %s", shared.ErrSessionIDCollision, sess.ID)
	}

	s.sessions[sess.ID] = sess.Clone()
	return s.persist()
}

// Delete removes the session with the given id and persists the store.
//
// Removing an unknown id returns [shared.ErrSessionNotFound] without touching
// the file.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	delete(s.sessions, id)
	return s.persist()
}

// UpdateTokens overwrites a session's token material after a refresh and persists.
func (s *Store) UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	sess.AccessToken = accessToken
	sess.RefreshToken = refreshToken
	sess.ExpiresAt = expiresAt
	return s.persist()
}

// SetList replaces the cached entries for one list kind and persists.
func (s *Store) SetList(id string, kind models.ListKind, entries []models.ListEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	if sess.Lists == nil {
		sess.Lists = make(map[models.ListKind][]models.ListEntry)
	}
	copied := make([]models.ListEntry, len(entries))
	copy(copied, entries)
	sess.Lists[kind] = copied
	return s.persist()
}

// List returns detached copies of every session, ordered by id.
func (s *Store) List() []*models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess.Clone())
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions
}

// Len reports the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// persist rewrites the backing file atomically. Callers must hold s.mu.
func (s *Store) persist() error {
	config := appConfig{Sessions: make([]*models.Session, 0, len(s.sessions))}
	for _, sess := range s.sessions {
		config.Sessions = append(config.Sessions, sess)
	}
	sort.Slice(config.Sessions, func(i, j int) bool {
		return config.Sessions[i].ID < config.Sessions[j].ID
	})

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode session store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sessions-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace session store: %w", err)
	}

	return nil
}
