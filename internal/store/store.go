// Package store persists Bastion's state documents as pretty-printed
// JSON, one document per concern, under the private data directory.
//
// The documents are caches of in-memory truth: they are read once at
// startup and rewritten wholesale on every mutation. Writes are best
// effort; a failed write is logged and swallowed so a full disk never
// breaks a config mutation.
package store

import (
	"os"
	"path/filepath"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/paths"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Store reads and writes JSON documents under one layout root.
type Store struct {
	layout paths.Layout
	log    *logging.Logger
}

// New creates a store rooted at the given layout.
func New(layout paths.Layout, log *logging.Logger) *Store {
	return &Store{layout: layout, log: log}
}

// Load reads a document into v. It returns false when the document
// does not exist or cannot be decoded; callers fall back to defaults.
func (s *Store) Load(name string, v interface{}) bool {
	data, err := os.ReadFile(s.layout.Document(name))
	if err != nil {
		return false
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		s.log.Warn("discarding unreadable state document",
			zap.String("document", name), zap.Error(err))
		return false
	}
	return true
}

// Save writes v as the named document. Failures are logged, never
// returned: in-memory state stays authoritative for the session.
func (s *Store) Save(name string, v interface{}) {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Warn("failed to encode state document",
			zap.String("document", name), zap.Error(err))
		return
	}

	path := s.layout.Document(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.log.Warn("failed to create data directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("failed to persist state document",
			zap.String("document", name), zap.Error(err))
	}
}

// Remove deletes a document. Missing documents are not an error.
func (s *Store) Remove(name string) {
	if err := os.Remove(s.layout.Document(name)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove state document",
			zap.String("document", name), zap.Error(err))
	}
}
