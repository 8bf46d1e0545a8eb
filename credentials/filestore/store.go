// Package filestore persists the credential pair to a session file so it
// survives a client restart. One file belongs to one session; it is not
// meant to be shared by concurrently running clients.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrsteele09/go-care-client/credentials"
	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
	"github.com/rs/zerolog"
)

var _ credentials.Store = (*Store)(nil)

const fileMode = 0o600

// Store is a credentials.Store backed by <folder>/<session>.json.
type Store struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

// New creates the data folder if needed and returns a store for the named
// session. The session name must be a plain file name.
func New(folder, session string, logger zerolog.Logger) (*Store, error) {
	session = strings.TrimSpace(session)
	if session == "" || session != filepath.Base(session) || strings.HasPrefix(session, ".") {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[filestore New] invalid session name %q", session)
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore New] failed to create data folder: %w", err)
	}
	path := filepath.Join(folder, session+".json")
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "filestore").Str("path", path).Logger(),
	}, nil
}

// Path returns the session file location
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get() credentials.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Set(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := s.read()
	pair.Access = access
	if refresh != "" {
		pair.Refresh = refresh
	}
	if err := s.write(pair); err != nil {
		s.logger.Err(err).Msg("Failed to persist credentials")
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Err(err).Msg("Failed to remove credentials file")
	}
}

func (s *Store) read() credentials.Pair {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Err(err).Msg("Failed to read credentials file")
		}
		return credentials.Pair{}
	}

	var pair credentials.Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		s.logger.Err(err).Msg("Ignoring malformed credentials file")
		return credentials.Pair{}
	}
	return pair
}

// write replaces the file via rename so a crash never leaves half a pair.
func (s *Store) write(pair credentials.Pair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
