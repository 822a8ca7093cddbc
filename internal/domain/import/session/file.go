package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore persists each session as one JSON file under a base directory.
// Writes go to a temp file followed by an atomic rename so a concurrent
// reader never observes a partial session.
type FileStore struct {
	baseDir string
}

// NewFileStore creates the session directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (f *FileStore) Create(ctx context.Context, s *Session) error {
	return f.write(s)
}

func (f *FileStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &s, nil
}

func (f *FileStore) Update(ctx context.Context, s *Session) error {
	if _, err := os.Stat(f.path(s.ID)); os.IsNotExist(err) {
		return ErrNotFound
	}
	return f.write(s)
}

func (f *FileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (f *FileStore) path(id uuid.UUID) string {
	return filepath.Join(f.baseDir, id.String()+".json")
}

func (f *FileStore) write(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", s.ID, err)
	}

	tmp, err := os.CreateTemp(f.baseDir, s.ID.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create session temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session %s: %w", s.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close session temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path(s.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store session %s: %w", s.ID, err)
	}
	return nil
}
