package invoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrArtifactNotFound indicates no stored PDF exists for the id.
var ErrArtifactNotFound = errors.New("invoice artifact not found")

// ArtifactStore persists rendered invoice PDFs keyed by invoice id.
type ArtifactStore interface {
	Put(ctx context.Context, id string, pdf []byte) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// FSStore keeps one {id}.pdf per invoice under Dir.
type FSStore struct {
	Dir string
}

// Put writes the PDF via a temp file and rename so a concurrent read never
// sees a partial artifact.
func (s *FSStore) Put(_ context.Context, id string, pdf []byte) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("invalid invoice id %q", id)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(s.Dir, id+".pdf")
	tmp, err := os.CreateTemp(s.Dir, id+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return path, nil
}

// Get reads a stored PDF.
func (s *FSStore) Get(_ context.Context, id string) ([]byte, error) {
	if !ValidID(id) {
		return nil, ErrArtifactNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, id+".pdf"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// MemoryStore is the in-memory ArtifactStore used by tests.
type MemoryStore struct {
	mu        sync.Mutex
	artifacts map[string][]byte

	FailWrites bool
}

func (s *MemoryStore) Put(_ context.Context, id string, pdf []byte) (string, error) {
	if s.FailWrites {
		return "", errors.New("memory artifact store: writes disabled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifacts == nil {
		s.artifacts = map[string][]byte{}
	}
	s.artifacts[id] = append([]byte(nil), pdf...)
	return id + ".pdf", nil
}

func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.artifacts[id]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return append([]byte(nil), data...), nil
}
