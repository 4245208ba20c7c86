package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
)

// FileArtifactStore persists model artifacts as JSON files under a directory.
type FileArtifactStore struct {
	dir string
}

func NewFileArtifactStore(dir string) *FileArtifactStore {
	return &FileArtifactStore{dir: dir}
}

func (s *FileArtifactStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileArtifactStore) Save(ctx context.Context, name string, art *models.ModelArtifact) error {
	if art == nil {
		return fmt.Errorf("artifact is nil")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	b, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	// atomic replace so a crashed save never leaves a torn file
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

func (s *FileArtifactStore) Load(ctx context.Context, name string) (*models.ModelArtifact, error) {
	b, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var art models.ModelArtifact
	if err := json.Unmarshal(b, &art); err != nil {
		return nil, models.NewModelError(models.ErrSerializationIntegrity, "decode artifact: %v", err)
	}
	return &art, nil
}

var _ domrepo.ArtifactStore = (*FileArtifactStore)(nil)
