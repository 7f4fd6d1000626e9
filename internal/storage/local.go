package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LocalStore is a BlobStore over the local filesystem. Project roots are
// resolved relative to a configured storage root directory.
type LocalStore struct {
	storageRoot string
}

// NewLocalStore creates a filesystem-backed BlobStore rooted at storageRoot.
func NewLocalStore(storageRoot string) *LocalStore {
	return &LocalStore{storageRoot: storageRoot}
}

func (s *LocalStore) projectDir(root string) string {
	return filepath.Join(s.storageRoot, filepath.FromSlash(root))
}

// CreateProjectSkeleton ensures assets/, current/ and history/ exist and
// writes an initial config.json if one is not already present.
func (s *LocalStore) CreateProjectSkeleton(ctx context.Context, root string) error {
	dir := s.projectDir(root)
	for _, sub := range []string{"assets", "current", "history"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrStorageUnavailable, sub, err)
		}
	}

	configPath := filepath.Join(dir, "config.json")
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat config: %v", ErrStorageUnavailable, err)
	}

	now := time.Now().UTC()
	cfg := &ProjectConfig{CreatedAt: now, UpdatedAt: now, Metadata: map[string]string{}}
	if err := s.writeConfig(configPath, cfg); err != nil {
		return err
	}
	return nil
}

// SaveAsset writes an immutable uploaded file into assets.
func (s *LocalStore) SaveAsset(ctx context.Context, root, fileName string, data []byte) (string, error) {
	return s.writeNew(filepath.Join(s.projectDir(root), "assets", fileName), data)
}

// SaveCurrent writes the current image, overwriting any previous content.
func (s *LocalStore) SaveCurrent(ctx context.Context, root, fileName string, data []byte) (string, error) {
	path := filepath.Join(s.projectDir(root), "current", fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing current: %v", ErrStorageUnavailable, err)
	}
	return path, nil
}

// SaveHistory writes an immutable snapshot at the given sequence number.
func (s *LocalStore) SaveHistory(ctx context.Context, root string, seq int, ext string, data []byte) (string, error) {
	name := strconv.Itoa(seq) + "." + ext
	return s.writeNew(filepath.Join(s.projectDir(root), "history", name), data)
}

// LoadCurrent returns the current image bytes.
func (s *LocalStore) LoadCurrent(ctx context.Context, root, fileName string) ([]byte, error) {
	return s.read(filepath.Join(s.projectDir(root), "current", fileName))
}

// LoadHistory returns the snapshot at the given sequence number.
func (s *LocalStore) LoadHistory(ctx context.Context, root string, seq int, ext string) ([]byte, error) {
	name := strconv.Itoa(seq) + "." + ext
	return s.read(filepath.Join(s.projectDir(root), "history", name))
}

// HistoryCount counts the snapshot files under history/.
func (s *LocalStore) HistoryCount(ctx context.Context, root string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.projectDir(root), "history"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: reading history: %v", ErrStorageUnavailable, err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}
	return count, nil
}

// GetConfig reads and parses config.json.
func (s *LocalStore) GetConfig(ctx context.Context, root string) (*ProjectConfig, error) {
	raw, err := s.read(filepath.Join(s.projectDir(root), "config.json"))
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config.json: %w", err)
	}
	return &cfg, nil
}

// UpdateConfig replaces config.json as a whole.
func (s *LocalStore) UpdateConfig(ctx context.Context, root string, cfg *ProjectConfig) error {
	return s.writeConfig(filepath.Join(s.projectDir(root), "config.json"), cfg)
}

func (s *LocalStore) writeConfig(path string, cfg *ProjectConfig) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: writing config: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// writeNew creates the file, failing if it already exists.
func (s *LocalStore) writeNew(path string, data []byte) (string, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrArtifactExists, filepath.Base(path))
		}
		return "", fmt.Errorf("%w: writing %s: %v", ErrStorageUnavailable, filepath.Base(path), err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrStorageUnavailable, filepath.Base(path), err)
	}
	return path, nil
}

func (s *LocalStore) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, filepath.Base(path), err)
	}
	return data, nil
}
