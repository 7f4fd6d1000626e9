package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStorageUnavailable means the backing medium could not be written.
	// Safe to retry; skeleton creation is idempotent.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrArtifactExists is returned when a write would silently replace an
	// existing immutable artifact (assets and history never overwrite).
	ErrArtifactExists = errors.New("artifact already exists")
	// ErrArtifactNotFound is returned when a requested artifact is missing.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// ProjectConfig is the per-project metadata record stored as config.json
// under the project root. Updates replace the whole file; callers
// read-modify-write, there is no partial merge at this layer.
type ProjectConfig struct {
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata"`
}

// BlobStore persists opaque binary artifacts under a per-project root using
// a fixed layout:
//
//	<root>/assets/<filename>   uploaded source material, immutable
//	<root>/current/<filename>  the single latest image, overwritten per edit
//	<root>/history/<N>.<ext>   immutable snapshot N (1-based, no padding)
//	<root>/config.json         project metadata, whole-file replace
type BlobStore interface {
	// CreateProjectSkeleton idempotently ensures the three artifact areas
	// exist under root and writes an initial config.json if absent. A
	// repeated call never resets an existing config's created_at.
	CreateProjectSkeleton(ctx context.Context, root string) error

	// SaveAsset writes an uploaded file into assets and returns the resolved
	// path. Fails with ErrArtifactExists if the name is already taken.
	SaveAsset(ctx context.Context, root, fileName string, data []byte) (string, error)

	// SaveCurrent writes the current image, overwriting in place.
	SaveCurrent(ctx context.Context, root, fileName string, data []byte) (string, error)

	// SaveHistory writes snapshot seq. Fails with ErrArtifactExists if the
	// sequence number is already occupied.
	SaveHistory(ctx context.Context, root string, seq int, ext string, data []byte) (string, error)

	// LoadCurrent returns the current image bytes or ErrArtifactNotFound.
	LoadCurrent(ctx context.Context, root, fileName string) ([]byte, error)

	// LoadHistory returns snapshot seq or ErrArtifactNotFound.
	LoadHistory(ctx context.Context, root string, seq int, ext string) ([]byte, error)

	// HistoryCount reports how many history snapshots exist under root.
	HistoryCount(ctx context.Context, root string) (int, error)

	// GetConfig reads the project metadata record.
	GetConfig(ctx context.Context, root string) (*ProjectConfig, error)

	// UpdateConfig replaces the project metadata record as a whole.
	UpdateConfig(ctx context.Context, root string, cfg *ProjectConfig) error
}
