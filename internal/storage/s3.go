package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"
)

// S3Store is a BlobStore over an S3-compatible bucket. The artifact layout is
// the same as LocalStore's, expressed as object keys under an optional
// prefix. Directory skeletons have no meaning in object storage, so
// CreateProjectSkeleton only provisions config.json.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed BlobStore.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) key(root string, parts ...string) string {
	elems := make([]string, 0, len(parts)+2)
	if s.prefix != "" {
		elems = append(elems, s.prefix)
	}
	elems = append(elems, strings.Trim(root, "/"))
	elems = append(elems, parts...)
	return strings.Join(elems, "/")
}

// CreateProjectSkeleton writes an initial config.json unless one exists.
func (s *S3Store) CreateProjectSkeleton(ctx context.Context, root string) error {
	key := s.key(root, "config.json")
	exists, err := s.exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	now := time.Now().UTC()
	cfg := &ProjectConfig{CreatedAt: now, UpdatedAt: now, Metadata: map[string]string{}}
	return s.putConfig(ctx, key, cfg)
}

// SaveAsset writes an immutable uploaded file into assets.
func (s *S3Store) SaveAsset(ctx context.Context, root, fileName string, data []byte) (string, error) {
	return s.putNew(ctx, s.key(root, "assets", fileName), data)
}

// SaveCurrent writes the current image, overwriting any previous object.
func (s *S3Store) SaveCurrent(ctx context.Context, root, fileName string, data []byte) (string, error) {
	key := s.key(root, "current", fileName)
	if err := s.put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// SaveHistory writes an immutable snapshot at the given sequence number.
func (s *S3Store) SaveHistory(ctx context.Context, root string, seq int, ext string, data []byte) (string, error) {
	return s.putNew(ctx, s.key(root, "history", strconv.Itoa(seq)+"."+ext), data)
}

// LoadCurrent returns the current image bytes.
func (s *S3Store) LoadCurrent(ctx context.Context, root, fileName string) ([]byte, error) {
	return s.get(ctx, s.key(root, "current", fileName))
}

// LoadHistory returns the snapshot at the given sequence number.
func (s *S3Store) LoadHistory(ctx context.Context, root string, seq int, ext string) ([]byte, error) {
	return s.get(ctx, s.key(root, "history", strconv.Itoa(seq)+"."+ext))
}

// HistoryCount counts objects under the history/ key prefix.
func (s *S3Store) HistoryCount(ctx context.Context, root string) (int, error) {
	prefix := s.key(root, "history") + "/"
	count := 0
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return 0, fmt.Errorf("%w: listing history: %v", ErrStorageUnavailable, err)
		}
		count += len(out.Contents)
		if out.IsTruncated == nil || !*out.IsTruncated {
			return count, nil
		}
		token = out.NextContinuationToken
	}
}

// GetConfig reads and parses config.json.
func (s *S3Store) GetConfig(ctx context.Context, root string) (*ProjectConfig, error) {
	raw, err := s.get(ctx, s.key(root, "config.json"))
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
func (s *S3Store) UpdateConfig(ctx context.Context, root string, cfg *ProjectConfig) error {
	return s.putConfig(ctx, s.key(root, "config.json"), cfg)
}

func (s *S3Store) putConfig(ctx context.Context, key string, cfg *ProjectConfig) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return s.put(ctx, key, raw)
}

// putNew refuses to replace an existing object. The existence check and the
// write are not atomic against other writers; the engine's per-project lock
// is what actually serializes history writes.
func (s *S3Store) putNew(ctx context.Context, key string, data []byte) (string, error) {
	exists, err := s.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrArtifactExists, key)
	}
	if err := s.put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: putting %s: %v", ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
		}
		return nil, fmt.Errorf("%w: getting %s: %v", ErrStorageUnavailable, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, key, err)
	}
	return data, nil
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	// Some S3-compatible services answer HEAD misses with a bare 404.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, fmt.Errorf("%w: heading %s: %v", ErrStorageUnavailable, key, err)
}
