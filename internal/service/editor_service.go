package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/rs/zerolog"
)

var (
	// ErrNothingToUndo means the project has no operations yet.
	ErrNothingToUndo = errors.New("no operations to undo")
	// ErrUnsupportedFormat means the file or export format is outside the
	// JPEG/PNG/WebP allow-list.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrFileTooLarge means the upload exceeds the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrQuotaStorageExceeded means the write would push the user past the
	// plan's storage limit.
	ErrQuotaStorageExceeded = errors.New("storage quota exceeded")
	// ErrQuotaAICallsExceeded means the user is out of AI calls this month.
	ErrQuotaAICallsExceeded = errors.New("ai call quota exceeded")
	// ErrConcurrentEdit means another edit raced this one on the same
	// project; re-read state before retrying.
	ErrConcurrentEdit = errors.New("concurrent edit conflict")
)

const (
	// maxUploadSize is the upload ceiling: 10 MiB, strict greater-than rejects.
	maxUploadSize = 10 * 1024 * 1024

	currentFileName = "current.png"
	historyExt      = "png"
	resultPath      = "current/current.png"
)

var supportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var supportedExportFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// EditApplier turns the current image and an interpreted edit action into
// the new image bytes. It must be a pure function; pixel-level work lives
// behind this hook, outside the session core. current is nil on a project's
// first edit.
type EditApplier func(current []byte, action *model.EditAction) ([]byte, error)

// IdentityApplier returns the current bytes unchanged, or a blank canvas
// when the project has no image yet. It stands in until a real image
// pipeline is plugged in.
func IdentityApplier(current []byte, action *model.EditAction) ([]byte, error) {
	if current != nil {
		return current, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return nil, fmt.Errorf("encoding blank canvas: %w", err)
	}
	return buf.Bytes(), nil
}

// EditorService orchestrates one edit request end to end: quota check,
// instruction interpretation, history snapshot, edit application, operation
// record, usage record. It also implements the one-level undo.
type EditorService interface {
	// ApplyEditing runs a full edit request for the given instruction.
	ApplyEditing(ctx context.Context, userID, projectID, instruction, aiModelID string) (*model.Operation, error)
	// UndoOperation restores current to the snapshot taken before the
	// latest operation. It never removes the operation row, so repeated
	// calls without a new edit restore the same snapshot.
	UndoOperation(ctx context.Context, projectID string) error
	// UploadAsset validates and stores user-supplied source material.
	UploadAsset(ctx context.Context, projectID, fileName string, data []byte, mimeType string) (string, error)
	// ExportImage returns the current image bytes for the requested format.
	// Transcoding is delegated outside the core; the bytes are returned as
	// stored.
	ExportImage(ctx context.Context, projectID, format string) ([]byte, error)
	// GetOperations returns the project's full timeline, oldest first.
	GetOperations(ctx context.Context, projectID string) ([]model.Operation, error)
}

type editorService struct {
	projectRepo repository.ProjectRepository
	opRepo      repository.OperationRepository
	quota       QuotaService
	ai          AIService
	blobs       storage.BlobStore
	applier     EditApplier
	publisher   pubsub.Publisher // optional
	editTopic   string
	queue       *pgmq.Client // optional
	queueName   string
	locks       projectLocks
	logger      zerolog.Logger
}

// NewEditorService creates a new EditorService. publisher and queue may be
// nil; edit events and reconcile jobs are then skipped.
func NewEditorService(
	projectRepo repository.ProjectRepository,
	opRepo repository.OperationRepository,
	quota QuotaService,
	ai AIService,
	blobs storage.BlobStore,
	applier EditApplier,
	publisher pubsub.Publisher,
	editTopic string,
	queue *pgmq.Client,
	queueName string,
	logger zerolog.Logger,
) EditorService {
	if applier == nil {
		applier = IdentityApplier
	}
	return &editorService{
		projectRepo: projectRepo,
		opRepo:      opRepo,
		quota:       quota,
		ai:          ai,
		blobs:       blobs,
		applier:     applier,
		publisher:   publisher,
		editTopic:   editTopic,
		queue:       queue,
		queueName:   queueName,
		locks:       projectLocks{locks: map[string]*sync.Mutex{}},
		logger:      logger.With().Str("service", "EditorService").Logger(),
	}
}

// ApplyEditing executes one edit request. Steps before the project lock have
// no side effects; the snapshot-apply-record sequence runs under a
// per-project lock so concurrent edits against the same project serialize
// instead of colliding on sequence numbers.
func (s *editorService) ApplyEditing(ctx context.Context, userID, projectID, instruction, aiModelID string) (*model.Operation, error) {
	// 1. AI-call quota gate; nothing has happened yet on rejection.
	exceeded, err := s.quota.WouldExceedAICalls(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exceeded {
		return nil, ErrQuotaAICallsExceeded
	}

	// 2. Interpret the instruction. Interpreter failures propagate verbatim
	// and are terminal for this request.
	action, err := s.ai.Interpret(ctx, userID, instruction, aiModelID)
	if err != nil {
		return nil, err
	}

	// 3. Resolve the project.
	project, err := s.projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	op, err := s.applyLocked(ctx, userID, project, instruction, aiModelID, action)
	if err != nil {
		return nil, err
	}

	// 8. Record the AI call. The edit is already durable; a ledger failure
	// here is logged but does not undo it.
	if err := s.quota.RecordUsage(ctx, userID, model.UsageTypeAICall, 1, &aiModelID, nil); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record ai_call usage after edit")
	}

	s.notifyEdit(ctx, op)
	return op, nil
}

// applyLocked runs the snapshot-apply-record sequence under the project lock.
func (s *editorService) applyLocked(ctx context.Context, userID string, project *model.Project, instruction, aiModelID string, action *model.EditAction) (*model.Operation, error) {
	lock := s.locks.get(project.ID)
	lock.Lock()
	defer lock.Unlock()

	// 4. Sequence numbers derive from the operation count; the lock is what
	// makes that safe.
	count, err := s.opRepo.CountOperationsByProjectID(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("counting operations: %w", err)
	}
	seq := count + 1

	// 5. Snapshot the current image into history. A missing current is the
	// expected first-edit case, not an error.
	current, err := s.blobs.LoadCurrent(ctx, project.StoragePath, currentFileName)
	if err != nil && !errors.Is(err, storage.ErrArtifactNotFound) {
		return nil, err
	}
	if current != nil {
		if _, err := s.blobs.SaveHistory(ctx, project.StoragePath, seq, historyExt, current); err != nil {
			if errors.Is(err, storage.ErrArtifactExists) {
				return nil, fmt.Errorf("%w: history snapshot %d taken", ErrConcurrentEdit, seq)
			}
			return nil, err
		}
	}

	// 6. Apply the edit and overwrite current. A failure from here on leaves
	// the snapshot without an operation row; that orphan is harmless dead
	// storage the reconcile worker reports.
	edited, err := s.applier(current, action)
	if err != nil {
		return nil, fmt.Errorf("applying edit action %q: %w", action.Action, err)
	}
	if _, err := s.blobs.SaveCurrent(ctx, project.StoragePath, currentFileName, edited); err != nil {
		return nil, err
	}

	// 7. Record the operation.
	op := &model.Operation{
		UserID:        userID,
		ProjectID:     project.ID,
		OperationType: model.OperationTypeAIEdit,
		Prompt:        instruction,
		ResultPath:    resultPath,
		AIModelID:     aiModelID,
	}
	if err := s.opRepo.CreateOperation(ctx, op); err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID).Int("seq", seq).Msg("Operation insert failed after artifact write")
		return nil, fmt.Errorf("recording operation: %w", err)
	}
	return op, nil
}

// notifyEdit publishes the edit event and enqueues a reconcile job.
// Both are best-effort: the edit itself is already complete.
func (s *editorService) notifyEdit(ctx context.Context, op *model.Operation) {
	payload, err := json.Marshal(struct {
		OperationID string `json:"operation_id"`
		ProjectID   string `json:"project_id"`
		UserID      string `json:"user_id"`
		AIModelID   string `json:"ai_model_id"`
	}{op.ID, op.ProjectID, op.UserID, op.AIModelID})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal edit event")
		return
	}
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, s.editTopic, payload); err != nil {
			s.logger.Error().Err(err).Str("topic", s.editTopic).Msg("Failed to publish edit event")
		}
	}
	if s.queue != nil {
		job, _ := json.Marshal(struct {
			ProjectID string `json:"project_id"`
		}{op.ProjectID})
		if err := s.queue.Send(ctx, s.queueName, job); err != nil {
			s.logger.Error().Err(err).Str("queue", s.queueName).Msg("Failed to enqueue reconcile job")
		}
	}
}

// UndoOperation restores current from the newest history snapshot. The
// operation log is never popped: this is a deliberate one-level undo.
func (s *editorService) UndoOperation(ctx context.Context, projectID string) error {
	latest, err := s.opRepo.GetLatestOperation(ctx, projectID)
	if err != nil {
		return fmt.Errorf("fetching latest operation: %w", err)
	}
	if latest == nil {
		return ErrNothingToUndo
	}

	project, err := s.projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		return ErrProjectNotFound
	}

	lock := s.locks.get(projectID)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.opRepo.CountOperationsByProjectID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("counting operations: %w", err)
	}
	if count == 0 {
		return ErrNothingToUndo
	}

	previous, err := s.blobs.LoadHistory(ctx, project.StoragePath, count, historyExt)
	if err != nil {
		return err
	}
	if _, err := s.blobs.SaveCurrent(ctx, project.StoragePath, currentFileName, previous); err != nil {
		return err
	}
	s.logger.Info().Str("project_id", projectID).Int("snapshot", count).Msg("Undo restored snapshot")
	return nil
}

// UploadAsset validates format and size, gates on the storage quota, writes
// the asset and records the consumption.
func (s *editorService) UploadAsset(ctx context.Context, projectID, fileName string, data []byte, mimeType string) (string, error) {
	if !supportedMIMETypes[mimeType] {
		return "", fmt.Errorf("%w: %s (supported: JPEG, PNG, WebP)", ErrUnsupportedFormat, mimeType)
	}
	if len(data) > maxUploadSize {
		return "", fmt.Errorf("%w: %.2fMB exceeds the 10MB limit", ErrFileTooLarge, float64(len(data))/1024/1024)
	}

	project, err := s.projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		return "", ErrProjectNotFound
	}

	sizeMB := float64(len(data)) / 1024 / 1024
	exceeded, err := s.quota.WouldExceedStorage(ctx, project.UserID, sizeMB)
	if err != nil {
		return "", err
	}
	if exceeded {
		return "", ErrQuotaStorageExceeded
	}

	path, err := s.blobs.SaveAsset(ctx, project.StoragePath, fileName, data)
	if err != nil {
		return "", err
	}

	if err := s.quota.RecordUsage(ctx, project.UserID, model.UsageTypeStorage, 1, nil, &sizeMB); err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Failed to record storage usage after upload")
	}
	return path, nil
}

// ExportImage returns the current image for the requested format.
func (s *editorService) ExportImage(ctx context.Context, projectID, format string) ([]byte, error) {
	if !supportedExportFormats[format] {
		return nil, fmt.Errorf("%w: %s (supported: jpeg, png, webp)", ErrUnsupportedFormat, format)
	}

	project, err := s.projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	return s.blobs.LoadCurrent(ctx, project.StoragePath, currentFileName)
}

// GetOperations returns the canonical timeline: creation order, gap-free,
// position N mapping to history snapshot N.
func (s *editorService) GetOperations(ctx context.Context, projectID string) ([]model.Operation, error) {
	return s.opRepo.GetOperationsByProjectID(ctx, projectID)
}

// projectLocks hands out one mutex per project id. Locks are never removed;
// the per-entry cost is a mutex and the id string.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *projectLocks) get(projectID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[projectID] = lock
	}
	return lock
}
