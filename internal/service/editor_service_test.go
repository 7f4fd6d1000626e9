package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/model"
	"app/internal/storage"

	"github.com/rs/zerolog"
)

type editorFixture struct {
	svc         EditorService
	projectRepo *fakeProjectRepo
	opRepo      *fakeOperationRepo
	usageRepo   *fakeUsageRepo
	planRepo    *fakePlanRepo
	ai          *fakeAIService
	publisher   *fakePublisher
	store       *storage.LocalStore
	projectID   string
	root        string
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	ctx := context.Background()

	projectRepo := newFakeProjectRepo()
	project := &model.Project{UserID: "u1", Name: "Vacation"}
	if err := projectRepo.CreateProject(ctx, project); err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	root := "projects/u1/" + project.ID
	if err := projectRepo.UpdateStoragePath(ctx, project.ID, root); err != nil {
		t.Fatalf("seeding storage path: %v", err)
	}

	store := storage.NewLocalStore(t.TempDir())
	if err := store.CreateProjectSkeleton(ctx, root); err != nil {
		t.Fatalf("seeding skeleton: %v", err)
	}

	opRepo := &fakeOperationRepo{}
	usageRepo := &fakeUsageRepo{}
	planRepo := newFakePlanRepo(freePlan())
	quota := NewQuotaService(planRepo, usageRepo, "Free", zerolog.Nop())
	ai := &fakeAIService{action: &model.EditAction{Action: "adjust_brightness", Parameters: map[string]any{"value": 1.2}}}
	publisher := &fakePublisher{}

	svc := NewEditorService(
		projectRepo, opRepo, quota, ai, store,
		nil, // identity applier
		publisher, "edit_events",
		nil, "",
		zerolog.Nop(),
	)

	return &editorFixture{
		svc:         svc,
		projectRepo: projectRepo,
		opRepo:      opRepo,
		usageRepo:   usageRepo,
		planRepo:    planRepo,
		ai:          ai,
		publisher:   publisher,
		store:       store,
		projectID:   project.ID,
		root:        root,
	}
}

func TestApplyEditingFirstEdit(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	op, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "make it brighter", "m1")
	if err != nil {
		t.Fatalf("ApplyEditing: %v", err)
	}
	if op.OperationType != model.OperationTypeAIEdit {
		t.Fatalf("unexpected operation type %q", op.OperationType)
	}
	if op.ResultPath != "current/current.png" {
		t.Fatalf("unexpected result path %q", op.ResultPath)
	}
	if op.Prompt != "make it brighter" {
		t.Fatalf("unexpected prompt %q", op.Prompt)
	}

	// The project's first edit has nothing to snapshot.
	count, err := f.store.HistoryCount(ctx, f.root)
	if err != nil {
		t.Fatalf("HistoryCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no snapshots after first edit, got %d", count)
	}
	if _, err := f.store.LoadCurrent(ctx, f.root, "current.png"); err != nil {
		t.Fatalf("expected current image after first edit: %v", err)
	}

	// One AI call in the ledger, one event published.
	if len(f.usageRepo.entries) != 1 || f.usageRepo.entries[0].UsageType != model.UsageTypeAICall {
		t.Fatalf("unexpected usage entries: %+v", f.usageRepo.entries)
	}
	if len(f.publisher.topics) != 1 || f.publisher.topics[0] != "edit_events" {
		t.Fatalf("unexpected published topics: %v", f.publisher.topics)
	}
}

func TestApplyEditingSnapshotsPreviousCurrent(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	if _, err := f.store.SaveCurrent(ctx, f.root, "current.png", []byte("before")); err != nil {
		t.Fatalf("seeding current: %v", err)
	}

	if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "crop to square", "m1"); err != nil {
		t.Fatalf("ApplyEditing: %v", err)
	}

	snap, err := f.store.LoadHistory(ctx, f.root, 1, "png")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if string(snap) != "before" {
		t.Fatalf("snapshot 1 should hold the pre-edit image, got %q", snap)
	}
}

func TestApplyEditingSequenceFollowsOperationCount(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "one", "m1"); err != nil {
		t.Fatalf("edit one: %v", err)
	}
	if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "two", "m1"); err != nil {
		t.Fatalf("edit two: %v", err)
	}
	if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "three", "m1"); err != nil {
		t.Fatalf("edit three: %v", err)
	}

	// Edits two and three snapshot into slots 2 and 3; slot 1 stays empty
	// because the first edit had no image to preserve.
	if _, err := f.store.LoadHistory(ctx, f.root, 2, "png"); err != nil {
		t.Fatalf("expected snapshot 2: %v", err)
	}
	if _, err := f.store.LoadHistory(ctx, f.root, 3, "png"); err != nil {
		t.Fatalf("expected snapshot 3: %v", err)
	}
	if _, err := f.store.LoadHistory(ctx, f.root, 1, "png"); !errors.Is(err, storage.ErrArtifactNotFound) {
		t.Fatalf("expected no snapshot 1, got %v", err)
	}
}

func TestApplyEditingQuotaExceededHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)
	f.usageRepo.aiCalls = 10 // at the Free limit

	_, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "make it pop", "m1")
	if !errors.Is(err, ErrQuotaAICallsExceeded) {
		t.Fatalf("expected ErrQuotaAICallsExceeded, got %v", err)
	}

	if f.ai.calls != 0 {
		t.Fatal("interpreter must not be called when the quota blocks")
	}
	if len(f.opRepo.ops) != 0 {
		t.Fatal("no operation may be recorded for a blocked edit")
	}
	if len(f.publisher.topics) != 0 {
		t.Fatal("no event may be published for a blocked edit")
	}
}

func TestApplyEditingInterpreterFailure(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)
	f.ai.err = ErrProviderError

	_, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "oops", "m1")
	if !errors.Is(err, ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
	if len(f.opRepo.ops) != 0 {
		t.Fatal("no operation may be recorded when interpretation fails")
	}
	if len(f.usageRepo.entries) != 0 {
		t.Fatal("no usage may be recorded when interpretation fails")
	}
}

func TestApplyEditingUnknownProject(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.ApplyEditing(context.Background(), "u1", "nope", "brighten", "m1")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestUndoRestoresSnapshotAndIsRepeatable(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	if _, err := f.store.SaveCurrent(ctx, f.root, "current.png", []byte("v1")); err != nil {
		t.Fatalf("seeding current: %v", err)
	}
	if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "first", "m1"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, "second", "m1"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	// Two operations, so undo restores snapshot 2 (the image before the
	// second edit).
	if err := f.svc.UndoOperation(ctx, f.projectID); err != nil {
		t.Fatalf("UndoOperation: %v", err)
	}
	want, err := f.store.LoadHistory(ctx, f.root, 2, "png")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	got, err := f.store.LoadCurrent(ctx, f.root, "current.png")
	if err != nil {
		t.Fatalf("LoadCurrent: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("current should equal snapshot 2 after undo")
	}

	// The operation log is untouched, so a second undo restores the very
	// same snapshot.
	if _, err := f.store.SaveCurrent(ctx, f.root, "current.png", []byte("scribble")); err != nil {
		t.Fatalf("overwriting current: %v", err)
	}
	if err := f.svc.UndoOperation(ctx, f.projectID); err != nil {
		t.Fatalf("second UndoOperation: %v", err)
	}
	got, err = f.store.LoadCurrent(ctx, f.root, "current.png")
	if err != nil {
		t.Fatalf("LoadCurrent: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("repeated undo must restore the same snapshot")
	}
	if n := len(f.opRepo.ops); n != 2 {
		t.Fatalf("undo must not shrink the operation log, got %d entries", n)
	}
}

func TestUndoWithoutOperations(t *testing.T) {
	f := newEditorFixture(t)
	err := f.svc.UndoOperation(context.Background(), f.projectID)
	if !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUploadAssetValidation(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	if _, err := f.svc.UploadAsset(ctx, f.projectID, "clip.gif", []byte("gif"), "image/gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	huge := make([]byte, maxUploadSize+1)
	if _, err := f.svc.UploadAsset(ctx, f.projectID, "huge.png", huge, "image/png"); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	// Size is checked before the quota, so nothing was consumed.
	if len(f.usageRepo.entries) != 0 {
		t.Fatal("rejected uploads must not touch the ledger")
	}

	// Exactly at the ceiling is accepted.
	exact := make([]byte, maxUploadSize)
	if _, err := f.svc.UploadAsset(ctx, f.projectID, "exact.png", exact, "image/png"); err != nil {
		t.Fatalf("upload at the size ceiling: %v", err)
	}
}

func TestUploadAssetQuota(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)
	f.usageRepo.storageMB = 99.999 // nearly full Free plan

	data := make([]byte, 2*1024*1024)
	if _, err := f.svc.UploadAsset(ctx, f.projectID, "big.png", data, "image/png"); !errors.Is(err, ErrQuotaStorageExceeded) {
		t.Fatalf("expected ErrQuotaStorageExceeded, got %v", err)
	}

	f.usageRepo.storageMB = 0
	path, err := f.svc.UploadAsset(ctx, f.projectID, "ok.png", data, "image/png")
	if err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}
	if path == "" {
		t.Fatal("expected a resolved asset path")
	}
	if len(f.usageRepo.entries) != 1 || f.usageRepo.entries[0].UsageType != model.UsageTypeStorage {
		t.Fatalf("expected one storage ledger entry, got %+v", f.usageRepo.entries)
	}
	if got := *f.usageRepo.entries[0].UsageSizeMB; got != 2 {
		t.Fatalf("expected 2MB recorded, got %v", got)
	}
}

func TestExportImage(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	if _, err := f.svc.ExportImage(ctx, f.projectID, "bmp"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	if _, err := f.store.SaveCurrent(ctx, f.root, "current.png", []byte("img")); err != nil {
		t.Fatalf("seeding current: %v", err)
	}
	got, err := f.svc.ExportImage(ctx, f.projectID, "png")
	if err != nil {
		t.Fatalf("ExportImage: %v", err)
	}
	if string(got) != "img" {
		t.Fatalf("expected the current bytes, got %q", got)
	}
}

func TestGetOperationsTimeline(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture(t)

	for _, prompt := range []string{"one", "two", "three"} {
		if _, err := f.svc.ApplyEditing(ctx, "u1", f.projectID, prompt, "m1"); err != nil {
			t.Fatalf("edit %q: %v", prompt, err)
		}
	}

	ops, err := f.svc.GetOperations(ctx, f.projectID)
	if err != nil {
		t.Fatalf("GetOperations: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
	for i, want := range []string{"one", "two", "three"} {
		if ops[i].Prompt != want {
			t.Fatalf("timeline out of order at %d: got %q, want %q", i, ops[i].Prompt, want)
		}
	}
}
