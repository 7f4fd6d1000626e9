package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

type fakeProjectService struct {
	projects map[string]*model.Project
}

func (f *fakeProjectService) CreateProject(ctx context.Context, userID, name string, description *string) (*model.Project, error) {
	p := &model.Project{
		ID: "p1", UserID: userID, Name: name, Description: description,
		StoragePath: "projects/" + userID + "/p1",
		CreatedAt:   time.Now(), UpdatedAt: time.Now(),
	}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeProjectService) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	out := []model.Project{}
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjectService) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, service.ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeProjectService) UpdateProject(ctx context.Context, projectID string, name *string, description *string) (*model.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, service.ErrProjectNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = description
	}
	return p, nil
}

func (f *fakeProjectService) DeleteProject(ctx context.Context, projectID string) error {
	if _, ok := f.projects[projectID]; !ok {
		return service.ErrProjectNotFound
	}
	delete(f.projects, projectID)
	return nil
}

type fakeEditorService struct {
	editErr error
	undoErr error
	ops     []model.Operation
}

func (f *fakeEditorService) ApplyEditing(ctx context.Context, userID, projectID, instruction, aiModelID string) (*model.Operation, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	op := model.Operation{
		ID: "op1", UserID: userID, ProjectID: projectID,
		OperationType: model.OperationTypeAIEdit, Prompt: instruction,
		ResultPath: "current/current.png", AIModelID: aiModelID,
		CreatedAt: time.Now(),
	}
	f.ops = append(f.ops, op)
	return &op, nil
}

func (f *fakeEditorService) UndoOperation(ctx context.Context, projectID string) error {
	return f.undoErr
}

func (f *fakeEditorService) UploadAsset(ctx context.Context, projectID, fileName string, data []byte, mimeType string) (string, error) {
	return "projects/u1/" + projectID + "/assets/" + fileName, nil
}

func (f *fakeEditorService) ExportImage(ctx context.Context, projectID, format string) ([]byte, error) {
	return []byte("image-bytes"), nil
}

func (f *fakeEditorService) GetOperations(ctx context.Context, projectID string) ([]model.Operation, error) {
	return f.ops, nil
}

// testAuth injects a fixed user id, standing in for the JWT middleware.
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserContextKey, "u1")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestMux(projects *fakeProjectService, editor *fakeEditorService) *http.ServeMux {
	validate := validator.New(validator.WithRequiredStructEnabled())
	editorHandler := NewEditorHandler(editor, projects, validate)
	projectHandler := NewProjectHandler(projects, editorHandler, validate)
	mux := http.NewServeMux()
	projectHandler.RegisterRoutes(mux, testAuth)
	return mux
}

func seededProjects() *fakeProjectService {
	return &fakeProjectService{projects: map[string]*model.Project{
		"p1": {ID: "p1", UserID: "u1", Name: "Mine", StoragePath: "projects/u1/p1"},
		"p2": {ID: "p2", UserID: "u2", Name: "Theirs", StoragePath: "projects/u2/p2"},
	}}
}

func TestCreateProjectEndpoint(t *testing.T) {
	mux := newTestMux(&fakeProjectService{projects: map[string]*model.Project{}}, &fakeEditorService{})

	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"name": "Vacation"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.ProjectResponseDTO
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Name != "Vacation" || resp.UserID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	mux := newTestMux(&fakeProjectService{projects: map[string]*model.Project{}}, &fakeEditorService{})

	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"description": "no name"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rec.Code)
	}
}

func TestGetProjectOwnership(t *testing.T) {
	mux := newTestMux(seededProjects(), &fakeEditorService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/p1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for own project, got %d", rec.Code)
	}

	// Another user's project is indistinguishable from a missing one.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/p2", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign project, got %d", rec.Code)
	}
}

func TestApplyEditEndpoint(t *testing.T) {
	editor := &fakeEditorService{}
	mux := newTestMux(seededProjects(), editor)

	body := `{"instruction": "brighten", "ai_model_id": "m1"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projects/p1/edit", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.OperationResponseDTO
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Prompt != "brighten" || resp.ResultPath != "current/current.png" {
		t.Fatalf("unexpected operation: %+v", resp)
	}
}

func TestApplyEditQuotaStatus(t *testing.T) {
	editor := &fakeEditorService{editErr: service.ErrQuotaAICallsExceeded}
	mux := newTestMux(seededProjects(), editor)

	body := `{"instruction": "brighten", "ai_model_id": "m1"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projects/p1/edit", strings.NewReader(body)))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for exhausted quota, got %d", rec.Code)
	}
}

func TestUndoEndpointStatuses(t *testing.T) {
	mux := newTestMux(seededProjects(), &fakeEditorService{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projects/p1/undo", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	mux = newTestMux(seededProjects(), &fakeEditorService{undoErr: service.ErrNothingToUndo})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/projects/p1/undo", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when there is nothing to undo, got %d", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	mux := newTestMux(seededProjects(), &fakeEditorService{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/p1/export?format=png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	if rec.Body.String() != "image-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
