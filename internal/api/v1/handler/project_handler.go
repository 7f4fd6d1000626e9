package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

// ProjectHandler handles project CRUD and dispatches the per-project editing
// subroutes to the EditorHandler.
type ProjectHandler struct {
	projectService service.ProjectService
	editor         *EditorHandler
	validate       *validator.Validate
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService service.ProjectService, editor *EditorHandler, validate *validator.Validate) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, editor: editor, validate: validate}
}

// RegisterRoutes mounts project routes
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/projects", authMw(http.HandlerFunc(h.handleProjects)))
	mux.Handle("/projects/", authMw(http.HandlerFunc(h.handleProject)))
}

func (h *ProjectHandler) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/projects" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.createProject(w, r)
	case http.MethodGet:
		h.listProjects(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ProjectHandler) handleProject(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/projects/")
	parts := strings.SplitN(rest, "/", 2)
	projectID := parts[0]
	if projectID == "" {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if len(parts) == 2 && parts[1] != "" {
		h.editor.handleSubresource(w, r, userID, projectID, parts[1])
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getProject(w, r, userID, projectID)
	case http.MethodPatch, http.MethodPut:
		h.updateProject(w, r, userID, projectID)
	case http.MethodDelete:
		h.deleteProject(w, r, userID, projectID)
	default:
		http.NotFound(w, r)
	}
}

// createProject godoc
// @Summary Create a new project
// @Description Creates a project with its versioned storage skeleton.
// @Tags projects
// @Accept json
// @Produce json
// @Param project body dto.ProjectCreateDTO true "Project creation request"
// @Success 201 {object} dto.ProjectResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to create project"
// @Router /projects [post]
func (h *ProjectHandler) createProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ProjectCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	project, err := h.projectService.CreateProject(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err, "Failed to create project")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(projectToDTO(project))
}

// listProjects godoc
// @Summary List projects
// @Description Lists the authenticated user's projects, most recently updated first.
// @Tags projects
// @Produce json
// @Success 200 {array} dto.ProjectResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to list projects"
// @Router /projects [get]
func (h *ProjectHandler) listProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	projects, err := h.projectService.ListProjects(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to list projects")
		return
	}
	resp := make([]dto.ProjectResponseDTO, 0, len(projects))
	for i := range projects {
		resp = append(resp, projectToDTO(&projects[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// getProject godoc
// @Summary Get a project
// @Description Retrieves a project by its ID.
// @Tags projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} dto.ProjectResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Project not found"
// @Router /projects/{projectId} [get]
func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request, userID, projectID string) {
	project, err := h.fetchOwned(w, r, userID, projectID)
	if err != nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projectToDTO(project))
}

// updateProject godoc
// @Summary Update a project
// @Description Updates a project's name and/or description.
// @Tags projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param project body dto.ProjectUpdateDTO true "Project update request"
// @Success 200 {object} dto.ProjectResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Project not found"
// @Router /projects/{projectId} [patch]
func (h *ProjectHandler) updateProject(w http.ResponseWriter, r *http.Request, userID, projectID string) {
	if _, err := h.fetchOwned(w, r, userID, projectID); err != nil {
		return
	}
	var req dto.ProjectUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.projectService.UpdateProject(r.Context(), projectID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err, "Failed to update project")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projectToDTO(updated))
}

// deleteProject godoc
// @Summary Delete a project
// @Description Soft-deletes a project. Its storage is kept for reconciliation.
// @Tags projects
// @Param projectId path string true "Project ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Project not found"
// @Router /projects/{projectId} [delete]
func (h *ProjectHandler) deleteProject(w http.ResponseWriter, r *http.Request, userID, projectID string) {
	if _, err := h.fetchOwned(w, r, userID, projectID); err != nil {
		return
	}
	if err := h.projectService.DeleteProject(r.Context(), projectID); err != nil {
		writeServiceError(w, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fetchOwned loads the project and enforces ownership, writing the error
// response itself so callers can just return.
func (h *ProjectHandler) fetchOwned(w http.ResponseWriter, r *http.Request, userID, projectID string) (*model.Project, error) {
	project, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve project")
		return nil, err
	}
	if project.UserID != userID {
		http.Error(w, "Project not found", http.StatusNotFound)
		return nil, service.ErrProjectNotFound
	}
	return project, nil
}

func projectToDTO(p *model.Project) dto.ProjectResponseDTO {
	return dto.ProjectResponseDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		StoragePath: p.StoragePath,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
