package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

// uploadBodyLimit caps the multipart request size slightly above the asset
// ceiling so oversized files reach the service and get the proper error.
const uploadBodyLimit = 12 << 20

var exportContentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// EditorHandler handles the per-project editing subroutes: edit, undo,
// operations, assets and export.
type EditorHandler struct {
	editorService  service.EditorService
	projectService service.ProjectService
	validate       *validator.Validate
}

// NewEditorHandler creates a new EditorHandler.
func NewEditorHandler(editorService service.EditorService, projectService service.ProjectService, validate *validator.Validate) *EditorHandler {
	return &EditorHandler{editorService: editorService, projectService: projectService, validate: validate}
}

// handleSubresource routes /projects/{id}/{sub}. Ownership is enforced here
// once for every subroute.
func (h *EditorHandler) handleSubresource(w http.ResponseWriter, r *http.Request, userID, projectID, sub string) {
	project, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve project")
		return
	}
	if project.UserID != userID {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	switch {
	case sub == "edit" && r.Method == http.MethodPost:
		h.applyEdit(w, r, userID, projectID)
	case sub == "undo" && r.Method == http.MethodPost:
		h.undo(w, r, projectID)
	case sub == "operations" && r.Method == http.MethodGet:
		h.listOperations(w, r, projectID)
	case sub == "assets" && r.Method == http.MethodPost:
		h.uploadAsset(w, r, projectID)
	case sub == "export" && r.Method == http.MethodGet:
		h.export(w, r, projectID)
	default:
		http.NotFound(w, r)
	}
}

// applyEdit godoc
// @Summary Apply an AI edit
// @Description Interprets a free-text instruction and applies the edit to the project's current image.
// @Tags editing
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param edit body dto.EditRequestDTO true "Edit request"
// @Success 201 {object} dto.OperationResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Project or model not found"
// @Failure 409 {string} string "Concurrent edit conflict"
// @Failure 429 {string} string "AI call quota exceeded"
// @Failure 502 {string} string "Interpretation provider failed"
// @Router /projects/{projectId}/edit [post]
func (h *EditorHandler) applyEdit(w http.ResponseWriter, r *http.Request, userID, projectID string) {
	var req dto.EditRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	op, err := h.editorService.ApplyEditing(r.Context(), userID, projectID, req.Instruction, req.AIModelID)
	if err != nil {
		writeServiceError(w, err, "Failed to apply edit")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(operationToDTO(op))
}

// undo godoc
// @Summary Undo the latest edit
// @Description Restores the current image to the snapshot taken before the latest operation.
// @Tags editing
// @Param projectId path string true "Project ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {string} string "Project not found"
// @Failure 409 {string} string "No operations to undo"
// @Router /projects/{projectId}/undo [post]
func (h *EditorHandler) undo(w http.ResponseWriter, r *http.Request, projectID string) {
	if err := h.editorService.UndoOperation(r.Context(), projectID); err != nil {
		writeServiceError(w, err, "Failed to undo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listOperations godoc
// @Summary List a project's operations
// @Description Returns the project's edit timeline, oldest first.
// @Tags editing
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} dto.OperationResponseDTO
// @Failure 404 {string} string "Project not found"
// @Router /projects/{projectId}/operations [get]
func (h *EditorHandler) listOperations(w http.ResponseWriter, r *http.Request, projectID string) {
	ops, err := h.editorService.GetOperations(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "Failed to list operations")
		return
	}
	resp := make([]dto.OperationResponseDTO, 0, len(ops))
	for i := range ops {
		resp = append(resp, operationToDTO(&ops[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// uploadAsset godoc
// @Summary Upload a source asset
// @Description Stores a JPEG, PNG or WebP file (max 10MB) in the project's asset area.
// @Tags editing
// @Accept multipart/form-data
// @Produce json
// @Param projectId path string true "Project ID"
// @Param file formData file true "Image file"
// @Success 201 {object} dto.UploadResponseDTO
// @Failure 400 {string} string "Unsupported format or file too large"
// @Failure 404 {string} string "Project not found"
// @Failure 429 {string} string "Storage quota exceeded"
// @Router /projects/{projectId}/assets [post]
func (h *EditorHandler) uploadAsset(w http.ResponseWriter, r *http.Request, projectID string) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Invalid multipart payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	path, err := h.editorService.UploadAsset(r.Context(), projectID, header.Filename, data, mimeType)
	if err != nil {
		writeServiceError(w, err, "Failed to upload asset")
		return
	}
	resp := dto.UploadResponseDTO{
		Path:   path,
		SizeMB: float64(len(data)) / 1024 / 1024,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// export godoc
// @Summary Export the current image
// @Description Returns the project's current image bytes. Format must be jpeg, png or webp.
// @Tags editing
// @Produce octet-stream
// @Param projectId path string true "Project ID"
// @Param format query string true "Export format"
// @Success 200 {file} binary
// @Failure 400 {string} string "Unsupported format"
// @Failure 404 {string} string "Project or image not found"
// @Router /projects/{projectId}/export [get]
func (h *EditorHandler) export(w http.ResponseWriter, r *http.Request, projectID string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	data, err := h.editorService.ExportImage(r.Context(), projectID, format)
	if err != nil {
		writeServiceError(w, err, "Failed to export image")
		return
	}
	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Write(data)
}

func operationToDTO(op *model.Operation) dto.OperationResponseDTO {
	return dto.OperationResponseDTO{
		ID:            op.ID,
		UserID:        op.UserID,
		ProjectID:     op.ProjectID,
		OperationType: op.OperationType,
		Prompt:        op.Prompt,
		ResultPath:    op.ResultPath,
		AIModelID:     op.AIModelID,
		CreatedAt:     op.CreatedAt,
	}
}
