package handler

import (
	"errors"
	"net/http"

	"app/internal/service"
	"app/internal/storage"
)

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognised gets the caller's fallback message with a 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrModelNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, storage.ErrArtifactNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrProviderNotConfigured):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrQuotaStorageExceeded),
		errors.Is(err, service.ErrQuotaAICallsExceeded):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, service.ErrConcurrentEdit),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, storage.ErrArtifactExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrProviderError),
		errors.Is(err, service.ErrMalformedResponse):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, storage.ErrStorageUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, fallback+": "+err.Error(), http.StatusInternalServerError)
	}
}
