package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/newsguard/internal/model"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithPipelineError maps a pipeline failure to its status code
func respondWithPipelineError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "Prediction failed: " + message
	}
	respondWithError(w, code, message)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrEmptyText),
		errors.Is(err, model.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoTextExtracted),
		errors.Is(err, model.ErrNoMeaningfulText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrRobotsDisallowed):
		return http.StatusForbidden
	case errors.Is(err, model.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
