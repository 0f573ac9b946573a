package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cliphub/internal/model"
	"cliphub/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// writeError maps any error onto the failure envelope. Recognized kinds
// keep their status and message; anything else becomes a 500 with the
// cause logged, never echoed.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "something went wrong"
	var details []string

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.StatusCode
		message = apiErr.Message
		details = apiErr.Errors
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		message = "user not found"
	case errors.Is(err, model.ErrVideoNotFound):
		status = http.StatusNotFound
		message = "video not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusConflict
		message = "user already exists"
	case errors.Is(err, model.ErrAlreadySubscribed):
		status = http.StatusConflict
		message = "already subscribed"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.NewErrorResponse(status, message, details))
}
