package api

import (
	"net/http"
	"sharecircle/errors"

	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// httpStatus maps the sentinel errors to a response status.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidQuery),
		errors.Is(err, errors.ErrInvalidItem),
		errors.Is(err, errors.ErrInvalidRegistration),
		errors.Is(err, errors.ErrUserAlreadyExists),
		errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrUnsupportedMedia),
		errors.Is(err, errors.ErrTooManyFiles),
		errors.Is(err, errors.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errors.ErrUserNotFound), errors.Is(err, errors.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
