package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

// errorBody is the envelope of every non-2xx API response.
type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeNotFound(w http.ResponseWriter) {
	sharedobs.WriteJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "Not found."})
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrValidation):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{
			Code:    "validation_error",
			Message: err.Error(),
			Fields:  domain.FieldErrors(err),
		})
	case errors.Is(err, domain.ErrNotFound):
		writeNotFound(w)
	case errors.As(err, &tooLarge):
		sharedobs.WriteJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Code:    "request_too_large",
			Message: "Request body is too large.",
		})
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{
			Code:    "internal_error",
			Message: "Internal server error.",
		})
	}
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client disconnects are not actionable
}
