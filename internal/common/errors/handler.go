// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler normalizes errors and writes the standard JSON error body.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorResponse is the wire shape of every error returned by the API. The
// detail string is surfaced verbatim to the user.
type errorResponse struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail"`
}

// WriteError logs err and writes its JSON representation with the mapped
// HTTP status.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandard(err)
	status := HTTPStatus(stdErr.Code)

	h.logger.Error("request failed", map[string]interface{}{
		"method":    r.Method,
		"path":      r.URL.Path,
		"status":    status,
		"errorCode": string(stdErr.Code),
		"message":   stdErr.Message,
		"detail":    stdErr.Detail,
		"retryable": stdErr.Retryable,
	})

	detail := stdErr.Detail
	if detail == "" {
		detail = stdErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:   stdErr.Code,
		Detail: detail,
	})
}
