package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

var errUnauthorized = errors.New("caller is not authenticated")

type dataResponse struct {
	Data  any  `json:"data"`
	Total *int `json:"total,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataResponse{Data: data})
}

func writeList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, dataResponse{Data: data, Total: &total})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// errorStatus maps usecase errors onto the wire error kinds.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Message: msg, Code: code, Status: status})
}

// NewMux returns a gateway mux whose routing failures use the same error
// envelope as the handlers.
func NewMux(opts ...runtime.ServeMuxOption) *runtime.ServeMux {
	opts = append(opts, runtime.WithRoutingErrorHandler(routingError))
	return runtime.NewServeMux(opts...)
}

func routingError(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, r *http.Request, status int) {
	code := CodeInternal
	switch status {
	case http.StatusBadRequest:
		code = CodeValidation
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = CodeNotFound
	}
	writeJSON(w, status, ErrorResponse{
		Message: r.Method + " " + r.URL.Path + ": " + http.StatusText(status),
		Code:    code,
		Status:  status,
	})
}
