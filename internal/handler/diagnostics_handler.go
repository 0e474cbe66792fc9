package handler

import (
	"net/http"

	"account-api/pkg/apierror"
)

// DiagnosticsHandler serves deliberately failing endpoints so clients can
// exercise their error handling against every response shape.
type DiagnosticsHandler struct{}

func NewDiagnosticsHandler() *DiagnosticsHandler {
	return &DiagnosticsHandler{}
}

func (h *DiagnosticsHandler) Auth(w http.ResponseWriter, r *http.Request) {
	writeError(w, apierror.Unauthorized("You are not authorized"))
}

func (h *DiagnosticsHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, apierror.NotFound("Resource was not found", ""))
}

func (h *DiagnosticsHandler) ServerError(w http.ResponseWriter, r *http.Request) {
	panic("diagnostics: server error requested")
}

func (h *DiagnosticsHandler) BadRequest(w http.ResponseWriter, r *http.Request) {
	writeError(w, apierror.BadRequest("You can make better requests", ""))
}
