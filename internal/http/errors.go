package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/ssojohn/internal/auth"
)

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{
		Error:            code,
		ErrorDescription: desc,
		RequestID:        rid,
	})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodifica el body de forma tolerante (no falla por campos
// desconocidos). Valida Content-Type y limita el body a 1MB.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Content-Type debe ser application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "invalid_json", "json inválido")
		return false
	}
	return true
}

// writeAuthError mapea la taxonomía del flujo de auth a status codes.
// El detalle interno (qué exactamente no validó) nunca viaja al cliente.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidServiceID):
		WriteError(w, http.StatusBadRequest, "invalid_service_id", "Invalid service ID format")
	case errors.Is(err, auth.ErrServiceNotFound):
		WriteError(w, http.StatusNotFound, "service_not_found", "Service not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, auth.ErrMFARequired):
		WriteError(w, http.StatusForbidden, "mfa_required", "MFA token required")
	case errors.Is(err, auth.ErrMFAInvalid):
		WriteError(w, http.StatusForbidden, "mfa_invalid", "Invalid MFA token")
	case errors.Is(err, auth.ErrNotAllowed):
		WriteError(w, http.StatusForbidden, "not_allowed", "Not allowed")
	case errors.Is(err, auth.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, auth.ErrInvalidCode):
		WriteError(w, http.StatusUnauthorized, "invalid_code", "Invalid or expired code")
	case errors.Is(err, auth.ErrInvalidToken):
		WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
	default:
		WriteError(w, http.StatusInternalServerError, "server_error", "An unexpected error occurred")
	}
}
