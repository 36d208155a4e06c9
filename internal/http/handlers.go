// Package http expone la API del broker: login con password,
// passwordless, refresh y mfa-status, más health y métricas.
package http

import (
	"net/http"

	"github.com/dropDatabas3/ssojohn/internal/auth"
)

type Handlers struct {
	svc *auth.Service
}

func NewHandlers(svc *auth.Service) *Handlers {
	return &Handlers{svc: svc}
}

// ─── DTOs ───

type mfaStatusRequest struct {
	ServiceID string `json:"service_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	ServiceID string `json:"service_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	MFAToken  string `json:"mfa_token"`
}

type refreshRequest struct {
	ServiceID    string `json:"service_id"`
	RefreshToken string `json:"refresh_token"`
}

type passwordlessStartRequest struct {
	ServiceID string `json:"service_id"`
	Email     string `json:"email"`
}

type passwordlessCompleteRequest struct {
	ServiceID string `json:"service_id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
}

type tokenResponse struct {
	Access      string `json:"access"`
	Refresh     string `json:"refresh"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// ─── Endpoints ───

// POST /v1/auth/mfa-status
func (h *Handlers) MFAStatus(w http.ResponseWriter, r *http.Request) {
	var req mfaStatusRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	required, err := h.svc.MFAStatus(r.Context(), req.ServiceID, req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"mfa_required": required})
}

// POST /v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	res, err := h.svc.LoginPassword(r.Context(), auth.LoginInput{
		ServiceID: req.ServiceID,
		Email:     req.Email,
		Password:  req.Password,
		MFACode:   req.MFAToken,
	})
	if err != nil {
		observeLogin("password", "fail")
		writeAuthError(w, err)
		return
	}
	observeLogin("password", "ok")
	WriteJSON(w, http.StatusOK, tokenResponse{
		Access:      res.Pair.Access,
		Refresh:     res.Pair.Refresh,
		RedirectURL: res.RedirectURL,
	})
}

// POST /v1/auth/refresh
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.ServiceID, req.RefreshToken)
	if err != nil {
		observeLogin("refresh", "fail")
		writeAuthError(w, err)
		return
	}
	observeLogin("refresh", "ok")
	WriteJSON(w, http.StatusOK, tokenResponse{
		Access:  res.Pair.Access,
		Refresh: res.Pair.Refresh,
	})
}

// POST /v1/auth/passwordless/start
func (h *Handlers) PasswordlessStart(w http.ResponseWriter, r *http.Request) {
	var req passwordlessStartRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if err := h.svc.PasswordlessStart(r.Context(), req.ServiceID, req.Email); err != nil {
		writeAuthError(w, err)
		return
	}
	observeCodeIssued()
	WriteJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

// POST /v1/auth/passwordless/complete
func (h *Handlers) PasswordlessComplete(w http.ResponseWriter, r *http.Request) {
	var req passwordlessCompleteRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	res, err := h.svc.PasswordlessComplete(r.Context(), auth.PasswordlessInput{
		ServiceID: req.ServiceID,
		Email:     req.Email,
		Code:      req.Code,
	})
	if err != nil {
		observeLogin("passwordless", "fail")
		writeAuthError(w, err)
		return
	}
	observeLogin("passwordless", "ok")
	WriteJSON(w, http.StatusOK, tokenResponse{
		Access:      res.Pair.Access,
		Refresh:     res.Pair.Refresh,
		RedirectURL: res.RedirectURL,
	})
}
