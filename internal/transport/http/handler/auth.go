package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hivedesk/api/internal/application/magiclink"
	"github.com/hivedesk/api/internal/pkg/validate"
)

// AuthHandler handles the magic-link sign-in endpoints.
type AuthHandler struct {
	svc magiclink.Service
}

func NewAuthHandler(svc magiclink.Service) *AuthHandler { return &AuthHandler{svc: svc} }

type requestLinkBody struct {
	Email  string `json:"email" validate:"required,email"`
	Signup bool   `json:"signup"`
}

type verifyTokenBody struct {
	Token string `json:"token" validate:"required"`
}

type verifyCodeBody struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req requestLinkBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if err := h.svc.RequestLink(r.Context(), req.Email, req.Signup); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "check your email for a sign-in link"})
}

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	h.finish(w, r, func() (*magiclink.AuthResult, error) {
		return h.svc.VerifyToken(r.Context(), req.Token)
	})
}

// VerifyLink serves the GET deep link from the email itself.
func (h *AuthHandler) VerifyLink(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	h.finish(w, r, func() (*magiclink.AuthResult, error) {
		return h.svc.VerifyToken(r.Context(), tok)
	})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email and 6-digit code are required")
		return
	}
	h.finish(w, r, func() (*magiclink.AuthResult, error) {
		return h.svc.VerifyCode(r.Context(), req.Email, req.Code)
	})
}

func (h *AuthHandler) finish(w http.ResponseWriter, _ *http.Request, verify func() (*magiclink.AuthResult, error)) {
	res, err := verify()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresIn:    res.Tokens.ExpiresIn,
		Session:      res.Session,
		User:         res.User,
	})
}
