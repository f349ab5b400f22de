package handler

import (
	"net/http"

	"github.com/hivedesk/api/internal/application/devauth"
)

// DevHandler exposes the sandbox allow-list. Outside a sandbox the endpoint
// behaves as if it did not exist.
type DevHandler struct {
	svc devauth.Service
}

func NewDevHandler(svc devauth.Service) *DevHandler { return &DevHandler{svc: svc} }

func (h *DevHandler) ListAccounts(w http.ResponseWriter, _ *http.Request) {
	accounts := h.svc.ListAccounts()
	if accounts == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}
