package handlers

import (
	"net/http"
	"strconv"

	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/pkg/errors"
)

type ensureAccountRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

// HandleEnsureAccount creates the caller's account on first sign in
func (h *HandlerManager) HandleEnsureAccount(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	var req ensureAccountRequest
	if err := h.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	account, err := h.Points.EnsureAccount(r.Context(), p, req.Email)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleMe returns the caller's balance and totals
func (h *HandlerManager) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	account, err := h.Points.GetAccount(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleMyLogs returns the caller's newest ledger entries
func (h *HandlerManager) HandleMyLogs(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeErr(w, err)
		return
	}

	logs, err := h.Points.GetPointLogs(r.Context(), p.UserID, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeValidation, key+" must be an integer")
	}
	return v, nil
}
