package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/pkg/logger"
)

type adminGrantRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"max=200"`
}

type adminChargeRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"max=200"`
}

type chatAwardRequest struct {
	UserID    string `json:"user_id" validate:"required,max=128"`
	Rank      int    `json:"rank" validate:"required,oneof=1 2 3"`
	RelatedID string `json:"related_id" validate:"max=128"`
}

// HandleAdminGrant credits or debits any account
func (h *HandlerManager) HandleAdminGrant(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.PrincipalFrom(r.Context())

	var req adminGrantRequest
	if err := h.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	log, err := h.Points.AdminGrant(r.Context(), admin, req.UserID, req.Amount, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// HandleAdminCharge tops up the calling admin's own balance
func (h *HandlerManager) HandleAdminCharge(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.PrincipalFrom(r.Context())

	var req adminChargeRequest
	if err := h.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	log, err := h.Points.AdminSelfCharge(r.Context(), admin, req.Amount, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// HandleChatAward pays a chat ranking reward
func (h *HandlerManager) HandleChatAward(w http.ResponseWriter, r *http.Request) {
	var req chatAwardRequest
	if err := h.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	log, err := h.Points.GrantChatAward(r.Context(), req.UserID, req.Rank, req.RelatedID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *HandlerManager) HandleFindAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Points.FindAccountByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleVerifyLedger replays an account's ledger
func (h *HandlerManager) HandleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	report, err := h.Points.VerifyLedger(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		writeErr(w, err)
		return
	}

	status := http.StatusOK
	if !report.Consistent {
		status = http.StatusConflict
	}
	writeJSON(w, status, report)
}

// HandleExportLedger downloads an account's ledger as XLSX
func (h *HandlerManager) HandleExportLedger(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var buf bytes.Buffer
	if err := h.Points.ExportLedger(r.Context(), userID, &buf); err != nil {
		writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ledger-"+userID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("Failed to stream ledger export", "user_id", userID, "error", err)
	}
}

// HandleSweep runs the expiry sweep immediately
func (h *HandlerManager) HandleSweep(w http.ResponseWriter, r *http.Request) {
	h.Metrics.ObserveSweepRun("manual")

	report, err := h.Boxes.SweepExpiredBoxes(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if report.Failed > 0 {
		logger.Warn("Manual sweep left failures", "failed", report.Failed)
	}
	writeJSON(w, http.StatusOK, report)
}

