package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/internal/models"
)

type createBoxRequest struct {
	TotalPoints  int64  `json:"total_points" validate:"required,gt=0"`
	MaxClaims    int    `json:"max_claims" validate:"required,gt=0"`
	Distribution string `json:"distribution" validate:"required,oneof=equal random"`
}

// boxView is a point box as the chat renders it
type boxView struct {
	*models.PointBox
	State     string   `json:"state"`
	ClaimedBy []string `json:"claimed_by"`
}

func newBoxView(box *models.PointBox, now time.Time) boxView {
	return boxView{PointBox: box, State: box.State(now), ClaimedBy: box.ClaimedBy()}
}

// HandleCreateBox funds a new point box from the caller's balance
func (h *HandlerManager) HandleCreateBox(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	var req createBoxRequest
	if err := h.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	box, err := h.Boxes.CreateBox(r.Context(), p, req.TotalPoints, req.MaxClaims, req.Distribution)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBoxView(box, h.now()))
}

// HandleListBoxes returns the claimable boxes
func (h *HandlerManager) HandleListBoxes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeErr(w, err)
		return
	}

	boxes, err := h.Boxes.ListActiveBoxes(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}

	now := h.now()
	views := make([]boxView, 0, len(boxes))
	for i := range boxes {
		views = append(views, newBoxView(&boxes[i], now))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"boxes": views})
}

func (h *HandlerManager) HandleGetBox(w http.ResponseWriter, r *http.Request) {
	box, err := h.Boxes.GetBox(r.Context(), mux.Vars(r)["boxID"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoxView(box, h.now()))
}

// HandleClaimBox draws the caller's share of a box
func (h *HandlerManager) HandleClaimBox(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	result, err := h.Boxes.ClaimBox(r.Context(), mux.Vars(r)["boxID"], p.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDeleteBox closes a box early and refunds its creator
func (h *HandlerManager) HandleDeleteBox(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	result, err := h.Boxes.DeleteBox(r.Context(), mux.Vars(r)["boxID"], p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
