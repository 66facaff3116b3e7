package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/internal/services"
)

type feedRewardRequest struct {
	FeedType    string   `json:"feed_type" validate:"required,oneof=live cctv"`
	HasVideo    bool     `json:"has_video"`
	HasImage    bool     `json:"has_image"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	CaptureTime string   `json:"capture_time" validate:"max=64"`
}

// HandleFeedReward pays the upload rewards of a feed the caller just posted
func (h *HandlerManager) HandleFeedReward(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	var req feedRewardRequest
	if err := h.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	summary, err := h.Points.RewardFeedUpload(r.Context(), services.FeedReward{
		UserID:      p.UserID,
		FeedID:      mux.Vars(r)["feedID"],
		FeedType:    req.FeedType,
		HasVideo:    req.HasVideo,
		HasImage:    req.HasImage,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CaptureTime: req.CaptureTime,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
