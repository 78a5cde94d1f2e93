package handlers

import (
	"errors"
	"net/http"

	"carelink/models"
	"carelink/services/sync"
	"carelink/utils"

	"github.com/gin-gonic/gin"
)

// PlanHandler exposes the sync engine to local UI consumers.
type PlanHandler struct {
	Sync sync.PlanSyncService
}

func NewPlanHandler(syncSvc sync.PlanSyncService) *PlanHandler {
	return &PlanHandler{Sync: syncSvc}
}

type stateResponse struct {
	sync.Snapshot
	Toast string `json:"toast,omitempty"`
}

// GetStateHandler returns the engine snapshot plus derived toast copy.
func (h *PlanHandler) GetStateHandler(c *gin.Context) {
	snap := h.Sync.Snapshot()
	c.JSON(http.StatusOK, stateResponse{
		Snapshot: snap,
		Toast:    sync.ToastFor(snap.LastUpdate, snap.Plan != nil),
	})
}

type refreshRequest struct {
	Silent bool `json:"silent"`
}

// RefreshHandler runs a manual refresh cycle (pull-to-refresh).
func (h *PlanHandler) RefreshHandler(c *gin.Context) {
	var req refreshRequest
	// Empty body means a plain, non-silent manual refresh.
	_ = c.ShouldBindJSON(&req)

	outcome, err := h.Sync.Refresh(c.Request.Context(), models.SourceManual, req.Silent)
	if err != nil && errors.Is(err, sync.ErrNotSignedIn) {
		utils.JSONError(c, http.StatusUnauthorized, "Not signed in", "Sign in to refresh the plan.")
		return
	}

	snap := h.Sync.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success": outcome.Success,
		"state":   snap,
		"toast":   sync.ToastFor(snap.LastUpdate, snap.Plan != nil),
	})
}

// SignOutHandler discards plan state and tears down polling.
func (h *PlanHandler) SignOutHandler(c *gin.Context) {
	h.Sync.SignOut(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// HealthHandler is the liveness probe.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
