package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

const (
	errCodeNameCollision     = "NAME_COLLISION"
	errCodePlanLimitExceeded = "PLAN_LIMIT_EXCEEDED"
)

// syncHandler handles the bulk reconciliation endpoint.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

func newSyncHandler(ss portssvc.SyncSvcFacade) *syncHandler {
	return &syncHandler{syncService: ss}
}

// RegisterSyncRoutes registers the sync endpoint on its own (rate-limited)
// group.
func RegisterSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvcFacade) {
	h := newSyncHandler(syncService)
	rg.POST("/sync", h.sync)
}

// sync godoc
// @Summary Reconcile a device's offline dataset
// @Description Applies the device's full local dataset against the caller's cloud account in one pass. Unresolved name collisions and plan-limit breaches return 409 with a machine-readable error code; nothing has been written in either case, so the device can re-submit the same payload with resolutions attached.
// @Tags sync
// @Accept  json
// @Produce  json
// @Param   snapshot body dto.SyncRequest true "Local dataset plus conflict resolutions"
// @Success 200 {object} dto.SyncResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} dto.NameCollisionResponse "Unresolved name collisions"
// @Failure 409 {object} dto.PlanLimitResponse "Plan limit exceeded"
// @Failure 500 {object} map[string]string "Reconciliation failed"
// @Security BearerAuth
// @Router /sync [post]
func (h *syncHandler) sync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Sync", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.syncService.Reconcile(c.Request.Context(), userID, req.ToSnapshot())
	if err != nil {
		var collisionErr *apperrors.NameCollisionError
		if errors.As(err, &collisionErr) {
			c.JSON(http.StatusConflict, dto.NameCollisionResponse{
				Error:     errCodeNameCollision,
				Conflicts: collisionErr.Conflicts,
			})
			return
		}
		var limitErr *apperrors.PlanLimitError
		if errors.As(err, &limitErr) {
			c.JSON(http.StatusConflict, dto.PlanLimitResponse{
				Error:              errCodePlanLimitExceeded,
				Limit:              limitErr.Limit,
				CurrentCount:       limitErr.CurrentCount,
				NewCount:           limitErr.NewCount,
				ExistingBusinesses: dto.ToBusinessResponses(limitErr.ExistingBusinesses),
			})
			return
		}
		respondServiceError(c, err, "reconcile sync")
		return
	}

	c.JSON(http.StatusOK, dto.SyncResponse{
		Businesses: dto.ToBusinessResponses(result.Businesses),
		Counts:     result.Counts,
	})
}
