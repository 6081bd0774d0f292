package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/logger"
	"budgetwise/internal/services"
)

// InternalHandler exposes operations meant for schedulers and operators,
// guarded by the internal API key rather than a user token.
type InternalHandler struct {
	notificationService services.NotificationServicer
	now                 func() time.Time
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(notificationService services.NotificationServicer) *InternalHandler {
	return &InternalHandler{
		notificationService: notificationService,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// CheckGoals runs the batch goal notification check.
// @Summary     Run goal notification check
// @Description Evaluate every incomplete goal and emit due notifications. The date defaults to today (UTC).
// @Tags        internal
// @Produce     json
// @Security    ApiKeyAuth
// @Param       date query string false "Evaluation date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.CheckReport "Check report"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Internal API not configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/notifications/check [post]
func (h *InternalHandler) CheckGoals(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	today := h.now()
	if date != nil {
		today = *date
	}

	started := time.Now()
	report, err := h.notificationService.CheckAllGoals(c.Request.Context(), today)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("goal check triggered",
		"date", today.Format(time.DateOnly),
		"goals_checked", report.GoalsChecked,
		"emitted", report.Total(),
		"duration", time.Since(started),
	)

	c.JSON(http.StatusOK, report)
}
