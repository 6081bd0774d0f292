package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/services"
)

// AlertHandler exposes the budget alerts raised by recalculation.
type AlertHandler struct {
	alertService services.AlertServicer
	auditService services.AuditServicer
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService services.AlertServicer, auditService services.AuditServicer) *AlertHandler {
	return &AlertHandler{alertService: alertService, auditService: auditService}
}

// GetAlerts lists the user's budget alerts, newest first.
// @Summary     Get budget alerts
// @Description Get a paginated list of budget alerts
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       active    query bool false "Filter by active status"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetAlert] "Paginated alerts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts [get]
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	active, err := queryBool(c, "active")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.alertService.GetUserAlerts(userID, page, active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DismissAlert deactivates an alert.
// @Summary     Dismiss alert
// @Description Mark a budget alert as no longer active
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Alert ID"
// @Success     200 {object} models.BudgetAlert "Dismissed alert"
// @Failure     400 {object} ErrorResponse "Invalid alert ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts/{id}/dismiss [post]
func (h *AlertHandler) DismissAlert(c *gin.Context) {
	userID, alertID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	alert, err := h.alertService.DismissAlert(userID, alertID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DISMISS_ALERT", "budget_alert", alert.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"alert": alert})
}
