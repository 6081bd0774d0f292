package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/services"
)

// NotificationHandler serves the user's goal notifications and preferences.
type NotificationHandler struct {
	notificationService services.NotificationServicer
	auditService        services.AuditServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer, auditService services.AuditServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, auditService: auditService}
}

// UpdatePreferencesRequest represents a partial update of notification preferences.
type UpdatePreferencesRequest struct {
	GoalDeadlineEnabled     *bool `json:"goal_deadline_enabled"`
	GoalCompletedEnabled    *bool `json:"goal_completed_enabled"`
	GoalOverdueEnabled      *bool `json:"goal_overdue_enabled"`
	SavingsReminderEnabled  *bool `json:"savings_reminder_enabled"`
	MilestoneReachedEnabled *bool `json:"milestone_reached_enabled"`
	DeadlineDaysBefore      *int  `json:"deadline_days_before" binding:"omitempty,min=1,max=365"`
	ReminderFrequencyDays   *int  `json:"reminder_frequency_days" binding:"omitempty,min=1,max=365"`
	WebNotifications        *bool `json:"web_notifications"`
	EmailNotifications      *bool `json:"email_notifications"`
}

// UnreadCountResponse carries the number of unread notifications.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// GetNotifications lists the user's notifications.
// @Summary     Get notifications
// @Description Get a paginated list of notifications, newest first
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       unread_only query bool false "Only unread notifications"
// @Param       page        query int  false "Page number (default 1)"
// @Param       page_size   query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Notification] "Paginated notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
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

	unreadOnly, err := queryBool(c, "unread_only")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.notificationService.GetUserNotifications(userID, page, unreadOnly != nil && *unreadOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecent returns the latest notifications.
// @Summary     Recent notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Notification "Latest notifications"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/recent [get]
func (h *NotificationHandler) GetRecent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notifications, err := h.notificationService.GetRecentNotifications(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetUnreadCount returns the number of unread notifications.
// @Summary     Unread notification count
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UnreadCountResponse "Unread count"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.notificationService.CountUnread(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkRead marks a notification as read.
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.Notification "Notification"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, notificationID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(userID, notificationID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllRead marks every unread notification as read.
// @Summary     Mark all notifications read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Number of notifications marked"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	updated, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// GetPreferences returns the user's notification preferences.
// @Summary     Get notification preferences
// @Description Get the preferences, creating the defaults on first access
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.NotificationPreference "Preferences"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/preferences [get]
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pref, err := h.notificationService.GetPreferences(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": pref})
}

// UpdatePreferences changes the user's notification preferences.
// @Summary     Update notification preferences
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePreferencesRequest true "Fields to change"
// @Success     200 {object} models.NotificationPreference "Updated preferences"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pref, err := h.notificationService.UpdatePreferences(userID, services.PreferenceUpdate{
		GoalDeadlineEnabled:     req.GoalDeadlineEnabled,
		GoalCompletedEnabled:    req.GoalCompletedEnabled,
		GoalOverdueEnabled:      req.GoalOverdueEnabled,
		SavingsReminderEnabled:  req.SavingsReminderEnabled,
		MilestoneReachedEnabled: req.MilestoneReachedEnabled,
		DeadlineDaysBefore:      req.DeadlineDaysBefore,
		ReminderFrequencyDays:   req.ReminderFrequencyDays,
		WebNotifications:        req.WebNotifications,
		EmailNotifications:      req.EmailNotifications,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_NOTIFICATION_PREFERENCES", "notification_preference", pref.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"preferences": pref})
}
