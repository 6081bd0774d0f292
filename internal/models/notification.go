package models

import "time"

// NotificationType is the event a notification reports.
type NotificationType string

const (
	NotificationGoalDeadline     NotificationType = "goal_deadline"
	NotificationGoalCompleted    NotificationType = "goal_completed"
	NotificationGoalOverdue      NotificationType = "goal_overdue"
	NotificationSavingsReminder  NotificationType = "savings_reminder"
	NotificationMilestoneReached NotificationType = "milestone_reached"
)

// NotificationPriority orders notifications for display.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// MilestoneKey is the payload key holding a milestone percentage.
const MilestoneKey = "milestone_percentage"

// Notification is a message about a saving goal. Only Read/ReadAt change
// after creation.
type Notification struct {
	Base
	UserID   string               `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Type     NotificationType     `gorm:"size:20;not null;index" json:"type"`
	Title    string               `gorm:"size:200;not null" json:"title"`
	Message  string               `gorm:"type:text;not null" json:"message"`
	Priority NotificationPriority `gorm:"size:10;not null" json:"priority"`
	Read     bool                 `gorm:"not null;index:idx_notifications_user_read" json:"read"`
	ReadAt   *time.Time           `json:"read_at,omitempty"`
	GoalID   *string              `gorm:"type:uuid;index" json:"goal_id,omitempty"`
	Data     map[string]any       `gorm:"type:text;serializer:json" json:"data,omitempty"`
}

// Milestone returns the milestone percentage stored in the payload, if any.
func (n *Notification) Milestone() (int, bool) {
	if n.Data == nil {
		return 0, false
	}
	switch v := n.Data[MilestoneKey].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// NotificationPreference holds one user's notification toggles and timing.
type NotificationPreference struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	GoalDeadlineEnabled     bool `gorm:"not null" json:"goal_deadline_enabled"`
	GoalCompletedEnabled    bool `gorm:"not null" json:"goal_completed_enabled"`
	GoalOverdueEnabled      bool `gorm:"not null" json:"goal_overdue_enabled"`
	SavingsReminderEnabled  bool `gorm:"not null" json:"savings_reminder_enabled"`
	MilestoneReachedEnabled bool `gorm:"not null" json:"milestone_reached_enabled"`

	DeadlineDaysBefore    int `gorm:"not null" json:"deadline_days_before"`
	ReminderFrequencyDays int `gorm:"not null" json:"reminder_frequency_days"`

	WebNotifications   bool `gorm:"not null" json:"web_notifications"`
	EmailNotifications bool `gorm:"not null" json:"email_notifications"`
}

// DefaultNotificationPreference returns the settings a new user starts with.
func DefaultNotificationPreference(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:                  userID,
		GoalDeadlineEnabled:     true,
		GoalCompletedEnabled:    true,
		GoalOverdueEnabled:      true,
		SavingsReminderEnabled:  true,
		MilestoneReachedEnabled: true,
		DeadlineDaysBefore:      7,
		ReminderFrequencyDays:   30,
		WebNotifications:        true,
		EmailNotifications:      false,
	}
}

// Enabled reports whether notifications of type t are switched on.
func (p *NotificationPreference) Enabled(t NotificationType) bool {
	if p == nil {
		return false
	}
	switch t {
	case NotificationGoalDeadline:
		return p.GoalDeadlineEnabled
	case NotificationGoalCompleted:
		return p.GoalCompletedEnabled
	case NotificationGoalOverdue:
		return p.GoalOverdueEnabled
	case NotificationSavingsReminder:
		return p.SavingsReminderEnabled
	case NotificationMilestoneReached:
		return p.MilestoneReachedEnabled
	}
	return false
}
