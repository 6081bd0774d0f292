package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"budgetwise/internal/delivery"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
)

const (
	recentNotificationLimit = 10
	maxPreferenceDays       = 365
	deadlineRenotifyDays    = 1
	overdueRenotifyDays     = 7
	urgentDeadlineDays      = 3
)

var goalMilestones = []int{25, 50, 75}

// notificationService runs the goal notification engine and serves the
// notification inbox and preferences.
type notificationService struct {
	db         *gorm.DB
	dispatcher delivery.Dispatcher
	now        func() time.Time
}

// NewNotificationService creates a new NotificationServicer. A nil dispatcher
// disables external delivery.
func NewNotificationService(db *gorm.DB, dispatcher delivery.Dispatcher) NotificationServicer {
	if dispatcher == nil {
		dispatcher = delivery.Nop{}
	}
	return &notificationService{db: db, dispatcher: dispatcher, now: utcNow}
}

// CheckAllGoals evaluates every open goal at the instant today and emits the
// deadline, overdue, reminder and milestone notifications that are due.
// Users without a preference row are skipped.
func (s *notificationService) CheckAllGoals(ctx context.Context, today time.Time) (*CheckReport, error) {
	now := today.UTC()
	report := &CheckReport{Emitted: make(map[models.NotificationType]int)}

	var goals []models.SavingGoal
	if err := s.db.WithContext(ctx).
		Where("completed = ?", false).
		Order("created_at ASC, id ASC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	prefs := make(map[string]*models.NotificationPreference)
	var emitted []*models.Notification

	for i := range goals {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		goal := &goals[i]
		pref, ok := prefs[goal.UserID]
		if !ok {
			var err error
			if pref, err = s.findPreference(s.db.WithContext(ctx), goal.UserID); err != nil {
				return nil, err
			}
			prefs[goal.UserID] = pref
		}
		report.GoalsChecked++
		if pref == nil {
			continue
		}

		notifications, err := s.checkGoal(s.db.WithContext(ctx), goal, pref, now)
		if err != nil {
			return nil, err
		}
		for _, n := range notifications {
			report.Emitted[n.Type]++
		}
		emitted = append(emitted, notifications...)
	}

	s.Deliver(ctx, emitted...)

	logger.Get().Infow("goal notification check finished",
		"goals_checked", report.GoalsChecked,
		"notifications", report.Total(),
	)
	return report, nil
}

func (s *notificationService) checkGoal(db *gorm.DB, goal *models.SavingGoal, pref *models.NotificationPreference, now time.Time) ([]*models.Notification, error) {
	var out []*models.Notification
	emit := func(n *models.Notification) error {
		if err := s.create(db, n, now); err != nil {
			return err
		}
		out = append(out, n)
		return nil
	}

	if days, ok := goal.DaysUntilDeadline(now); ok {
		switch {
		case days > 0:
			if pref.GoalDeadlineEnabled && days <= pref.DeadlineDaysBefore {
				recent, err := s.sentSince(db, goal, models.NotificationGoalDeadline, now.AddDate(0, 0, -deadlineRenotifyDays))
				if err != nil {
					return nil, err
				}
				if !recent {
					if err := emit(deadlineNotification(goal, days)); err != nil {
						return nil, err
					}
				}
			}
			if pref.SavingsReminderEnabled {
				suggested := goal.SuggestedMonthlySaving(now)
				if suggested.IsPositive() {
					recent, err := s.sentSince(db, goal, models.NotificationSavingsReminder, now.AddDate(0, 0, -pref.ReminderFrequencyDays))
					if err != nil {
						return nil, err
					}
					if !recent {
						if err := emit(reminderNotification(goal, now)); err != nil {
							return nil, err
						}
					}
				}
			}
		case days < 0:
			if pref.GoalOverdueEnabled {
				recent, err := s.sentSince(db, goal, models.NotificationGoalOverdue, now.AddDate(0, 0, -overdueRenotifyDays))
				if err != nil {
					return nil, err
				}
				if !recent {
					if err := emit(overdueNotification(goal, -days)); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if !pref.MilestoneReachedEnabled {
		return out, nil
	}

	reached, err := s.reachedMilestones(db, goal)
	if err != nil {
		return nil, err
	}
	percent := goal.Progress().Percent
	for _, m := range goalMilestones {
		if reached[m] || percent.LessThan(decimal.NewFromInt(int64(m))) {
			continue
		}
		if err := emit(milestoneNotification(goal, m)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NotifyGoalCompleted stores a goal_completed notification when the owner
// enabled them. It runs inside the caller's transaction and returns nil when
// nothing was stored.
func (s *notificationService) NotifyGoalCompleted(tx *gorm.DB, goal *models.SavingGoal) (*models.Notification, error) {
	pref, err := s.findPreference(tx, goal.UserID)
	if err != nil {
		return nil, err
	}
	if !pref.Enabled(models.NotificationGoalCompleted) {
		return nil, nil
	}

	id := goal.ID
	n := &models.Notification{
		UserID:   goal.UserID,
		Type:     models.NotificationGoalCompleted,
		Title:    "Goal completed!",
		Message:  fmt.Sprintf("Congratulations! You have completed your goal %q of %s.", goal.Name, goal.TargetAmount.StringFixed(2)),
		Priority: models.PriorityHigh,
		GoalID:   &id,
		Data: map[string]any{
			"target_amount":  goal.TargetAmount.StringFixed(2),
			"current_amount": goal.CurrentAmount.StringFixed(2),
		},
	}
	if err := s.create(tx, n, s.now()); err != nil {
		return nil, err
	}
	return n, nil
}

// Deliver hands notifications to the external channels their owners enabled.
// Failures are logged and never returned.
func (s *notificationService) Deliver(ctx context.Context, notifications ...*models.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}
		msg, err := s.message(ctx, n)
		if err != nil {
			logger.Get().Warnw("notification delivery skipped", "notification_id", n.ID, "error", err)
			continue
		}
		if err := s.dispatcher.Deliver(ctx, msg); err != nil {
			logger.Get().Warnw("notification delivery failed",
				"notification_id", n.ID,
				"user_id", n.UserID,
				"type", n.Type,
				"error", err,
			)
		}
	}
}

func (s *notificationService) message(ctx context.Context, n *models.Notification) (delivery.Message, error) {
	msg := delivery.Message{Notification: n}
	pref, err := s.findPreference(s.db.WithContext(ctx), n.UserID)
	if err != nil || pref == nil {
		return msg, err
	}
	msg.Web = pref.WebNotifications
	if pref.EmailNotifications {
		var user models.User
		if err := s.db.WithContext(ctx).Select("id", "email").Where("id = ?", n.UserID).First(&user).Error; err != nil {
			return msg, err
		}
		msg.Email = user.Email
	}
	return msg, nil
}

// GetUserNotifications returns a paginated list of notifications, newest first.
func (s *notificationService) GetUserNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error) {
	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read = ?", false)
	}

	result, err := pagination.FindPage[models.Notification](base, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetRecentNotifications returns the latest notifications for the bell menu.
func (s *notificationService) GetRecentNotifications(userID string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(recentNotificationLimit).
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return notifications, nil
}

// CountUnread counts the user's unread notifications.
func (s *notificationService) CountUnread(userID string) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// MarkRead marks one notification as read. Marking it again keeps the first read time.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if n.Read {
		return &n, nil
	}

	readAt := s.now()
	if err := s.db.Model(&models.Notification{}).Where("id = ?", n.ID).Updates(map[string]interface{}{
		"read":    true,
		"read_at": readAt,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	n.Read = true
	n.ReadAt = &readAt
	return &n, nil
}

// MarkAllRead marks every unread notification as read and returns how many changed.
func (s *notificationService) MarkAllRead(userID string) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": s.now()})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// GetPreferences returns the user's preferences, creating the defaults on first use.
func (s *notificationService) GetPreferences(userID string) (*models.NotificationPreference, error) {
	pref, err := s.findPreference(s.db, userID)
	if err != nil {
		return nil, err
	}
	if pref != nil {
		return pref, nil
	}

	pref = models.DefaultNotificationPreference(userID)
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(pref).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	// A concurrent request may have won the insert.
	if pref, err = s.findPreference(s.db, userID); err != nil {
		return nil, err
	}
	return pref, nil
}

// UpdatePreferences applies a partial update to the user's preferences.
func (s *notificationService) UpdatePreferences(userID string, update PreferenceUpdate) (*models.NotificationPreference, error) {
	if err := validateDays("deadline_days_before", update.DeadlineDaysBefore); err != nil {
		return nil, err
	}
	if err := validateDays("reminder_frequency_days", update.ReminderFrequencyDays); err != nil {
		return nil, err
	}

	pref, err := s.GetPreferences(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	setBool := func(column string, src *bool, dst *bool) {
		if src != nil {
			updates[column] = *src
			*dst = *src
		}
	}
	setBool("goal_deadline_enabled", update.GoalDeadlineEnabled, &pref.GoalDeadlineEnabled)
	setBool("goal_completed_enabled", update.GoalCompletedEnabled, &pref.GoalCompletedEnabled)
	setBool("goal_overdue_enabled", update.GoalOverdueEnabled, &pref.GoalOverdueEnabled)
	setBool("savings_reminder_enabled", update.SavingsReminderEnabled, &pref.SavingsReminderEnabled)
	setBool("milestone_reached_enabled", update.MilestoneReachedEnabled, &pref.MilestoneReachedEnabled)
	setBool("web_notifications", update.WebNotifications, &pref.WebNotifications)
	setBool("email_notifications", update.EmailNotifications, &pref.EmailNotifications)
	if update.DeadlineDaysBefore != nil {
		updates["deadline_days_before"] = *update.DeadlineDaysBefore
		pref.DeadlineDaysBefore = *update.DeadlineDaysBefore
	}
	if update.ReminderFrequencyDays != nil {
		updates["reminder_frequency_days"] = *update.ReminderFrequencyDays
		pref.ReminderFrequencyDays = *update.ReminderFrequencyDays
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.NotificationPreference{}).Where("id = ?", pref.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return pref, nil
}

// findPreference returns nil without error when the user has no preference row.
func (s *notificationService) findPreference(db *gorm.DB, userID string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	if err := db.Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pref, nil
}

// sentSince reports whether a notification of type t for the goal was created after since.
func (s *notificationService) sentSince(db *gorm.DB, goal *models.SavingGoal, t models.NotificationType, since time.Time) (bool, error) {
	var count int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND goal_id = ? AND type = ? AND created_at > ?", goal.UserID, goal.ID, t, since).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// reachedMilestones reads the milestone payloads already sent for the goal.
// The payload is decoded in Go so the lookup works on any JSON column type.
func (s *notificationService) reachedMilestones(db *gorm.DB, goal *models.SavingGoal) (map[int]bool, error) {
	var sent []models.Notification
	if err := db.Where("user_id = ? AND goal_id = ? AND type = ?", goal.UserID, goal.ID, models.NotificationMilestoneReached).
		Find(&sent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	reached := make(map[int]bool, len(sent))
	for i := range sent {
		if m, ok := sent[i].Milestone(); ok {
			reached[m] = true
		}
	}
	return reached, nil
}

func (s *notificationService) create(db *gorm.DB, n *models.Notification, at time.Time) error {
	n.CreatedAt = at.UTC()
	n.UpdatedAt = n.CreatedAt
	if err := db.Create(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func deadlineNotification(goal *models.SavingGoal, days int) *models.Notification {
	priority := models.PriorityHigh
	if days <= urgentDeadlineDays {
		priority = models.PriorityUrgent
	}
	remaining := goal.Progress().Remaining
	return &models.Notification{
		UserID:   goal.UserID,
		Type:     models.NotificationGoalDeadline,
		Title:    "Goal deadline approaching",
		Message:  fmt.Sprintf("Your goal %q is due in %s. You still need %s to complete it.", goal.Name, plural(days, "day"), remaining.StringFixed(2)),
		Priority: priority,
		GoalID:   goalRef(goal),
		Data: map[string]any{
			"days_remaining":   days,
			"amount_remaining": remaining.StringFixed(2),
			"percent_complete": goal.Progress().Percent.StringFixed(2),
		},
	}
}

func overdueNotification(goal *models.SavingGoal, daysOverdue int) *models.Notification {
	return &models.Notification{
		UserID:   goal.UserID,
		Type:     models.NotificationGoalOverdue,
		Title:    "Goal overdue",
		Message:  fmt.Sprintf("Your goal %q was due %s ago. Do you want to extend the deadline?", goal.Name, plural(daysOverdue, "day")),
		Priority: models.PriorityMedium,
		GoalID:   goalRef(goal),
		Data: map[string]any{
			"days_overdue":     daysOverdue,
			"amount_remaining": goal.Progress().Remaining.StringFixed(2),
		},
	}
}

func reminderNotification(goal *models.SavingGoal, now time.Time) *models.Notification {
	suggested := goal.SuggestedMonthlySaving(now)
	return &models.Notification{
		UserID:   goal.UserID,
		Type:     models.NotificationSavingsReminder,
		Title:    "Savings reminder",
		Message:  fmt.Sprintf("To reach your goal %q you should save %s this month.", goal.Name, suggested.StringFixed(2)),
		Priority: models.PriorityLow,
		GoalID:   goalRef(goal),
		Data: map[string]any{
			"suggested_saving": suggested.StringFixed(2),
			"percent_complete": goal.Progress().Percent.StringFixed(2),
		},
	}
}

func milestoneNotification(goal *models.SavingGoal, milestone int) *models.Notification {
	return &models.Notification{
		UserID:   goal.UserID,
		Type:     models.NotificationMilestoneReached,
		Title:    fmt.Sprintf("%d%% completed!", milestone),
		Message:  fmt.Sprintf("Great progress! You have completed %d%% of your goal %q. Keep it up!", milestone, goal.Name),
		Priority: models.PriorityMedium,
		GoalID:   goalRef(goal),
		Data: map[string]any{
			models.MilestoneKey: milestone,
			"current_amount":    goal.CurrentAmount.StringFixed(2),
			"target_amount":     goal.TargetAmount.StringFixed(2),
		},
	}
}

func goalRef(goal *models.SavingGoal) *string {
	id := goal.ID
	return &id
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func validateDays(field string, v *int) error {
	if v != nil && (*v < 1 || *v > maxPreferenceDays) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s must be between 1 and %d", field, maxPreferenceDays))
	}
	return nil
}
