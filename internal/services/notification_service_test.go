package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/testutil"
)

func newTestNotificationService(db *gorm.DB) (*notificationService, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	return &notificationService{db: db, dispatcher: dispatcher, now: fixedClock(may20)}, dispatcher
}

func day(month time.Month, d int) *time.Time {
	t := time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func goalNotifications(t *testing.T, db *gorm.DB, goalID string, kind models.NotificationType) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, db.Where("goal_id = ? AND type = ?", goalID, kind).Order("created_at ASC").Find(&out).Error)
	return out
}

func TestCheckAllGoals_milestones(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestNotificationService(db)
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestPreference(t, db, user.ID)
	goal := testutil.CreateTestGoal(t, db, user.ID, "1000", "200", nil)

	report, err := svc.CheckAllGoals(context.Background(), may20)
	testutil.AssertNoError(t, err)
	assert.Equal(t, 1, report.GoalsChecked)
	assert.Zero(t, report.Total())

	require.NoError(t, db.Model(goal).Update("current_amount", testutil.Dec("600")).Error)

	report, err = svc.CheckAllGoals(context.Background(), may20)
	testutil.AssertNoError(t, err)
	assert.Equal(t, 2, report.Emitted[models.NotificationMilestoneReached])

	sent := goalNotifications(t, db, goal.ID, models.NotificationMilestoneReached)
	require.Len(t, sent, 2)
	var milestones []int
	for i := range sent {
		m, ok := sent[i].Milestone()
		require.True(t, ok)
		milestones = append(milestones, m)
	}
	assert.ElementsMatch(t, []int{25, 50}, milestones)

	// Still at 60%: nothing new.
	report, err = svc.CheckAllGoals(context.Background(), may20.Add(time.Hour))
	testutil.AssertNoError(t, err)
	assert.Zero(t, report.Total())
	assert.Len(t, goalNotifications(t, db, goal.ID, models.NotificationMilestoneReached), 2)
}

func TestCheckAllGoals_deadline(t *testing.T) {
	t.Run("notice_and_reminder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPreference(t, db, user.ID)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000", "0", day(time.May, 25))

		report, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, report.Emitted[models.NotificationGoalDeadline])
		assert.Equal(t, 1, report.Emitted[models.NotificationSavingsReminder])

		deadline := goalNotifications(t, db, goal.ID, models.NotificationGoalDeadline)
		require.Len(t, deadline, 1)
		assert.Equal(t, models.PriorityHigh, deadline[0].Priority)
		assert.Equal(t, "Your goal \""+goal.Name+"\" is due in 5 days. You still need 1000.00 to complete it.", deadline[0].Message)

		reminder := goalNotifications(t, db, goal.ID, models.NotificationSavingsReminder)
		require.Len(t, reminder, 1)
		assert.Equal(t, "To reach your goal \""+goal.Name+"\" you should save 1000.00 this month.", reminder[0].Message)

		// Same instant again: both are inside their windows.
		report, err = svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Zero(t, report.Total())

		// A day later the deadline notice repeats, the monthly reminder does not.
		report, err = svc.CheckAllGoals(context.Background(), may20.Add(24*time.Hour))
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, report.Emitted[models.NotificationGoalDeadline])
		assert.Zero(t, report.Emitted[models.NotificationSavingsReminder])
	})

	t.Run("urgent_when_close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPreference(t, db, user.ID)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000", "0", day(time.May, 21))

		_, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)

		deadline := goalNotifications(t, db, goal.ID, models.NotificationGoalDeadline)
		require.Len(t, deadline, 1)
		assert.Equal(t, models.PriorityUrgent, deadline[0].Priority)
		assert.Contains(t, deadline[0].Message, "due in 1 day.")
	})

	t.Run("outside_window_only_reminds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPreference(t, db, user.ID)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000", "0", day(time.July, 1))

		report, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Zero(t, report.Emitted[models.NotificationGoalDeadline])

		reminder := goalNotifications(t, db, goal.ID, models.NotificationSavingsReminder)
		require.Len(t, reminder, 1)
		assert.Contains(t, reminder[0].Message, "714.29")
	})

	t.Run("overdue_weekly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPreference(t, db, user.ID)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000", "0", day(time.May, 10))

		report, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, report.Total())

		overdue := goalNotifications(t, db, goal.ID, models.NotificationGoalOverdue)
		require.Len(t, overdue, 1)
		assert.Equal(t, "Your goal \""+goal.Name+"\" was due 10 days ago. Do you want to extend the deadline?", overdue[0].Message)

		report, err = svc.CheckAllGoals(context.Background(), may20.AddDate(0, 0, 3))
		testutil.AssertNoError(t, err)
		assert.Zero(t, report.Total())

		report, err = svc.CheckAllGoals(context.Background(), may20.AddDate(0, 0, 8))
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, report.Emitted[models.NotificationGoalOverdue])
	})
}

func TestCheckAllGoals_skips(t *testing.T) {
	t.Run("user_without_preferences", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestGoal(t, db, user.ID, "1000", "900", day(time.May, 22))

		report, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, report.GoalsChecked)
		assert.Zero(t, report.Total())
	})

	t.Run("completed_goals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPreference(t, db, user.ID)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000", "1000", day(time.May, 1))
		require.NoError(t, db.Model(goal).Update("completed", true).Error)

		report, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Zero(t, report.GoalsChecked)
	})

	t.Run("disabled_types", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		pref := testutil.CreateTestPreference(t, db, user.ID)
		require.NoError(t, db.Model(pref).Updates(map[string]interface{}{
			"milestone_reached_enabled": false,
			"goal_deadline_enabled":     false,
			"savings_reminder_enabled":  false,
		}).Error)
		testutil.CreateTestGoal(t, db, user.ID, "1000", "800", day(time.May, 22))

		report, err := svc.CheckAllGoals(context.Background(), may20)
		testutil.AssertNoError(t, err)
		assert.Zero(t, report.Total())
	})

	t.Run("cancelled_context", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPreference(t, db, user.ID)
		testutil.CreateTestGoal(t, db, user.ID, "1000", "800", nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.CheckAllGoals(ctx, may20)
		assert.Error(t, err)
	})
}

func TestCheckAllGoals_delivery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, dispatcher := newTestNotificationService(db)
	user := testutil.CreateTestUserWithEmail(t, db, "saver@example.com")
	pref := testutil.CreateTestPreference(t, db, user.ID)
	require.NoError(t, db.Model(pref).Update("email_notifications", true).Error)
	testutil.CreateTestGoal(t, db, user.ID, "1000", "300", nil)

	report, err := svc.CheckAllGoals(context.Background(), may20)
	testutil.AssertNoError(t, err)
	require.Equal(t, 1, report.Total())

	messages := dispatcher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "saver@example.com", messages[0].Email)
	assert.True(t, messages[0].Web)
	assert.Equal(t, models.NotificationMilestoneReached, messages[0].Notification.Type)
}

func createTestNotification(t *testing.T, db *gorm.DB, userID string, at time.Time, read bool) *models.Notification {
	t.Helper()
	n := &models.Notification{
		Base:     models.Base{CreatedAt: at, UpdatedAt: at},
		UserID:   userID,
		Type:     models.NotificationSavingsReminder,
		Title:    "Savings reminder",
		Message:  "Keep going",
		Priority: models.PriorityLow,
		Read:     read,
	}
	require.NoError(t, db.Create(n).Error)
	return n
}

func TestNotificationInbox(t *testing.T) {
	t.Run("list_and_count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		for i := 0; i < 12; i++ {
			createTestNotification(t, db, user.ID, may20.Add(time.Duration(i)*time.Minute), i%3 == 0)
		}
		createTestNotification(t, db, other.ID, may20, false)

		recent, err := svc.GetRecentNotifications(user.ID)
		testutil.AssertNoError(t, err)
		require.Len(t, recent, 10)
		assert.True(t, recent[0].CreatedAt.After(recent[9].CreatedAt))

		unread, err := svc.CountUnread(user.ID)
		testutil.AssertNoError(t, err)
		assert.Equal(t, int64(8), unread)

		page := pagination.PageRequest{Page: 1, PageSize: 5}
		result, err := svc.GetUserNotifications(user.ID, page, true)
		testutil.AssertNoError(t, err)
		assert.Equal(t, int64(8), result.TotalItems)
		assert.Len(t, result.Data, 5)
	})

	t.Run("mark_read_keeps_first_time", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		n := createTestNotification(t, db, user.ID, may20, false)

		_, err := svc.MarkRead(other.ID, n.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")

		read, err := svc.MarkRead(user.ID, n.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, read.Read)

		svc.now = fixedClock(may20.Add(time.Hour))
		again, err := svc.MarkRead(user.ID, n.ID)
		testutil.AssertNoError(t, err)
		require.NotNil(t, again.ReadAt)
		assert.True(t, again.ReadAt.Equal(may20), "read_at changed to %s", again.ReadAt)
	})

	t.Run("mark_all_read", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		for i := 0; i < 4; i++ {
			createTestNotification(t, db, user.ID, may20, i == 0)
		}

		changed, err := svc.MarkAllRead(user.ID)
		testutil.AssertNoError(t, err)
		assert.Equal(t, int64(3), changed)

		unread, err := svc.CountUnread(user.ID)
		testutil.AssertNoError(t, err)
		assert.Zero(t, unread)
	})
}

func TestNotificationPreferences(t *testing.T) {
	t.Run("defaults_created_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.GetPreferences(user.ID)
		testutil.AssertNoError(t, err)
		assert.Equal(t, 7, first.DeadlineDaysBefore)
		assert.Equal(t, 30, first.ReminderFrequencyDays)
		assert.True(t, first.WebNotifications)
		assert.False(t, first.EmailNotifications)

		second, err := svc.GetPreferences(user.ID)
		testutil.AssertNoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		email := true
		days := 3
		updated, err := svc.UpdatePreferences(user.ID, PreferenceUpdate{EmailNotifications: &email, DeadlineDaysBefore: &days})
		testutil.AssertNoError(t, err)
		assert.True(t, updated.EmailNotifications)
		assert.Equal(t, 3, updated.DeadlineDaysBefore)

		reloaded, err := svc.GetPreferences(user.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, reloaded.EmailNotifications)
		assert.Equal(t, 3, reloaded.DeadlineDaysBefore)
		assert.True(t, reloaded.GoalDeadlineEnabled)
	})

	t.Run("days_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		zero := 0
		_, err := svc.UpdatePreferences(user.ID, PreferenceUpdate{DeadlineDaysBefore: &zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		tooMany := 366
		_, err = svc.UpdatePreferences(user.ID, PreferenceUpdate{ReminderFrequencyDays: &tooMany})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
