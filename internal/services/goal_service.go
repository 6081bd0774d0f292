package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
	"budgetwise/internal/pagination"
)

// goalService handles saving goals and deposits into them.
type goalService struct {
	db            *gorm.DB
	budgets       BudgetServicer
	notifications NotificationServicer
	now           func() time.Time
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, budgets BudgetServicer, notifications NotificationServicer) GoalServicer {
	return &goalService{
		db:            db,
		budgets:       budgets,
		notifications: notifications,
		now:           utcNow,
	}
}

// CreateGoal creates a saving goal. An initial amount covering the target
// creates the goal already completed.
func (s *goalService) CreateGoal(userID, name, description string, target, initial decimal.Decimal, deadline *time.Time) (*models.SavingGoal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if !target.IsPositive() || initial.IsNegative() {
		return nil, apperrors.ErrInvalidAmount
	}

	goal := &models.SavingGoal{
		UserID:        userID,
		Name:          name,
		Description:   description,
		TargetAmount:  target,
		CurrentAmount: initial,
		Deadline:      utcDate(deadline),
	}
	goal.LatchCompleted(s.now())

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals returns a paginated list of goals, newest first.
func (s *goalService) GetUserGoals(userID string, page pagination.PageRequest, completed *bool) (*pagination.PageResponse[models.SavingGoal], error) {
	base := s.db.Model(&models.SavingGoal{}).Where("user_id = ?", userID)
	if completed != nil {
		base = base.Where("completed = ?", *completed)
	}

	result, err := pagination.FindPage[models.SavingGoal](base, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetGoalByID returns a goal if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.SavingGoal, error) {
	var goal models.SavingGoal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal edits a goal. Completion stays latched even if the target is raised.
func (s *goalService) UpdateGoal(userID, goalID string, update GoalUpdate) (*models.SavingGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
		}
		goal.Name = name
	}
	if update.Description != nil {
		goal.Description = *update.Description
	}
	if update.TargetAmount != nil {
		if !update.TargetAmount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		goal.TargetAmount = *update.TargetAmount
	}
	if update.CurrentAmount != nil {
		if update.CurrentAmount.IsNegative() {
			return nil, apperrors.ErrInvalidAmount
		}
		goal.CurrentAmount = *update.CurrentAmount
	}
	switch {
	case update.ClearDeadline:
		goal.Deadline = nil
	case update.Deadline != nil:
		goal.Deadline = utcDate(update.Deadline)
	}

	var completed *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		completed, err = s.save(tx, goal)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Deliver(context.Background(), completed)
	return goal, nil
}

// DeleteGoal soft-deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkCompleted latches a goal as completed regardless of its amount.
func (s *goalService) MarkCompleted(userID, goalID string) (*models.SavingGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Completed {
		return goal, nil
	}

	now := s.now()
	goal.Completed = true
	goal.CompletedAt = &now

	var completed *models.Notification
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SavingGoal{}).Where("id = ?", goal.ID).Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		var err error
		completed, err = s.notifications.NotifyGoalCompleted(tx, goal)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Deliver(context.Background(), completed)
	return goal, nil
}

// AddSavings deposits rawAmount into a goal. The goal row is locked, the
// amount is booked as an expense in the user's Savings category, the goal is
// incremented and the month's budget is recalculated, all in one transaction.
// A failure while booking the expense rolls everything back.
func (s *goalService) AddSavings(ctx context.Context, userID, goalID, rawAmount string) (*models.SavingGoal, string, error) {
	amount, err := money.ParseAmount(rawAmount)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInvalidAmount, err)
	}

	now := s.now()
	var goal models.SavingGoal
	var completed *models.Notification

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrGoalNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.bookDeposit(tx, &goal, amount, now); err != nil {
			if errors.Is(err, apperrors.ErrSavingsNameTaken) {
				return err
			}
			logger.Get().Errorw("goal deposit failed",
				"user_id", userID,
				"goal_id", goalID,
				"amount", amount.StringFixed(2),
				"error", err,
			)
			return apperrors.Wrap(apperrors.ErrDepositFailed, err)
		}

		goal.CurrentAmount = goal.CurrentAmount.Add(amount)
		var err error
		completed, err = s.save(tx, &goal)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.notifications.Deliver(ctx, completed)
	return &goal, fmt.Sprintf("Added %s to %s", amount.StringFixed(2), goal.Name), nil
}

// bookDeposit records the deposit as a Savings expense and recalculates the
// budget of the deposit's month.
func (s *goalService) bookDeposit(tx *gorm.DB, goal *models.SavingGoal, amount decimal.Decimal, now time.Time) error {
	category, err := savingsCategory(tx, goal.UserID)
	if err != nil {
		return err
	}

	expense := &models.Transaction{
		UserID:      goal.UserID,
		CategoryID:  &category.ID,
		Type:        models.TransactionTypeExpense,
		Amount:      amount,
		Description: "Savings deposit: " + goal.Name,
		Date:        now.UTC(),
	}
	if err := tx.Create(expense).Error; err != nil {
		return fmt.Errorf("record savings expense: %w", err)
	}

	m := money.MonthOf(expense.Date)
	return s.budgets.RecalculateForPeriod(tx, goal.UserID, m.Year, int(m.Month))
}

// save persists the goal's editable columns, latching completion when the
// target is reached, and emits goal_completed on the transition.
func (s *goalService) save(tx *gorm.DB, goal *models.SavingGoal) (*models.Notification, error) {
	flipped := goal.LatchCompleted(s.now())

	if err := tx.Model(&models.SavingGoal{}).Where("id = ?", goal.ID).Updates(map[string]interface{}{
		"name":           goal.Name,
		"description":    goal.Description,
		"target_amount":  goal.TargetAmount,
		"current_amount": goal.CurrentAmount,
		"deadline":       goal.Deadline,
		"completed":      goal.Completed,
		"completed_at":   goal.CompletedAt,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !flipped {
		return nil, nil
	}
	return s.notifications.NotifyGoalCompleted(tx, goal)
}

// savingsCategory returns the user's reserved Savings expense category,
// creating it on first use. Category names are unique per user regardless of
// case, so any expense category spelled "savings" is reused, and an income
// category holding the name blocks deposits instead of being shadowed.
func savingsCategory(tx *gorm.DB, userID string) (*models.Category, error) {
	var matches []models.Category
	if err := tx.Where("user_id = ? AND LOWER(name) = ?", userID, strings.ToLower(models.SavingsCategoryName)).
		Order("created_at").
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("find savings category: %w", err)
	}
	for i := range matches {
		if matches[i].Type == models.CategoryTypeExpense {
			return &matches[i], nil
		}
	}
	if len(matches) > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrSavingsNameTaken,
			fmt.Sprintf("Income category %q blocks goal deposits; rename it to continue", matches[0].Name))
	}

	category := models.Category{
		UserID:      userID,
		Name:        models.SavingsCategoryName,
		Type:        models.CategoryTypeExpense,
		Description: "Deposits into saving goals",
	}
	if err := tx.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create savings category: %w", err)
	}
	return &category, nil
}

func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := money.Date(*t)
	return &d
}
