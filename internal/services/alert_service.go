package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
	"budgetwise/internal/pagination"
)

// alertService decides when a budget threshold produces a BudgetAlert.
// At most one active alert per budget is raised per UTC calendar day.
type alertService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB) AlertServicer {
	return &alertService{db: db, now: utcNow}
}

// EvaluateCategory raises a category alert when the category reached its
// threshold and no active alert for it was created today. Existing alerts are
// never changed.
func (s *alertService) EvaluateCategory(tx *gorm.DB, cb *models.CategoryBudget) (*models.BudgetAlert, error) {
	if !cb.NeedsAlert() {
		return nil, nil
	}

	now := s.now().UTC()
	raised, err := activeAlertOn(tx, "category_budget_id", cb.ID, now)
	if err != nil || raised {
		return nil, err
	}

	var budget models.MonthlyBudget
	if err := tx.Select("id", "user_id").Where("id = ?", cb.MonthlyBudgetID).First(&budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	name := cb.Category.Name
	if name == "" {
		var category models.Category
		if err := tx.Unscoped().Select("name").Where("id = ?", cb.CategoryID).First(&category).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		name = category.Name
	}

	kind := models.AlertCategoryWarning
	if cb.Exceeded() {
		kind = models.AlertCategoryExceeded
	}
	pct := cb.Progress().Percent
	id := cb.ID

	alert := &models.BudgetAlert{
		Base:             models.Base{CreatedAt: now, UpdatedAt: now},
		UserID:           budget.UserID,
		Kind:             kind,
		CategoryBudgetID: &id,
		Message:          fmt.Sprintf("You have spent %s%% of your %s budget", money.Percent1(pct), name),
		PercentSpent:     pct.Round(2),
		AmountExceeded:   cb.AmountExceeded(),
		Active:           true,
	}
	if err := tx.Create(alert).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alert, nil
}

// EvaluateMonthly applies the same rule to the whole month with the fixed
// monthly threshold.
func (s *alertService) EvaluateMonthly(tx *gorm.DB, budget *models.MonthlyBudget) (*models.BudgetAlert, error) {
	if !budget.NeedsAlert() {
		return nil, nil
	}

	now := s.now().UTC()
	raised, err := activeAlertOn(tx, "monthly_budget_id", budget.ID, now)
	if err != nil || raised {
		return nil, err
	}

	kind := models.AlertMonthlyWarning
	if budget.Exceeded() {
		kind = models.AlertMonthlyExceeded
	}
	pct := budget.Progress().Percent
	id := budget.ID

	alert := &models.BudgetAlert{
		Base:            models.Base{CreatedAt: now, UpdatedAt: now},
		UserID:          budget.UserID,
		Kind:            kind,
		MonthlyBudgetID: &id,
		Message:         fmt.Sprintf("You have spent %s%% of your monthly budget for %s", money.Percent1(pct), budget.Period()),
		PercentSpent:    pct.Round(2),
		AmountExceeded:  money.Overage(budget.SpentSoFar, budget.TotalBudget),
		Active:          true,
	}
	if err := tx.Create(alert).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alert, nil
}

// activeAlertOn reports whether an active alert referencing id through column
// was created on the UTC calendar day of now.
func activeAlertOn(tx *gorm.DB, column, id string, now time.Time) (bool, error) {
	day := money.Date(now)
	var count int64
	if err := tx.Model(&models.BudgetAlert{}).
		Where(column+" = ? AND active = ? AND created_at >= ? AND created_at < ?",
			id, true, day, day.AddDate(0, 0, 1)).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// GetUserAlerts returns a paginated list of alerts, newest first.
func (s *alertService) GetUserAlerts(userID string, page pagination.PageRequest, active *bool) (*pagination.PageResponse[models.BudgetAlert], error) {
	base := s.db.Model(&models.BudgetAlert{}).Where("user_id = ?", userID)
	if active != nil {
		base = base.Where("active = ?", *active)
	}

	result, err := pagination.FindPage[models.BudgetAlert](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// DismissAlert deactivates an alert. Dismissing twice is harmless.
func (s *alertService) DismissAlert(userID, alertID string) (*models.BudgetAlert, error) {
	var alert models.BudgetAlert
	if err := s.db.Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if alert.Active {
		if err := s.db.Model(&alert).Update("active", false).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	alert.Active = false
	return &alert, nil
}
