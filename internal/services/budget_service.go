package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
	"budgetwise/internal/pagination"
)

const (
	maxCategoryRecommendations = 3
	evolutionMonths            = 6
)

// budgetService handles budgets and keeps their spent_so_far caches in step
// with the transaction ledger.
type budgetService struct {
	db     *gorm.DB
	alerts AlertServicer
	now    func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, alerts AlertServicer) BudgetServicer {
	return &budgetService{db: db, alerts: alerts, now: utcNow}
}

// CreateMonthlyBudget creates the budget for a month and computes its spend
// from transactions already on the ledger.
func (s *budgetService) CreateMonthlyBudget(userID string, year, month int, total decimal.Decimal) (*models.MonthlyBudget, error) {
	period, err := resolvePeriod(year, month, s.now())
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var count int64
	if err := s.db.Model(&models.MonthlyBudget{}).
		Where("user_id = ? AND year = ? AND month = ?", userID, period.Year, int(period.Month)).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrBudgetExists
	}

	budget := &models.MonthlyBudget{
		UserID:      userID,
		Year:        period.Year,
		Month:       int(period.Month),
		TotalBudget: total,
		SpentSoFar:  decimal.Zero,
		Active:      true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.Recalculate(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets, newest month first.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, active *bool, year *int) (*pagination.PageResponse[models.MonthlyBudget], error) {
	base := s.db.Model(&models.MonthlyBudget{}).Where("user_id = ?", userID)
	if active != nil {
		base = base.Where("active = ?", *active)
	}
	if year != nil {
		base = base.Where("year = ?", *year)
	}

	result, err := pagination.FindPage[models.MonthlyBudget](base, page, "year DESC, month DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetBudgetByID returns a budget with its category budgets if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.MonthlyBudget, error) {
	var budget models.MonthlyBudget
	if err := s.db.Scopes(withCategoryBudgets).
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetCurrentBudget returns the active budget for the current UTC month.
func (s *budgetService) GetCurrentBudget(userID string) (*models.MonthlyBudget, error) {
	budget, err := s.findActive(s.db.Scopes(withCategoryBudgets), userID, money.MonthOf(s.now()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// UpdateBudget changes the total or the active flag and re-evaluates the month.
func (s *budgetService) UpdateBudget(userID, budgetID string, total *decimal.Decimal, active *bool) (*models.MonthlyBudget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if total != nil {
		if !total.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["total_budget"] = *total
		budget.TotalBudget = *total
	}
	if active != nil {
		updates["active"] = *active
		budget.Active = *active
	}
	if len(updates) == 0 {
		return budget, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MonthlyBudget{}).Where("id = ?", budget.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.Recalculate(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// DeleteBudget removes a budget together with its category budgets and alerts.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		categoryBudgetIDs := tx.Model(&models.CategoryBudget{}).Select("id").Where("monthly_budget_id = ?", budget.ID)
		if err := tx.Where("monthly_budget_id = ? OR category_budget_id IN (?)", budget.ID, categoryBudgetIDs).
			Delete(&models.BudgetAlert{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("monthly_budget_id = ?", budget.ID).Delete(&models.CategoryBudget{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// AddCategoryBudget sets a spending limit for an expense category inside a
// monthly budget and recalculates the month.
func (s *budgetService) AddCategoryBudget(userID, budgetID, categoryID string, limit decimal.Decimal, threshold int) (*models.CategoryBudget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if !limit.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if threshold == 0 {
		threshold = models.DefaultAlertThreshold
	}
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "only expense categories can have a budget")
	}

	var count int64
	if err := s.db.Model(&models.CategoryBudget{}).
		Where("monthly_budget_id = ? AND category_id = ?", budget.ID, categoryID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrCategoryBudgetExists
	}

	cb := &models.CategoryBudget{
		MonthlyBudgetID:       budget.ID,
		CategoryID:            categoryID,
		Limit:                 limit,
		SpentSoFar:            decimal.Zero,
		AlertThresholdPercent: threshold,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(cb).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.Recalculate(tx, budget)
	})
	if err != nil {
		return nil, err
	}

	return findCategoryBudget(budget, cb.ID), nil
}

// UpdateCategoryBudget changes a category limit or threshold and recalculates the month.
func (s *budgetService) UpdateCategoryBudget(userID, categoryBudgetID string, limit *decimal.Decimal, threshold *int) (*models.CategoryBudget, error) {
	cb, err := s.getCategoryBudget(userID, categoryBudgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if limit != nil {
		if !limit.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["limit_amount"] = *limit
	}
	if threshold != nil {
		if err := validateThreshold(*threshold); err != nil {
			return nil, err
		}
		updates["alert_threshold_percent"] = *threshold
	}

	budget, err := s.GetBudgetByID(userID, cb.MonthlyBudgetID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.CategoryBudget{}).Where("id = ?", cb.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return s.Recalculate(tx, budget)
	})
	if err != nil {
		return nil, err
	}

	return findCategoryBudget(budget, cb.ID), nil
}

// DeleteCategoryBudget removes a category limit and the alerts raised for it.
func (s *budgetService) DeleteCategoryBudget(userID, categoryBudgetID string) error {
	cb, err := s.getCategoryBudget(userID, categoryBudgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_budget_id = ?", cb.ID).Delete(&models.BudgetAlert{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.CategoryBudget{}, "id = ?", cb.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RecalculateBudget forces a recalculation of one budget.
func (s *budgetService) RecalculateBudget(userID, budgetID string) (*models.MonthlyBudget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.Recalculate(tx, budget)
	}); err != nil {
		return nil, err
	}
	return budget, nil
}

// Recalculate overwrites the monthly total and then every category's spend
// from the ledger, running the alert engine after each persist. It is
// idempotent and must run inside the caller's transaction. On return
// budget.CategoryBudgets holds the refreshed rows in creation order.
func (s *budgetService) Recalculate(tx *gorm.DB, budget *models.MonthlyBudget) error {
	spent, err := SumExpenses(tx, budget.UserID, budget.Year, budget.Month, nil)
	if err != nil {
		return err
	}
	budget.SpentSoFar = spent
	if err := tx.Model(&models.MonthlyBudget{}).Where("id = ?", budget.ID).
		Update("spent_so_far", spent).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := s.alerts.EvaluateMonthly(tx, budget); err != nil {
		return err
	}

	var categoryBudgets []models.CategoryBudget
	if err := tx.Scopes(categoryBudgetOrder).
		Where("monthly_budget_id = ?", budget.ID).
		Find(&categoryBudgets).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range categoryBudgets {
		cb := &categoryBudgets[i]
		catSpent, err := SumExpenses(tx, budget.UserID, budget.Year, budget.Month, &cb.CategoryID)
		if err != nil {
			return err
		}
		cb.SpentSoFar = catSpent
		if err := tx.Model(&models.CategoryBudget{}).Where("id = ?", cb.ID).
			Update("spent_so_far", catSpent).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if _, err := s.alerts.EvaluateCategory(tx, cb); err != nil {
			return err
		}
	}

	budget.CategoryBudgets = categoryBudgets
	return nil
}

// RecalculateForPeriod recalculates the user's active budget for the month.
// A month without an active budget is not an error.
func (s *budgetService) RecalculateForPeriod(tx *gorm.DB, userID string, year, month int) error {
	budget, err := s.findActive(tx, userID, money.Month{Year: year, Month: time.Month(month)})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.Recalculate(tx, budget)
}

// Summary recalculates the month's budget and reports alerts, category
// statistics and recommendations. A category that cannot be evaluated is
// logged and left out, and the summary is marked partial.
func (s *budgetService) Summary(userID string, year, month int) (*BudgetSummary, error) {
	now := s.now()
	period, err := resolvePeriod(year, month, now)
	if err != nil {
		return nil, err
	}

	budget, err := s.findActive(s.db, userID, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.Recalculate(tx, budget)
	}); err != nil {
		return nil, err
	}

	var alerts []models.BudgetAlert
	if err := s.db.Where("user_id = ? AND active = ? AND created_at >= ? AND created_at < ?",
		userID, true, period.First(), period.Next().First()).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if alerts == nil {
		alerts = []models.BudgetAlert{}
	}

	summary := &BudgetSummary{
		Budget:               budget,
		ActiveAlerts:         alerts,
		DaysLeft:             budget.DaysLeft(now),
		SuggestedDailyBudget: budget.SuggestedDailyBudget(now),
		Recommendations:      monthlyRecommendations(budget, now),
	}

	var candidates []*models.CategoryBudget
	for i := range budget.CategoryBudgets {
		cb := &budget.CategoryBudgets[i]
		if err := tallyCategory(summary, cb); err != nil {
			logger.Get().Warnw("category left out of budget summary",
				"budget_id", budget.ID,
				"category_budget_id", cb.ID,
				"error", err,
			)
			summary.Partial = true
			continue
		}
		if cb.SpentSoFar.IsPositive() {
			candidates = append(candidates, cb)
		}
	}

	summary.Recommendations = append(summary.Recommendations, categoryRecommendations(candidates)...)
	return summary, nil
}

// tallyCategory folds one category budget into the summary counters.
func tallyCategory(summary *BudgetSummary, cb *models.CategoryBudget) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluating category budget: %v", r)
		}
	}()

	if cb.Category.ID == "" {
		return fmt.Errorf("category %s no longer exists", cb.CategoryID)
	}
	if cb.Exceeded() {
		summary.ExceededCategories++
	} else if cb.NeedsAlert() {
		summary.NearLimitCategories++
	}
	if summary.TopCategory == nil || cb.SpentSoFar.GreaterThan(summary.TopCategory.SpentSoFar) {
		summary.TopCategory = cb
	}
	return nil
}

func monthlyRecommendations(budget *models.MonthlyBudget, now time.Time) []Recommendation {
	recs := []Recommendation{}
	switch {
	case budget.Exceeded():
		overage := money.Overage(budget.SpentSoFar, budget.TotalBudget)
		recs = append(recs, Recommendation{
			Type:    "warning",
			Title:   "Monthly budget exceeded",
			Message: fmt.Sprintf("You have exceeded your monthly budget by %s. Consider reviewing your expenses.", overage.StringFixed(2)),
		})
	case budget.NeedsAlert():
		recs = append(recs, Recommendation{
			Type:    "caution",
			Title:   "Budget almost used up",
			Message: fmt.Sprintf("You have spent %s%% of your budget. %d days left in the month.", money.Percent1(budget.Progress().Percent), budget.DaysLeft(now)),
		})
	}
	return recs
}

// categoryRecommendations looks at the three categories with the highest
// percent spent. Categories under their threshold produce nothing.
func categoryRecommendations(candidates []*models.CategoryBudget) []Recommendation {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Progress().Percent.GreaterThan(candidates[j].Progress().Percent)
	})
	if len(candidates) > maxCategoryRecommendations {
		candidates = candidates[:maxCategoryRecommendations]
	}

	var recs []Recommendation
	for _, cb := range candidates {
		name := cb.Category.Name
		switch {
		case cb.Exceeded():
			recs = append(recs, Recommendation{
				Type:    string(models.AlertCategoryExceeded),
				Title:   name + " exceeded",
				Message: fmt.Sprintf("You have exceeded your %s budget by %s", name, cb.AmountExceeded().StringFixed(2)),
			})
		case cb.NeedsAlert():
			recs = append(recs, Recommendation{
				Type:    string(models.AlertCategoryWarning),
				Title:   "Watch your " + name + " spending",
				Message: fmt.Sprintf("You have spent %s%% of your %s budget", money.Percent1(cb.Progress().Percent), name),
			})
		}
	}
	return recs
}

// Dashboard totals the ledger for a month with a six-month trend.
func (s *budgetService) Dashboard(userID string, year, month int) (*Dashboard, error) {
	period, err := resolvePeriod(year, month, s.now())
	if err != nil {
		return nil, err
	}

	income, err := sumLedger(s.db, userID, models.TransactionTypeIncome, period, nil)
	if err != nil {
		return nil, err
	}
	expense, err := sumLedger(s.db, userID, models.TransactionTypeExpense, period, nil)
	if err != nil {
		return nil, err
	}

	byCategory, err := s.expensesByCategory(userID, period)
	if err != nil {
		return nil, err
	}

	evolution := make([]MonthTotals, 0, evolutionMonths)
	for i := evolutionMonths - 1; i >= 0; i-- {
		m := period.Add(-i)
		in, err := sumLedger(s.db, userID, models.TransactionTypeIncome, m, nil)
		if err != nil {
			return nil, err
		}
		out, err := sumLedger(s.db, userID, models.TransactionTypeExpense, m, nil)
		if err != nil {
			return nil, err
		}
		evolution = append(evolution, MonthTotals{Period: m.String(), Income: in, Expense: out, Balance: in.Sub(out)})
	}

	dashboard := &Dashboard{
		Period:             period.String(),
		TotalIncome:        income,
		TotalExpense:       expense,
		Balance:            income.Sub(expense),
		ExpensesByCategory: byCategory,
		Evolution:          evolution,
	}

	budget, err := s.findActive(s.db, userID, period)
	switch {
	case err == nil:
		if err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.Recalculate(tx, budget)
		}); err != nil {
			return nil, err
		}
		dashboard.Budget = budget
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return dashboard, nil
}

func (s *budgetService) expensesByCategory(userID string, period money.Month) ([]CategoryTotal, error) {
	var txs []models.Transaction
	if err := s.db.Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?",
			userID, models.TransactionTypeExpense, period.First(), period.Next().First()).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make(map[string]*CategoryTotal)
	for _, t := range txs {
		key, name := "", "Uncategorized"
		if t.CategoryID != nil && t.Category != nil {
			key, name = *t.CategoryID, t.Category.Name
		}
		ct, ok := totals[key]
		if !ok {
			ct = &CategoryTotal{Name: name, Total: decimal.Zero}
			if key != "" {
				id := key
				ct.CategoryID = &id
			}
			totals[key] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
	}

	result := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		result = append(result, *ct)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// findActive returns the raw gorm error so callers can tell a missing budget apart.
func (s *budgetService) findActive(db *gorm.DB, userID string, period money.Month) (*models.MonthlyBudget, error) {
	var budget models.MonthlyBudget
	err := db.Where("user_id = ? AND year = ? AND month = ? AND active = ?",
		userID, period.Year, int(period.Month), true).
		First(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (s *budgetService) getCategoryBudget(userID, categoryBudgetID string) (*models.CategoryBudget, error) {
	var cb models.CategoryBudget
	if err := s.db.
		Joins("JOIN monthly_budgets ON monthly_budgets.id = category_budgets.monthly_budget_id").
		Where("category_budgets.id = ? AND monthly_budgets.user_id = ?", categoryBudgetID, userID).
		First(&cb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cb, nil
}

func validateThreshold(threshold int) error {
	if threshold < 1 || threshold > 100 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 1 and 100")
	}
	return nil
}

func findCategoryBudget(budget *models.MonthlyBudget, id string) *models.CategoryBudget {
	for i := range budget.CategoryBudgets {
		if budget.CategoryBudgets[i].ID == id {
			return &budget.CategoryBudgets[i]
		}
	}
	return nil
}

// categoryBudgetOrder loads category budgets in creation order with their
// category, soft-deleted ones included.
func categoryBudgetOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at ASC, id ASC")
}

func withCategoryBudgets(db *gorm.DB) *gorm.DB {
	return db.Preload("CategoryBudgets", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Preload("CategoryBudgets.Category", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}
