package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/money"
)

// DefaultAlertThreshold is the percent at which a category budget starts alerting.
const DefaultAlertThreshold = 80

// MonthlyAlertThreshold is the fixed warning threshold for the month-wide budget.
var MonthlyAlertThreshold = decimal.NewFromInt(80)

// BudgetStatus summarises how close a category is to its limit.
type BudgetStatus string

const (
	BudgetStatusExceeded BudgetStatus = "exceeded"
	BudgetStatusAlert    BudgetStatus = "alert"
	BudgetStatusModerate BudgetStatus = "moderate"
	BudgetStatusHealthy  BudgetStatus = "healthy"
)

// MonthlyBudget is a user's overall spending ceiling for one calendar month.
// SpentSoFar is a cache rebuilt from the transaction ledger on every recalculation.
type MonthlyBudget struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;uniqueIndex:idx_monthly_budgets_period" json:"user_id"`
	Year        int             `gorm:"not null;uniqueIndex:idx_monthly_budgets_period" json:"year"`
	Month       int             `gorm:"not null;uniqueIndex:idx_monthly_budgets_period" json:"month"`
	TotalBudget decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_budget" swaggertype:"string"`
	SpentSoFar  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"spent_so_far" swaggertype:"string"`
	Active      bool            `gorm:"not null" json:"active"`

	CategoryBudgets []CategoryBudget `gorm:"foreignKey:MonthlyBudgetID" json:"category_budgets,omitempty"`
}

// Period returns the calendar month the budget covers.
func (b *MonthlyBudget) Period() money.Month {
	return money.Month{Year: b.Year, Month: time.Month(b.Month)}
}

// Progress returns percent spent (capped) and remaining allowance.
func (b *MonthlyBudget) Progress() money.Progress {
	return money.ProgressOf(b.SpentSoFar, b.TotalBudget)
}

// Exceeded reports whether spending is strictly above the total.
func (b *MonthlyBudget) Exceeded() bool {
	return b.SpentSoFar.GreaterThan(b.TotalBudget)
}

// NeedsAlert reports whether the month-wide warning threshold is reached.
func (b *MonthlyBudget) NeedsAlert() bool {
	return b.Progress().Percent.GreaterThanOrEqual(MonthlyAlertThreshold)
}

// DaysLeft counts the remaining days of the month, today included.
func (b *MonthlyBudget) DaysLeft(today time.Time) int {
	return b.Period().DaysLeft(today)
}

// SuggestedDailyBudget spreads the remaining allowance over the days left.
func (b *MonthlyBudget) SuggestedDailyBudget(today time.Time) decimal.Decimal {
	days := b.DaysLeft(today)
	if days <= 0 {
		return decimal.Zero
	}
	return b.Progress().Remaining.Div(decimal.NewFromInt(int64(days))).Round(2)
}

// MarshalJSON adds the derived metrics to the stored columns.
func (b MonthlyBudget) MarshalJSON() ([]byte, error) {
	type alias MonthlyBudget
	p := b.Progress()
	return json.Marshal(struct {
		alias
		PercentSpent decimal.Decimal `json:"percent_spent"`
		Remaining    decimal.Decimal `json:"remaining"`
		Exceeded     bool            `json:"exceeded"`
	}{
		alias:        alias(b),
		PercentSpent: p.Percent.Round(2),
		Remaining:    p.Remaining,
		Exceeded:     b.Exceeded(),
	})
}

// CategoryBudget is the spending limit for one category inside a monthly budget.
type CategoryBudget struct {
	Base
	MonthlyBudgetID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_category_budgets_unique" json:"monthly_budget_id"`
	CategoryID            string          `gorm:"type:uuid;not null;uniqueIndex:idx_category_budgets_unique" json:"category_id"`
	Limit                 decimal.Decimal `gorm:"column:limit_amount;type:decimal(12,2);not null" json:"limit" swaggertype:"string"`
	SpentSoFar            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"spent_so_far" swaggertype:"string"`
	AlertThresholdPercent int             `gorm:"not null" json:"alert_threshold_percent"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// Progress returns percent spent (capped, zero for a zero limit) and remaining.
func (cb *CategoryBudget) Progress() money.Progress {
	return money.ProgressOf(cb.SpentSoFar, cb.Limit)
}

// Exceeded reports whether spending is strictly above the limit.
func (cb *CategoryBudget) Exceeded() bool {
	return cb.SpentSoFar.GreaterThan(cb.Limit)
}

// NeedsAlert reports whether percent spent reached the alert threshold.
func (cb *CategoryBudget) NeedsAlert() bool {
	return cb.Progress().Percent.GreaterThanOrEqual(decimal.NewFromInt(int64(cb.AlertThresholdPercent)))
}

// AmountExceeded is how far spending is above the limit, never negative.
func (cb *CategoryBudget) AmountExceeded() decimal.Decimal {
	return money.Overage(cb.SpentSoFar, cb.Limit)
}

// Status buckets the category by percent spent.
func (cb *CategoryBudget) Status() BudgetStatus {
	pct := cb.Progress().Percent
	switch {
	case pct.GreaterThanOrEqual(money.Hundred):
		return BudgetStatusExceeded
	case pct.GreaterThanOrEqual(decimal.NewFromInt(int64(cb.AlertThresholdPercent))):
		return BudgetStatusAlert
	case pct.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return BudgetStatusModerate
	default:
		return BudgetStatusHealthy
	}
}

// MarshalJSON adds the derived metrics to the stored columns.
func (cb CategoryBudget) MarshalJSON() ([]byte, error) {
	type alias CategoryBudget
	p := cb.Progress()
	return json.Marshal(struct {
		alias
		PercentSpent decimal.Decimal `json:"percent_spent"`
		Remaining    decimal.Decimal `json:"remaining"`
		Exceeded     bool            `json:"exceeded"`
		NeedsAlert   bool            `json:"needs_alert"`
		Status       BudgetStatus    `json:"status"`
	}{
		alias:        alias(cb),
		PercentSpent: p.Percent.Round(2),
		Remaining:    p.Remaining,
		Exceeded:     cb.Exceeded(),
		NeedsAlert:   cb.NeedsAlert(),
		Status:       cb.Status(),
	})
}

// AlertKind identifies what threshold a BudgetAlert reports.
type AlertKind string

const (
	AlertCategoryWarning  AlertKind = "category_warning"
	AlertCategoryExceeded AlertKind = "category_exceeded"
	AlertMonthlyWarning   AlertKind = "monthly_warning"
	AlertMonthlyExceeded  AlertKind = "monthly_exceeded"
)

// BudgetAlert is an immutable record that a budget threshold was reached.
// Only Active changes after creation, when the user dismisses it.
type BudgetAlert struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind             AlertKind       `gorm:"size:20;not null" json:"kind"`
	MonthlyBudgetID  *string         `gorm:"type:uuid;index" json:"monthly_budget_id,omitempty"`
	CategoryBudgetID *string         `gorm:"type:uuid;index" json:"category_budget_id,omitempty"`
	Message          string          `gorm:"type:text;not null" json:"message"`
	PercentSpent     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percent_spent" swaggertype:"string"`
	AmountExceeded   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_exceeded" swaggertype:"string"`
	Active           bool            `gorm:"not null;index" json:"active"`
}
