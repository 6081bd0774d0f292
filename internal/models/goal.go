package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/money"
)

var thirtyDays = decimal.NewFromInt(30)

// SavingGoal is a target amount the user is saving toward. Completed is a
// one-way latch: once set it is never cleared by later changes.
type SavingGoal struct {
	Base
	SoftDelete
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Description   string          `json:"description"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"target_amount" swaggertype:"string"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"current_amount" swaggertype:"string"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Completed     bool            `gorm:"not null;index" json:"completed"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// Progress returns percent complete (capped) and the amount still missing.
func (g *SavingGoal) Progress() money.Progress {
	return money.ProgressOf(g.CurrentAmount, g.TargetAmount)
}

// ReachedTarget reports whether the saved amount covers the target.
func (g *SavingGoal) ReachedTarget() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// LatchCompleted marks the goal complete if the target is reached and reports
// whether this call flipped it.
func (g *SavingGoal) LatchCompleted(now time.Time) bool {
	if g.Completed || !g.ReachedTarget() {
		return false
	}
	g.Completed = true
	g.CompletedAt = &now
	return true
}

// DaysUntilDeadline is the signed number of days from today to the deadline.
// The second result is false when the goal has no deadline.
func (g *SavingGoal) DaysUntilDeadline(today time.Time) (int, bool) {
	if g.Deadline == nil {
		return 0, false
	}
	return money.DaysBetween(today, *g.Deadline), true
}

// DaysRemaining is DaysUntilDeadline floored at zero.
func (g *SavingGoal) DaysRemaining(today time.Time) int {
	days, ok := g.DaysUntilDeadline(today)
	if !ok || days < 0 {
		return 0
	}
	return days
}

// SuggestedMonthlySaving spreads the missing amount over the months left,
// treating anything under a month as one month. Zero without a deadline.
func (g *SavingGoal) SuggestedMonthlySaving(today time.Time) decimal.Decimal {
	if g.Deadline == nil {
		return decimal.Zero
	}
	months := decimal.NewFromInt(int64(g.DaysRemaining(today))).Div(thirtyDays)
	if months.LessThan(decimal.NewFromInt(1)) {
		months = decimal.NewFromInt(1)
	}
	return g.Progress().Remaining.Div(months).Round(2)
}

// MarshalJSON adds the derived metrics to the stored columns.
func (g SavingGoal) MarshalJSON() ([]byte, error) {
	type alias SavingGoal
	today := time.Now().UTC()
	p := g.Progress()
	return json.Marshal(struct {
		alias
		PercentComplete        decimal.Decimal `json:"percent_complete"`
		AmountRemaining        decimal.Decimal `json:"amount_remaining"`
		DaysRemaining          int             `json:"days_remaining"`
		SuggestedMonthlySaving decimal.Decimal `json:"suggested_monthly_saving"`
	}{
		alias:                  alias(g),
		PercentComplete:        p.Percent.Round(2),
		AmountRemaining:        p.Remaining,
		DaysRemaining:          g.DaysRemaining(today),
		SuggestedMonthlySaving: g.SuggestedMonthlySaving(today),
	})
}
