package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// SumExpenses totals a user's expenses dated inside the given calendar month,
// optionally restricted to one category. It has no side effects and returns
// exact zero when nothing matches.
func SumExpenses(db *gorm.DB, userID string, year, month int, categoryID *string) (decimal.Decimal, error) {
	period, err := money.NewMonth(year, month)
	if err != nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return sumLedger(db, userID, models.TransactionTypeExpense, period, categoryID)
}

// sumLedger adds up stored amounts in Go so no driver-side float aggregation
// touches the totals.
func sumLedger(db *gorm.DB, userID string, txType models.TransactionType, period money.Month, categoryID *string) (decimal.Decimal, error) {
	query := db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?",
			userID, txType, period.First(), period.Next().First())
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var amounts []decimal.Decimal
	if err := query.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

// resolvePeriod defaults a zero year or month to the month containing now.
func resolvePeriod(year, month int, now time.Time) (money.Month, error) {
	if year == 0 || month == 0 {
		return money.MonthOf(now), nil
	}
	period, err := money.NewMonth(year, month)
	if err != nil {
		return money.Month{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return period, nil
}
