package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/money"
)

// Loan is a debt repaid in a fixed number of installments.
// Derived metrics expect Payments to be preloaded.
type Loan struct {
	Base
	SoftDelete
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string          `gorm:"size:200;not null" json:"name"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount" swaggertype:"string"`
	Installments int             `gorm:"not null" json:"installments"`
	Date         time.Time       `gorm:"not null" json:"date"`

	Payments []LoanPayment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// InstallmentAmount is the nominal size of one installment.
func (l *Loan) InstallmentAmount() decimal.Decimal {
	if l.Installments <= 0 {
		return decimal.Zero
	}
	return l.Amount.Div(decimal.NewFromInt(int64(l.Installments))).Round(2)
}

// TotalPaid sums the recorded payments.
func (l *Loan) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// RemainingAmount is what is still owed, never negative.
func (l *Loan) RemainingAmount() decimal.Decimal {
	return money.ProgressOf(l.TotalPaid(), l.Amount).Remaining
}

// PaidInstallments counts one installment per recorded payment.
func (l *Loan) PaidInstallments() int {
	return len(l.Payments)
}

// ProgressPercentage is paid installments over total installments.
func (l *Loan) ProgressPercentage() decimal.Decimal {
	return money.ProgressOf(
		decimal.NewFromInt(int64(l.PaidInstallments())),
		decimal.NewFromInt(int64(l.Installments)),
	).Percent
}

// Completed reports whether every installment has a payment.
func (l *Loan) Completed() bool {
	return l.PaidInstallments() >= l.Installments
}

// MarshalJSON adds the derived metrics to the stored columns.
func (l Loan) MarshalJSON() ([]byte, error) {
	type alias Loan
	return json.Marshal(struct {
		alias
		InstallmentAmount  decimal.Decimal `json:"installment_amount"`
		TotalPaid          decimal.Decimal `json:"total_paid"`
		RemainingAmount    decimal.Decimal `json:"remaining_amount"`
		PaidInstallments   int             `json:"paid_installments"`
		ProgressPercentage decimal.Decimal `json:"progress_percentage"`
		Completed          bool            `json:"completed"`
	}{
		alias:              alias(l),
		InstallmentAmount:  l.InstallmentAmount(),
		TotalPaid:          l.TotalPaid(),
		RemainingAmount:    l.RemainingAmount(),
		PaidInstallments:   l.PaidInstallments(),
		ProgressPercentage: l.ProgressPercentage().Round(2),
		Completed:          l.Completed(),
	})
}

// LoanPayment is one repayment against a loan.
type LoanPayment struct {
	Base
	LoanID string          `gorm:"type:uuid;not null;index" json:"loan_id"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount" swaggertype:"string"`
	Date   time.Time       `gorm:"not null" json:"date"`
	Notes  string          `json:"notes"`
}
