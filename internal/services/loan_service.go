package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
	"budgetwise/internal/pagination"
)

// loanService handles loans and their installment payments.
type loanService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB) LoanServicer {
	return &loanService{db: db, now: utcNow}
}

// CreateLoan records a new loan.
func (s *loanService) CreateLoan(userID, name, description string, amount decimal.Decimal, installments int, date time.Time) (*models.Loan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan name is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if installments < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "installments must be at least 1")
	}
	if date.IsZero() {
		date = s.now()
	}

	loan := &models.Loan{
		UserID:       userID,
		Name:         name,
		Description:  description,
		Amount:       amount,
		Installments: installments,
		Date:         money.Date(date),
	}
	if err := s.db.Create(loan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	loan.Payments = []models.LoanPayment{}
	return loan, nil
}

// GetUserLoans returns a paginated list of loans with their payments.
func (s *loanService) GetUserLoans(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	base := s.db.Model(&models.Loan{}).Where("user_id = ?", userID)

	result, err := pagination.FindPage[models.Loan](base, page, "date DESC, id DESC", withPayments)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetLoanByID returns a loan with its payments if it belongs to the user.
func (s *loanService) GetLoanByID(userID, loanID string) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Scopes(withPayments).Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

// UpdateLoan changes the given fields of the user's loan and returns it with
// its payments. The installment count may drop below the payments already
// made; the loan then reads as completed.
func (s *loanService) UpdateLoan(userID, loanID string, update LoanUpdate) (*models.Loan, error) {
	loan, err := s.GetLoanByID(userID, loanID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan name is required")
		}
		loan.Name = name
		updates["name"] = name
	}
	if update.Description != nil {
		loan.Description = *update.Description
		updates["description"] = loan.Description
	}
	if update.Amount != nil {
		if !update.Amount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		loan.Amount = *update.Amount
		updates["amount"] = loan.Amount
	}
	if update.Installments != nil {
		if *update.Installments < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "installments must be at least 1")
		}
		loan.Installments = *update.Installments
		updates["installments"] = loan.Installments
	}
	if update.Date != nil {
		loan.Date = money.Date(*update.Date)
		updates["date"] = loan.Date
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Loan{}).Where("id = ?", loan.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return loan, nil
}

// DeleteLoan soft-deletes a loan. Its payments stay for history.
func (s *loanService) DeleteLoan(userID, loanID string) error {
	loan, err := s.GetLoanByID(userID, loanID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(loan).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AddPayment records one repayment. The date defaults to today.
func (s *loanService) AddPayment(userID, loanID string, amount decimal.Decimal, date *time.Time, notes string) (*models.LoanPayment, error) {
	loan, err := s.GetLoanByID(userID, loanID)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	paidOn := s.now()
	if date != nil {
		paidOn = *date
	}

	payment := &models.LoanPayment{
		LoanID: loan.ID,
		Amount: amount,
		Date:   money.Date(paidOn),
		Notes:  notes,
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payment, nil
}

// GetPayments lists a loan's payments, oldest first.
func (s *loanService) GetPayments(userID, loanID string) ([]models.LoanPayment, error) {
	loan, err := s.GetLoanByID(userID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Payments == nil {
		return []models.LoanPayment{}, nil
	}
	return loan.Payments, nil
}

// UpdatePayment changes a payment of the user's loan.
func (s *loanService) UpdatePayment(userID, loanID, paymentID string, update PaymentUpdate) (*models.LoanPayment, error) {
	payment, err := s.findPayment(userID, loanID, paymentID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Amount != nil {
		if !update.Amount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		payment.Amount = *update.Amount
		updates["amount"] = payment.Amount
	}
	if update.Date != nil {
		payment.Date = money.Date(*update.Date)
		updates["date"] = payment.Date
	}
	if update.Notes != nil {
		payment.Notes = *update.Notes
		updates["notes"] = payment.Notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.LoanPayment{}).Where("id = ?", payment.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return payment, nil
}

// DeletePayment removes a payment from the user's loan.
func (s *loanService) DeletePayment(userID, loanID, paymentID string) error {
	payment, err := s.findPayment(userID, loanID, paymentID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(payment).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// findPayment loads a payment only if it belongs to a live loan of the user.
func (s *loanService) findPayment(userID, loanID, paymentID string) (*models.LoanPayment, error) {
	if _, err := s.GetLoanByID(userID, loanID); err != nil {
		return nil, err
	}
	var payment models.LoanPayment
	if err := s.db.Where("id = ? AND loan_id = ?", paymentID, loanID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payment, nil
}

// GetSummary aggregates debt and repayment across the user's loans.
func (s *loanService) GetSummary(userID string) (*LoanSummary, error) {
	var loans []models.Loan
	if err := s.db.Scopes(withPayments).Where("user_id = ?", userID).Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &LoanSummary{
		TotalLoans:    len(loans),
		TotalDebt:     decimal.Zero,
		TotalPaid:     decimal.Zero,
		RemainingDebt: decimal.Zero,
	}
	for i := range loans {
		loan := &loans[i]
		summary.TotalDebt = summary.TotalDebt.Add(loan.Amount)
		summary.TotalPaid = summary.TotalPaid.Add(loan.TotalPaid())
		summary.RemainingDebt = summary.RemainingDebt.Add(loan.RemainingAmount())
		if loan.Completed() {
			summary.CompletedLoans++
		} else {
			summary.ActiveLoans++
		}
	}
	summary.CompletionPercentage = money.ProgressOf(summary.TotalPaid, summary.TotalDebt).Percent.Round(2)
	return summary, nil
}

func withPayments(db *gorm.DB) *gorm.DB {
	return db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	})
}
