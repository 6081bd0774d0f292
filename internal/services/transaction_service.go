package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
	"budgetwise/internal/pagination"
)

// transactionService handles the transaction ledger. Every write recalculates
// the monthly budgets it touches inside the same database transaction.
type transactionService struct {
	db            *gorm.DB
	budgetService BudgetServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, budgetService BudgetServicer) TransactionServicer {
	return &transactionService{
		db:            db,
		budgetService: budgetService,
	}
}

// CreateTransaction records an income or expense for the user.
func (s *transactionService) CreateTransaction(
	userID string,
	categoryID *string,
	transactionType models.TransactionType,
	amount decimal.Decimal,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if err := validateTransactionType(transactionType); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if date.IsZero() {
		date = utcNow()
	}
	if err := s.checkCategory(userID, categoryID, transactionType); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date.UTC(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalculate(tx, userID, transaction.Date)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.FindPage[models.Transaction](base, page, "date DESC, id DESC", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits a transaction. When the date moves to another
// month both the old and the new month are recalculated.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	oldDate := transaction.Date

	if update.Type != nil {
		if err := validateTransactionType(*update.Type); err != nil {
			return nil, err
		}
		transaction.Type = *update.Type
	}
	if update.Amount != nil {
		if !update.Amount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		transaction.Amount = *update.Amount
	}
	if update.CategoryID != nil {
		transaction.CategoryID = update.CategoryID
	}
	if update.Description != nil {
		transaction.Description = *update.Description
	}
	if update.Date != nil {
		transaction.Date = update.Date.UTC()
	}
	if err := s.checkCategory(userID, transaction.CategoryID, transaction.Type); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("id = ?", transaction.ID).Updates(map[string]interface{}{
			"category_id": transaction.CategoryID,
			"type":        transaction.Type,
			"amount":      transaction.Amount,
			"description": transaction.Description,
			"date":        transaction.Date,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.recalculate(tx, userID, oldDate); err != nil {
			return err
		}
		if money.MonthOf(oldDate) != money.MonthOf(transaction.Date) {
			return s.recalculate(tx, userID, transaction.Date)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction soft-deletes a transaction and recalculates its month.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	date := transaction.Date

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalculate(tx, userID, date)
	})
}

func (s *transactionService) recalculate(tx *gorm.DB, userID string, date time.Time) error {
	m := money.MonthOf(date)
	return s.budgetService.RecalculateForPeriod(tx, userID, m.Year, int(m.Month))
}

// checkCategory verifies an optional category belongs to the user and
// matches the transaction type.
func (s *transactionService) checkCategory(userID string, categoryID *string, transactionType models.TransactionType) error {
	if categoryID == nil {
		return nil
	}
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if string(category.Type) != string(transactionType) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category type does not match transaction type")
	}
	return nil
}

func validateTransactionType(t models.TransactionType) error {
	switch t {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		return nil
	}
	return apperrors.ErrInvalidTransactionType
}
