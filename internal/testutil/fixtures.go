package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetwise/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestNamedCategory(t, db, userID, fmt.Sprintf("Test Category %d", nextID()), categoryType)
}

// CreateTestNamedCategory creates a category with a fixed name.
func CreateTestNamedCategory(t *testing.T, db *gorm.DB, userID, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense inserts an expense directly, bypassing budget recalculation.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, categoryID *string, amount string, date time.Time) *models.Transaction {
	t.Helper()
	return createTestTransaction(t, db, userID, categoryID, models.TransactionTypeExpense, amount, date)
}

// CreateTestIncome inserts an income directly.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID string, amount string, date time.Time) *models.Transaction {
	t.Helper()
	return createTestTransaction(t, db, userID, nil, models.TransactionTypeIncome, amount, date)
}

func createTestTransaction(t *testing.T, db *gorm.DB, userID string, categoryID *string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     Dec(amount),
		Date:       date.UTC(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestMonthlyBudget creates an active monthly budget with nothing spent.
func CreateTestMonthlyBudget(t *testing.T, db *gorm.DB, userID string, year, month int, total string) *models.MonthlyBudget {
	t.Helper()

	budget := &models.MonthlyBudget{
		UserID:      userID,
		Year:        year,
		Month:       month,
		TotalBudget: Dec(total),
		SpentSoFar:  decimal.Zero,
		Active:      true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test monthly budget: %v", err)
	}
	return budget
}

// CreateTestCategoryBudget adds a category limit to a monthly budget.
func CreateTestCategoryBudget(t *testing.T, db *gorm.DB, budgetID, categoryID, limit string, threshold int) *models.CategoryBudget {
	t.Helper()

	cb := &models.CategoryBudget{
		MonthlyBudgetID:       budgetID,
		CategoryID:            categoryID,
		Limit:                 Dec(limit),
		SpentSoFar:            decimal.Zero,
		AlertThresholdPercent: threshold,
	}
	if err := db.Create(cb).Error; err != nil {
		t.Fatalf("failed to create test category budget: %v", err)
	}
	return cb
}

// CreateTestGoal creates an open saving goal.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID, target, current string, deadline *time.Time) *models.SavingGoal {
	t.Helper()

	goal := &models.SavingGoal{
		UserID:        userID,
		Name:          fmt.Sprintf("Goal %d", nextID()),
		TargetAmount:  Dec(target),
		CurrentAmount: Dec(current),
		Deadline:      deadline,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestPreference stores the default notification preferences for a user.
func CreateTestPreference(t *testing.T, db *gorm.DB, userID string) *models.NotificationPreference {
	t.Helper()

	pref := models.DefaultNotificationPreference(userID)
	if err := db.Create(pref).Error; err != nil {
		t.Fatalf("failed to create test preference: %v", err)
	}
	return pref
}

// CreateTestLoan creates a loan without payments.
func CreateTestLoan(t *testing.T, db *gorm.DB, userID, amount string, installments int) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		UserID:       userID,
		Name:         fmt.Sprintf("Loan %d", nextID()),
		Amount:       Dec(amount),
		Installments: installments,
		Date:         time.Now().UTC(),
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}
