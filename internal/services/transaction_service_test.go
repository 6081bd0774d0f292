package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("expense_recalculates_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 5, "1000")

		tx, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, testutil.Dec("42.50"), "Lunch", may20)
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected transaction ID to be assigned")
		}
		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		assertDec(t, "42.50", reloaded.SpentSoFar)
	})

	t.Run("income_does_not_count_as_spend", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 5, "1000")

		_, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeIncome, testutil.Dec("3000"), "Salary", may20)
		testutil.AssertNoError(t, err)

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, reloaded.SpentSoFar.IsZero())
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, testutil.Dec("0"), "", may20)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionType("transfer"), testutil.Dec("10"), "", may20)
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("category_type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := txSvc.CreateTransaction(user.ID, &salary.ID, models.TransactionTypeExpense, testutil.Dec("10"), "", may20)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

		_, err := txSvc.CreateTransaction(user.ID, &foreign.ID, models.TransactionTypeExpense, testutil.Dec("10"), "", may20)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		testutil.CreateTestExpense(t, db, user.ID, nil, "1", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestExpense(t, db, user.ID, nil, "2", time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestExpense(t, db, other.ID, nil, "3", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := txSvc.GetUserTransactions(user.ID, page, TransactionFilter{})
		testutil.AssertNoError(t, err)

		require.Len(t, result.Data, 2)
		assertDec(t, "2", result.Data[0].Amount)
	})

	t.Run("filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestNamedCategory(t, db, user.ID, "Food", models.CategoryTypeExpense)

		testutil.CreateTestIncome(t, db, user.ID, "1000", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestExpense(t, db, user.ID, &food.ID, "500", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestExpense(t, db, user.ID, nil, "20", time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC))

		page := pagination.PageRequest{Page: 1, PageSize: 20}

		expense := models.TransactionTypeExpense
		result, err := txSvc.GetUserTransactions(user.ID, page, TransactionFilter{Type: &expense})
		testutil.AssertNoError(t, err)
		assert.Equal(t, int64(2), result.TotalItems)

		from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		result, err = txSvc.GetUserTransactions(user.ID, page, TransactionFilter{FromDate: &from})
		testutil.AssertNoError(t, err)
		assert.Equal(t, int64(2), result.TotalItems)

		result, err = txSvc.GetUserTransactions(user.ID, page, TransactionFilter{CategoryID: &food.ID})
		testutil.AssertNoError(t, err)
		require.Len(t, result.Data, 1)
		require.NotNil(t, result.Data[0].Category)
		assert.Equal(t, "Food", result.Data[0].Category.Name)
	})
}

func TestGetTransactionByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	budgets, _ := newBudgetStack(db, may20)
	txSvc := NewTransactionService(db, budgets)
	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	tx := testutil.CreateTestExpense(t, db, owner.ID, nil, "5", may20)

	got, err := txSvc.GetTransactionByID(owner.ID, tx.ID)
	testutil.AssertNoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	_, err = txSvc.GetTransactionByID(other.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("moving_month_recalculates_both", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		april := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 4, "1000")
		may := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 5, "1000")

		tx, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, testutil.Dec("100"), "", time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, err)

		newDate := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		_, err = txSvc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{Date: &newDate})
		testutil.AssertNoError(t, err)

		a, err := budgets.GetBudgetByID(user.ID, april.ID)
		testutil.AssertNoError(t, err)
		m, err := budgets.GetBudgetByID(user.ID, may.ID)
		testutil.AssertNoError(t, err)
		assert.True(t, a.SpentSoFar.IsZero(), "april should be empty, got %s", a.SpentSoFar)
		assertDec(t, "100", m.SpentSoFar)
	})

	t.Run("amount_change", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 5, "1000")

		tx, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, testutil.Dec("100"), "", may20)
		testutil.AssertNoError(t, err)

		amount := testutil.Dec("250.25")
		updated, err := txSvc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)
		assertDec(t, "250.25", updated.Amount)

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		assertDec(t, "250.25", reloaded.SpentSoFar)
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgets, _ := newBudgetStack(db, may20)
		txSvc := NewTransactionService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestExpense(t, db, user.ID, nil, "5", may20)

		amount := testutil.Dec("-3")
		_, err := txSvc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})
}

func TestDeleteTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	budgets, _ := newBudgetStack(db, may20)
	txSvc := NewTransactionService(db, budgets)
	user := testutil.CreateTestUser(t, db)
	budget := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 5, "1000")

	keep, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, testutil.Dec("30"), "", may20)
	testutil.AssertNoError(t, err)
	drop, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, testutil.Dec("70"), "", may20)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, txSvc.DeleteTransaction(user.ID, drop.ID))

	reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
	testutil.AssertNoError(t, err)
	assertDec(t, "30", reloaded.SpentSoFar)

	_, err = txSvc.GetTransactionByID(user.ID, drop.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	_, err = txSvc.GetTransactionByID(user.ID, keep.ID)
	testutil.AssertNoError(t, err)

	err = txSvc.DeleteTransaction(user.ID, missingID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}
