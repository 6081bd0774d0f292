package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/testutil"
)

const missingID = "0190c1f2-0000-7000-8000-000000000000"

func newTestCategoryService(t *testing.T) (CategoryServicer, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return NewCategoryService(db), db, testutil.CreateTestUser(t, db)
}

func TestCreateCategory(t *testing.T) {
	svc, db, user := newTestCategoryService(t)

	cat, err := svc.CreateCategory(user.ID, "  Groceries ", models.CategoryTypeExpense, "Food shopping", "cart", "#FF0000")
	testutil.AssertNoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, "Groceries", cat.Name)
	assert.Equal(t, models.CategoryTypeExpense, cat.Type)
	assert.Equal(t, "cart", cat.Icon)

	t.Run("names are unique per user ignoring case", func(t *testing.T) {
		_, err := svc.CreateCategory(user.ID, "GROCERIES", models.CategoryTypeIncome, "", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")

		other := testutil.CreateTestUser(t, db)
		_, err = svc.CreateCategory(other.ID, "Groceries", models.CategoryTypeExpense, "", "", "")
		testutil.AssertNoError(t, err)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := svc.CreateCategory(user.ID, "  ", models.CategoryTypeExpense, "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateCategory(user.ID, "Misc", models.CategoryType("transfer"), "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListCategories(t *testing.T) {
	svc, db, user := newTestCategoryService(t)
	other := testutil.CreateTestUser(t, db)

	for _, name := range []string{"Rent", "Food", "Transport"} {
		testutil.CreateTestNamedCategory(t, db, user.ID, name, models.CategoryTypeExpense)
	}
	testutil.CreateTestNamedCategory(t, db, user.ID, "Salary", models.CategoryTypeIncome)
	testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

	all, err := svc.GetUserCategories(user.ID, pagination.PageRequest{Page: 1, PageSize: 20})
	testutil.AssertNoError(t, err)
	require.EqualValues(t, 4, all.TotalItems)
	assert.Equal(t, "Food", all.Data[0].Name)

	paged, err := svc.GetUserCategories(user.ID, pagination.PageRequest{Page: 2, PageSize: 3})
	testutil.AssertNoError(t, err)
	assert.Equal(t, 2, paged.TotalPages)
	require.Len(t, paged.Data, 1)
	assert.Equal(t, "Transport", paged.Data[0].Name)

	income, err := svc.GetUserCategoriesByType(user.ID, models.CategoryTypeIncome, pagination.PageRequest{Page: 1, PageSize: 20})
	testutil.AssertNoError(t, err)
	require.Len(t, income.Data, 1)
	assert.Equal(t, "Salary", income.Data[0].Name)
}

func TestGetCategoryByID(t *testing.T) {
	svc, db, user := newTestCategoryService(t)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	got, err := svc.GetCategoryByID(user.ID, cat.ID)
	testutil.AssertNoError(t, err)
	assert.Equal(t, cat.ID, got.ID)

	_, err = svc.GetCategoryByID(user.ID, missingID)
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

	stranger := testutil.CreateTestUser(t, db)
	_, err = svc.GetCategoryByID(stranger.ID, cat.ID)
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestUpdateCategory(t *testing.T) {
	svc, db, user := newTestCategoryService(t)
	food := testutil.CreateTestNamedCategory(t, db, user.ID, "Food", models.CategoryTypeExpense)
	rent := testutil.CreateTestNamedCategory(t, db, user.ID, "Rent", models.CategoryTypeExpense)

	updated, err := svc.UpdateCategory(user.ID, food.ID, "", "Eating out", "", "#00FF00")
	testutil.AssertNoError(t, err)
	assert.Equal(t, "Food", updated.Name)
	assert.Equal(t, "#00FF00", updated.Color)

	stored, err := svc.GetCategoryByID(user.ID, food.ID)
	testutil.AssertNoError(t, err)
	assert.Equal(t, "Eating out", stored.Description)

	// Changing only the case of its own name is not a conflict.
	renamed, err := svc.UpdateCategory(user.ID, food.ID, "FOOD", "", "", "")
	testutil.AssertNoError(t, err)
	assert.Equal(t, "FOOD", renamed.Name)

	_, err = svc.UpdateCategory(user.ID, rent.ID, "food", "", "", "")
	testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")

	_, err = svc.UpdateCategory(user.ID, missingID, "New", "", "", "")
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestDeleteCategory(t *testing.T) {
	svc, db, user := newTestCategoryService(t)

	t.Run("soft deletes", func(t *testing.T) {
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, cat.ID))

		_, err := svc.GetCategoryByID(user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		var rows int64
		require.NoError(t, db.Unscoped().Model(&models.Category{}).Where("id = ?", cat.ID).Count(&rows).Error)
		assert.EqualValues(t, 1, rows)
	})

	t.Run("refuses while a budget limit references it", func(t *testing.T) {
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestMonthlyBudget(t, db, user.ID, 2024, 5, "1000")
		testutil.CreateTestCategoryBudget(t, db, budget.ID, cat.ID, "200", 80)

		testutil.AssertAppError(t, svc.DeleteCategory(user.ID, cat.ID), "CATEGORY_IN_USE")
	})

	t.Run("keeps categories with transactions deletable", func(t *testing.T) {
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestExpense(t, db, user.ID, &cat.ID, "12.00", may20)

		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, cat.ID))
	})

	testutil.AssertAppError(t, svc.DeleteCategory(user.ID, missingID), "CATEGORY_NOT_FOUND")
}
