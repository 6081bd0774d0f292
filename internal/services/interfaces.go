package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateProfile(userID string, firstName, lastName *string) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID string, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// TransactionUpdate carries the fields an owner may change. Nil means unchanged.
type TransactionUpdate struct {
	CategoryID  *string
	Type        *models.TransactionType
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
}

// TransactionServicer defines the contract for the transaction ledger.
// Every mutation recalculates the affected monthly budgets in the same DB transaction.
type TransactionServicer interface {
	CreateTransaction(userID string, categoryID *string, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// Recommendation is one piece of advice attached to a budget summary.
type Recommendation struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// BudgetSummary is the month overview served by the summary endpoint.
type BudgetSummary struct {
	Budget               *models.MonthlyBudget  `json:"budget"`
	ActiveAlerts         []models.BudgetAlert   `json:"active_alerts"`
	ExceededCategories   int                    `json:"exceeded_categories"`
	NearLimitCategories  int                    `json:"near_limit_categories"`
	TopCategory          *models.CategoryBudget `json:"top_category,omitempty"`
	DaysLeft             int                    `json:"days_left"`
	SuggestedDailyBudget decimal.Decimal        `json:"suggested_daily_budget"`
	Recommendations      []Recommendation       `json:"recommendations"`
	// Partial is set when some category could not be evaluated.
	Partial bool `json:"partial"`
}

// CategoryTotal is the spend booked against one category.
type CategoryTotal struct {
	CategoryID *string         `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// MonthTotals is income against expense for one month.
type MonthTotals struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Dashboard aggregates the ledger for one month.
type Dashboard struct {
	Period             string                `json:"period"`
	TotalIncome        decimal.Decimal       `json:"total_income"`
	TotalExpense       decimal.Decimal       `json:"total_expense"`
	Balance            decimal.Decimal       `json:"balance"`
	ExpensesByCategory []CategoryTotal       `json:"expenses_by_category"`
	Evolution          []MonthTotals         `json:"evolution"`
	Budget             *models.MonthlyBudget `json:"budget,omitempty"`
}

// BudgetServicer defines the contract for budgets and their recalculation.
type BudgetServicer interface {
	CreateMonthlyBudget(userID string, year, month int, total decimal.Decimal) (*models.MonthlyBudget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, active *bool, year *int) (*pagination.PageResponse[models.MonthlyBudget], error)
	GetBudgetByID(userID, budgetID string) (*models.MonthlyBudget, error)
	GetCurrentBudget(userID string) (*models.MonthlyBudget, error)
	UpdateBudget(userID, budgetID string, total *decimal.Decimal, active *bool) (*models.MonthlyBudget, error)
	DeleteBudget(userID, budgetID string) error

	AddCategoryBudget(userID, budgetID, categoryID string, limit decimal.Decimal, threshold int) (*models.CategoryBudget, error)
	UpdateCategoryBudget(userID, categoryBudgetID string, limit *decimal.Decimal, threshold *int) (*models.CategoryBudget, error)
	DeleteCategoryBudget(userID, categoryBudgetID string) error

	RecalculateBudget(userID, budgetID string) (*models.MonthlyBudget, error)
	Recalculate(tx *gorm.DB, budget *models.MonthlyBudget) error
	RecalculateForPeriod(tx *gorm.DB, userID string, year, month int) error

	// Summary and Dashboard default to the current UTC month when year or month is zero.
	Summary(userID string, year, month int) (*BudgetSummary, error)
	Dashboard(userID string, year, month int) (*Dashboard, error)
}

// AlertServicer decides when a budget threshold produces an alert.
type AlertServicer interface {
	EvaluateCategory(tx *gorm.DB, cb *models.CategoryBudget) (*models.BudgetAlert, error)
	EvaluateMonthly(tx *gorm.DB, budget *models.MonthlyBudget) (*models.BudgetAlert, error)
	GetUserAlerts(userID string, page pagination.PageRequest, active *bool) (*pagination.PageResponse[models.BudgetAlert], error)
	DismissAlert(userID, alertID string) (*models.BudgetAlert, error)
}

// GoalUpdate carries the goal fields an owner may change. Nil means unchanged.
type GoalUpdate struct {
	Name          *string
	Description   *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	Deadline      *time.Time
	ClearDeadline bool
}

// GoalServicer defines the contract for saving goals and deposits.
type GoalServicer interface {
	CreateGoal(userID, name, description string, target, initial decimal.Decimal, deadline *time.Time) (*models.SavingGoal, error)
	GetUserGoals(userID string, page pagination.PageRequest, completed *bool) (*pagination.PageResponse[models.SavingGoal], error)
	GetGoalByID(userID, goalID string) (*models.SavingGoal, error)
	UpdateGoal(userID, goalID string, update GoalUpdate) (*models.SavingGoal, error)
	DeleteGoal(userID, goalID string) error
	MarkCompleted(userID, goalID string) (*models.SavingGoal, error)
	AddSavings(ctx context.Context, userID, goalID, rawAmount string) (*models.SavingGoal, string, error)
}

// CheckReport counts what one batch goal check did.
type CheckReport struct {
	GoalsChecked int                             `json:"goals_checked"`
	Emitted      map[models.NotificationType]int `json:"emitted"`
}

// Total is the number of notifications emitted across types.
func (r *CheckReport) Total() int {
	n := 0
	for _, c := range r.Emitted {
		n += c
	}
	return n
}

// PreferenceUpdate carries the preference fields to change. Nil means unchanged.
type PreferenceUpdate struct {
	GoalDeadlineEnabled     *bool
	GoalCompletedEnabled    *bool
	GoalOverdueEnabled      *bool
	SavingsReminderEnabled  *bool
	MilestoneReachedEnabled *bool
	DeadlineDaysBefore      *int
	ReminderFrequencyDays   *int
	WebNotifications        *bool
	EmailNotifications      *bool
}

// NotificationServicer defines the goal notification engine and its queries.
type NotificationServicer interface {
	CheckAllGoals(ctx context.Context, today time.Time) (*CheckReport, error)
	NotifyGoalCompleted(tx *gorm.DB, goal *models.SavingGoal) (*models.Notification, error)
	Deliver(ctx context.Context, notifications ...*models.Notification)

	GetUserNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	GetRecentNotifications(userID string) ([]models.Notification, error)
	CountUnread(userID string) (int64, error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
	MarkAllRead(userID string) (int64, error)

	GetPreferences(userID string) (*models.NotificationPreference, error)
	UpdatePreferences(userID string, update PreferenceUpdate) (*models.NotificationPreference, error)
}

// LoanSummary aggregates every loan a user holds.
type LoanSummary struct {
	TotalLoans           int             `json:"total_loans"`
	ActiveLoans          int             `json:"active_loans"`
	CompletedLoans       int             `json:"completed_loans"`
	TotalDebt            decimal.Decimal `json:"total_debt"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	RemainingDebt        decimal.Decimal `json:"remaining_debt"`
	CompletionPercentage decimal.Decimal `json:"completion_percentage"`
}

// LoanUpdate holds the loan fields to change; nil fields are left as they are.
type LoanUpdate struct {
	Name         *string
	Description  *string
	Amount       *decimal.Decimal
	Installments *int
	Date         *time.Time
}

// PaymentUpdate holds the payment fields to change; nil fields are left as they are.
type PaymentUpdate struct {
	Amount *decimal.Decimal
	Date   *time.Time
	Notes  *string
}

// LoanServicer defines the contract for loans and their repayments.
// Payments are always reached through a loan the user owns.
type LoanServicer interface {
	CreateLoan(userID, name, description string, amount decimal.Decimal, installments int, date time.Time) (*models.Loan, error)
	GetUserLoans(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	GetLoanByID(userID, loanID string) (*models.Loan, error)
	UpdateLoan(userID, loanID string, update LoanUpdate) (*models.Loan, error)
	DeleteLoan(userID, loanID string) error
	AddPayment(userID, loanID string, amount decimal.Decimal, date *time.Time, notes string) (*models.LoanPayment, error)
	GetPayments(userID, loanID string) ([]models.LoanPayment, error)
	UpdatePayment(userID, loanID, paymentID string, update PaymentUpdate) (*models.LoanPayment, error)
	DeletePayment(userID, loanID, paymentID string) error
	GetSummary(userID string) (*LoanSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
