package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/money"
	"budgetwise/internal/services"
)

// BudgetHandler handles monthly budgets, their category limits and the
// summary and dashboard views built on them.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a monthly budget.
// Year and month default to the current UTC month.
type CreateBudgetRequest struct {
	Year        int    `json:"year" binding:"omitempty,min=1970,max=9999"`
	Month       int    `json:"month" binding:"omitempty,budget_month"`
	TotalBudget string `json:"total_budget" binding:"required,decimal_amount"`
}

// UpdateBudgetRequest represents the request payload for updating a monthly budget.
type UpdateBudgetRequest struct {
	TotalBudget *string `json:"total_budget" binding:"omitempty,decimal_amount"`
	Active      *bool   `json:"active"`
}

// CategoryBudgetRequest represents the request payload for adding a category limit.
type CategoryBudgetRequest struct {
	CategoryID            string `json:"category_id" binding:"required,uuid"`
	Limit                 string `json:"limit" binding:"required,decimal_amount"`
	AlertThresholdPercent int    `json:"alert_threshold_percent" binding:"omitempty,min=1,max=100"`
}

// UpdateCategoryBudgetRequest represents the request payload for changing a category limit.
type UpdateCategoryBudgetRequest struct {
	Limit                 *string `json:"limit" binding:"omitempty,decimal_amount"`
	AlertThresholdPercent *int    `json:"alert_threshold_percent" binding:"omitempty,min=1,max=100"`
}

func parseOptionalAmount(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := money.ParseAmount(*raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAmount, err)
	}
	return &d, nil
}

// periodQuery reads the optional year and month query parameters.
func periodQuery(c *gin.Context) (int, int, error) {
	year, err := queryInt(c, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(c, "month")
	if err != nil {
		return 0, 0, err
	}
	if month < 0 || month > 12 {
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	return year, month, nil
}

// CreateBudget handles the creation of a new monthly budget.
// @Summary     Create a monthly budget
// @Description Create the overall budget for a month. Existing expenses of that month are counted immediately.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.MonthlyBudget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Budget already exists for the month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	total, err := money.ParseAmount(req.TotalBudget)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
		return
	}

	budget, err := h.budgetService.CreateMonthlyBudget(userID, req.Year, req.Month, total)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "monthly_budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"year": budget.Year, "month": budget.Month, "total_budget": budget.TotalBudget.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     Get budgets
// @Description Get a paginated list of monthly budgets, most recent month first
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       active    query bool false "Filter by active status"
// @Param       year      query int  false "Filter by year"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.MonthlyBudget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	active, err := queryBool(c, "active")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var year *int
	if c.Query("year") != "" {
		y, err := queryInt(c, "year")
		if err != nil {
			respondWithError(c, err)
			return
		}
		year = &y
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, active, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCurrentBudget returns the budget of the current UTC month.
// @Summary     Get current budget
// @Description Get the active budget for the current month with its category limits
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.MonthlyBudget "Current budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No budget for this month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/current [get]
func (h *BudgetHandler) GetCurrentBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetCurrentBudget(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetSummary returns the month overview with alerts and recommendations.
// @Summary     Budget summary
// @Description Recalculate and summarise the budget of a month (default current month)
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year"
// @Param       month query int false "Month (1-12)"
// @Success     200 {object} services.BudgetSummary "Budget summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No budget for this month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/summary [get]
func (h *BudgetHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := periodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.Summary(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetDashboard returns income, expenses and their six-month evolution.
// @Summary     Dashboard
// @Description Aggregate the ledger for a month (default current month)
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year"
// @Param       month query int false "Month (1-12)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *BudgetHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := periodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.budgetService.Dashboard(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get a specific monthly budget with its category limits
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.MonthlyBudget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, budgetID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Change the total or the active flag of a monthly budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} models.MonthlyBudget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, budgetID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	total, err := parseOptionalAmount(req.TotalBudget)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, total, req.Active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "monthly_budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a monthly budget with its category limits and alerts
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, budgetID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "monthly_budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// RecalculateBudget rebuilds a budget's spent amounts from the ledger.
// @Summary     Recalculate budget
// @Description Recompute spent_so_far for the budget and its categories and raise due alerts
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.MonthlyBudget "Recalculated budget"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/recalculate [post]
func (h *BudgetHandler) RecalculateBudget(c *gin.Context) {
	userID, budgetID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	budget, err := h.budgetService.RecalculateBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// AddCategoryBudget adds a category limit to a monthly budget.
// @Summary     Add category budget
// @Description Limit spending on one expense category within a monthly budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Budget ID"
// @Param       request body CategoryBudgetRequest true "Category limit"
// @Success     201 {object} models.CategoryBudget "Category budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     409 {object} ErrorResponse "Category already budgeted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/categories [post]
func (h *BudgetHandler) AddCategoryBudget(c *gin.Context) {
	userID, budgetID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req CategoryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	limit, err := money.ParseAmount(req.Limit)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
		return
	}

	cb, err := h.budgetService.AddCategoryBudget(userID, budgetID, req.CategoryID, limit, req.AlertThresholdPercent)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CATEGORY_BUDGET", "category_budget", cb.ID, c.ClientIP(),
		map[string]interface{}{"category_id": cb.CategoryID, "limit": cb.Limit.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"category_budget": cb})
}

// UpdateCategoryBudget changes a category limit or its alert threshold.
// @Summary     Update category budget
// @Description Change the limit or alert threshold of a category budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                      true "Category budget ID"
// @Param       request body UpdateCategoryBudgetRequest true "Fields to change"
// @Success     200 {object} models.CategoryBudget "Updated category budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /category-budgets/{id} [put]
func (h *BudgetHandler) UpdateCategoryBudget(c *gin.Context) {
	userID, cbID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req UpdateCategoryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	limit, err := parseOptionalAmount(req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cb, err := h.budgetService.UpdateCategoryBudget(userID, cbID, limit, req.AlertThresholdPercent)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category_budget": cb})
}

// DeleteCategoryBudget removes a category limit.
// @Summary     Delete category budget
// @Description Remove a category limit and its alerts
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category budget ID"
// @Success     200 {object} MessageResponse "Category budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /category-budgets/{id} [delete]
func (h *BudgetHandler) DeleteCategoryBudget(c *gin.Context) {
	userID, cbID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	if err := h.budgetService.DeleteCategoryBudget(userID, cbID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CATEGORY_BUDGET", "category_budget", cbID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category budget deleted successfully"})
}
