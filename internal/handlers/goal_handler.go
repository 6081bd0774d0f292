package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/money"
	"budgetwise/internal/services"
	"budgetwise/internal/validator"
)

// GoalHandler handles saving goals and deposits into them.
type GoalHandler struct {
	goalService  services.GoalServicer
	auditService services.AuditServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer, auditService services.AuditServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService, auditService: auditService}
}

// CreateGoalRequest represents the request payload for creating a saving goal.
type CreateGoalRequest struct {
	Name          string  `json:"name" binding:"required,max=200"`
	Description   string  `json:"description" binding:"max=1000"`
	TargetAmount  string  `json:"target_amount" binding:"required,decimal_amount"`
	CurrentAmount string  `json:"current_amount" binding:"omitempty,decimal_nonneg"`
	Deadline      *string `json:"deadline" binding:"omitempty,date_only"`
}

// UpdateGoalRequest represents the request payload for updating a saving goal.
// Set clear_deadline to remove an existing deadline.
type UpdateGoalRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=200"`
	Description   *string `json:"description" binding:"omitempty,max=1000"`
	TargetAmount  *string `json:"target_amount" binding:"omitempty,decimal_amount"`
	CurrentAmount *string `json:"current_amount" binding:"omitempty,decimal_nonneg"`
	Deadline      *string `json:"deadline" binding:"omitempty,date_only"`
	ClearDeadline bool    `json:"clear_deadline"`
}

// DepositRequest represents the request payload for adding savings to a goal.
type DepositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// DepositResponse is the goal after a deposit with a confirmation message.
type DepositResponse struct {
	Goal    *models.SavingGoal `json:"goal"`
	Message string             `json:"message"`
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := time.Parse(validator.DateLayout, *raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid deadline, use YYYY-MM-DD")
	}
	return &d, nil
}

// CreateGoal handles the creation of a saving goal.
// @Summary     Create a saving goal
// @Description Create a goal. An initial amount at or above the target completes it immediately.
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} models.SavingGoal "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	target, err := money.ParseAmount(req.TargetAmount)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
		return
	}
	initial := decimal.Zero
	if req.CurrentAmount != "" {
		if initial, err = money.ParseNonNegative(req.CurrentAmount); err != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
			return
		}
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.CreateGoal(userID, req.Name, req.Description, target, initial, deadline)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GOAL", "saving_goal", goal.ID, c.ClientIP(),
		map[string]interface{}{"name": goal.Name, "target_amount": goal.TargetAmount.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// GetGoals lists the user's saving goals.
// @Summary     Get saving goals
// @Description Get a paginated list of saving goals, newest first
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       completed query bool false "Filter by completion"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.SavingGoal] "Paginated goals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals [get]
func (h *GoalHandler) GetGoals(c *gin.Context) {
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

	completed, err := queryBool(c, "completed")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.goalService.GetUserGoals(userID, page, completed)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGoal handles retrieving a specific goal.
// @Summary     Get saving goal by ID
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.SavingGoal "Goal details"
// @Failure     400 {object} ErrorResponse "Invalid goal ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoal(c *gin.Context) {
	userID, goalID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	goal, err := h.goalService.GetGoalByID(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoal handles updating a goal. A completed goal stays completed.
// @Summary     Update saving goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Goal ID"
// @Param       request body UpdateGoalRequest true "Fields to change"
// @Success     200 {object} models.SavingGoal "Updated goal"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, goalID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.GoalUpdate{
		Name:          req.Name,
		Description:   req.Description,
		ClearDeadline: req.ClearDeadline,
	}
	var err error
	if update.TargetAmount, err = parseOptionalAmount(req.TargetAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if req.CurrentAmount != nil {
		current, err := money.ParseNonNegative(*req.CurrentAmount)
		if err != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
			return
		}
		update.CurrentAmount = &current
	}
	if update.Deadline, err = parseDeadline(req.Deadline); err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.UpdateGoal(userID, goalID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GOAL", "saving_goal", goal.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal handles deleting a goal.
// @Summary     Delete saving goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} MessageResponse "Goal deleted"
// @Failure     400 {object} ErrorResponse "Invalid goal ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, goalID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	if err := h.goalService.DeleteGoal(userID, goalID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GOAL", "saving_goal", goalID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted successfully"})
}

// CompleteGoal marks a goal as completed regardless of its progress.
// @Summary     Complete saving goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.SavingGoal "Completed goal"
// @Failure     400 {object} ErrorResponse "Invalid goal ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id}/complete [post]
func (h *GoalHandler) CompleteGoal(c *gin.Context) {
	userID, goalID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	goal, err := h.goalService.MarkCompleted(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COMPLETE_GOAL", "saving_goal", goal.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// Deposit adds savings to a goal and books them as a Savings expense.
// @Summary     Deposit into saving goal
// @Description Add an amount to a goal. The deposit is recorded as an expense in the Savings category and the month's budget is recalculated.
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Goal ID"
// @Param       request body DepositRequest true "Deposit amount"
// @Success     200 {object} DepositResponse "Updated goal and confirmation"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     409 {object} ErrorResponse "An income category holds the Savings name"
// @Failure     500 {object} ErrorResponse "Deposit failed"
// @Router      /goals/{id}/deposit [post]
func (h *GoalHandler) Deposit(c *gin.Context) {
	userID, goalID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	goal, message, err := h.goalService.AddSavings(c.Request.Context(), userID, goalID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DEPOSIT_GOAL", "saving_goal", goal.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusOK, DepositResponse{Goal: goal, Message: message})
}
