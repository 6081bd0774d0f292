package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/money"
	"budgetwise/internal/services"
)

// LoanHandler handles loans and their installment payments.
type LoanHandler struct {
	loanService  services.LoanServicer
	auditService services.AuditServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer, auditService services.AuditServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService, auditService: auditService}
}

// CreateLoanRequest represents the request payload for recording a loan.
type CreateLoanRequest struct {
	Name         string  `json:"name" binding:"required,max=200"`
	Description  string  `json:"description" binding:"max=1000"`
	Amount       string  `json:"amount" binding:"required,decimal_amount"`
	Installments int     `json:"installments" binding:"required,min=1,max=600"`
	Date         *string `json:"date"`
}

// LoanPaymentRequest represents the request payload for a repayment.
type LoanPaymentRequest struct {
	Amount string  `json:"amount" binding:"required,decimal_amount"`
	Date   *string `json:"date"`
	Notes  string  `json:"notes" binding:"max=500"`
}

// UpdateLoanRequest represents the request payload for changing a loan.
// Omitted fields are left unchanged.
type UpdateLoanRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=200"`
	Description  *string `json:"description" binding:"omitempty,max=1000"`
	Amount       *string `json:"amount" binding:"omitempty,decimal_amount"`
	Installments *int    `json:"installments" binding:"omitempty,min=1,max=600"`
	Date         *string `json:"date"`
}

// UpdatePaymentRequest represents the request payload for correcting a payment.
// Omitted fields are left unchanged.
type UpdatePaymentRequest struct {
	Amount *string `json:"amount" binding:"omitempty,decimal_amount"`
	Date   *string `json:"date"`
	Notes  *string `json:"notes" binding:"omitempty,max=500"`
}

// loanAndPaymentIDs resolves the caller, the loan and the payment path IDs.
func loanAndPaymentIDs(c *gin.Context) (userID, loanID, paymentID string, ok bool) {
	if userID, loanID, ok = userAndPathID(c, "id"); !ok {
		return "", "", "", false
	}
	paymentID, err := parsePathID(c, "paymentId")
	if err != nil {
		respondWithError(c, err)
		return "", "", "", false
	}
	return userID, loanID, paymentID, true
}

// CreateLoan records a new loan.
// @Summary     Create a loan
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLoanRequest true "Loan details"
// @Success     201 {object} models.Loan "Loan created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
		return
	}
	date, err := parseOptionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var loanDate time.Time
	if date != nil {
		loanDate = *date
	}

	loan, err := h.loanService.CreateLoan(userID, req.Name, req.Description, amount, req.Installments, loanDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_LOAN", "loan", loan.ID, c.ClientIP(),
		map[string]interface{}{"amount": loan.Amount.StringFixed(2), "installments": loan.Installments})

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// GetLoans lists the user's loans.
// @Summary     Get loans
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Loan] "Paginated loans"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [get]
func (h *LoanHandler) GetLoans(c *gin.Context) {
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

	result, err := h.loanService.GetUserLoans(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary aggregates all of the user's loans.
// @Summary     Loan summary
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.LoanSummary "Loan summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/summary [get]
func (h *LoanHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.loanService.GetSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetLoan returns one loan with its payments.
// @Summary     Get loan by ID
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Loan details"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	userID, loanID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.GetLoanByID(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// UpdateLoan changes a loan's details.
// @Summary     Update loan
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Loan ID"
// @Param       request body UpdateLoanRequest true "Fields to change"
// @Success     200 {object} models.Loan "Updated loan"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [put]
func (h *LoanHandler) UpdateLoan(c *gin.Context) {
	userID, loanID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.LoanUpdate{
		Name:         req.Name,
		Description:  req.Description,
		Installments: req.Installments,
	}
	var err error
	if update.Amount, err = parseOptionalAmount(req.Amount); err != nil {
		respondWithError(c, err)
		return
	}
	if update.Date, err = parseOptionalTime(req.Date); err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.UpdateLoan(userID, loanID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_LOAN", "loan", loan.ID, c.ClientIP(),
		map[string]interface{}{"amount": loan.Amount.StringFixed(2), "installments": loan.Installments})

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// DeleteLoan removes a loan and its payments.
// @Summary     Delete loan
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} MessageResponse "Loan deleted"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c *gin.Context) {
	userID, loanID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	if err := h.loanService.DeleteLoan(userID, loanID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_LOAN", "loan", loanID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Loan deleted successfully"})
}

// AddPayment records a repayment against a loan.
// @Summary     Add loan payment
// @Description Record a repayment. The date defaults to today.
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Loan ID"
// @Param       request body LoanPaymentRequest true "Payment details"
// @Success     201 {object} models.LoanPayment "Payment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/payments [post]
func (h *LoanHandler) AddPayment(c *gin.Context) {
	userID, loanID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	var req LoanPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAmount, err))
		return
	}
	date, err := parseOptionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.loanService.AddPayment(userID, loanID, amount, date, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_LOAN_PAYMENT", "loan_payment", payment.ID, c.ClientIP(),
		map[string]interface{}{"loan_id": loanID, "amount": payment.Amount.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// GetPayments lists a loan's payments, oldest first.
// @Summary     Get loan payments
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {array}  models.LoanPayment "Payments"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/payments [get]
func (h *LoanHandler) GetPayments(c *gin.Context) {
	userID, loanID, ok := userAndPathID(c, "id")
	if !ok {
		return
	}

	payments, err := h.loanService.GetPayments(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// UpdatePayment corrects a recorded repayment.
// @Summary     Update loan payment
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string               true "Loan ID"
// @Param       paymentId path string               true "Payment ID"
// @Param       request   body UpdatePaymentRequest true "Fields to change"
// @Success     200 {object} models.LoanPayment "Updated payment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan or payment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/payments/{paymentId} [put]
func (h *LoanHandler) UpdatePayment(c *gin.Context) {
	userID, loanID, paymentID, ok := loanAndPaymentIDs(c)
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.PaymentUpdate{Notes: req.Notes}
	var err error
	if update.Amount, err = parseOptionalAmount(req.Amount); err != nil {
		respondWithError(c, err)
		return
	}
	if update.Date, err = parseOptionalTime(req.Date); err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.loanService.UpdatePayment(userID, loanID, paymentID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_LOAN_PAYMENT", "loan_payment", payment.ID, c.ClientIP(),
		map[string]interface{}{"loan_id": loanID, "amount": payment.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// DeletePayment removes a repayment from a loan.
// @Summary     Delete loan payment
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string true "Loan ID"
// @Param       paymentId path string true "Payment ID"
// @Success     200 {object} MessageResponse "Payment deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan or payment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/payments/{paymentId} [delete]
func (h *LoanHandler) DeletePayment(c *gin.Context) {
	userID, loanID, paymentID, ok := loanAndPaymentIDs(c)
	if !ok {
		return
	}

	if err := h.loanService.DeletePayment(userID, loanID, paymentID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_LOAN_PAYMENT", "loan_payment", paymentID, c.ClientIP(),
		map[string]interface{}{"loan_id": loanID})

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}
