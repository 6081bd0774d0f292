package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn   func(userID string, categoryID *string, txType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error)
	getUserTransactionsFn func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn  func(userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn   func(userID, transactionID string, update services.TransactionUpdate) (*models.Transaction, error)
	deleteTransactionFn   func(userID, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(userID string, categoryID *string, txType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, categoryID, txType, amount, description, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID string, update services.TransactionUpdate) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, update)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/transactions/:id", handler.GetTransactionByID)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 and parses amount and date", func(t *testing.T) {
		var gotAmount decimal.Decimal
		var gotDate time.Time
		var gotCategory *string
		txSvc := &mockTransactionService{
			createTransactionFn: func(_ string, categoryID *string, txType models.TransactionType, amount decimal.Decimal, desc string, date time.Time) (*models.Transaction, error) {
				gotAmount, gotDate, gotCategory = amount, date, categoryID
				return &models.Transaction{Base: models.Base{ID: testID}, Type: txType, Amount: amount, Description: desc, Date: date}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, audit))

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":"45.50","description":"Groceries","date":"2024-05-03","category_id":"`+testID+`"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotAmount.Equal(decimal.RequireFromString("45.50")) {
			t.Errorf("expected amount 45.50, got %s", gotAmount)
		}
		if !gotDate.Equal(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", gotDate)
		}
		if gotCategory == nil || *gotCategory != testID {
			t.Errorf("unexpected category %v", gotCategory)
		}
		tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if tx["amount"] != "45.5" {
			t.Errorf("expected amount string 45.5, got %v", tx["amount"])
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_TRANSACTION" {
			t.Errorf("expected CREATE_TRANSACTION audit entry, got %v", got)
		}
	})

	t.Run("omitted date is passed as zero", func(t *testing.T) {
		var gotDate time.Time
		txSvc := &mockTransactionService{
			createTransactionFn: func(_ string, _ *string, _ models.TransactionType, _ decimal.Decimal, _ string, date time.Time) (*models.Transaction, error) {
				gotDate = date
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions", `{"type":"income","amount":"3000"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotDate.IsZero() {
			t.Errorf("expected zero date, got %v", gotDate)
		}
	})

	for name, body := range map[string]string{
		"zero amount":       `{"type":"expense","amount":"0"}`,
		"negative amount":   `{"type":"expense","amount":"-10"}`,
		"three decimals":    `{"type":"expense","amount":"1.234"}`,
		"numeric amount":    `{"type":"expense","amount":12}`,
		"unsupported type":  `{"type":"transfer","amount":"10"}`,
		"bad category id":   `{"type":"expense","amount":"10","category_id":"7"}`,
		"unparseable date":  `{"type":"expense","amount":"10","date":"03/05/2024"}`,
		"missing amount":    `{"type":"expense"}`,
		"malformed payload": `{"type":`,
	} {
		t.Run("returns 400 on "+name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/transactions", body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("returns 404 for a foreign category", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(string, *string, models.TransactionType, decimal.Decimal, string, time.Time) (*models.Transaction, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense","amount":"10","category_id":"`+testID+`"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.TransactionFilter
		txSvc := &mockTransactionService{
			getUserTransactionsFn: func(_ string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "GET",
			"/transactions?type=expense&from_date=2024-05-01&to_date=2024-05-31T23:59:59Z&category_id="+testID+"&min_amount=10&max_amount=99.99", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Type == nil || *got.Type != models.TransactionTypeExpense {
			t.Errorf("unexpected type filter %v", got.Type)
		}
		if got.FromDate == nil || !got.FromDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected from_date %v", got.FromDate)
		}
		if got.ToDate == nil || got.ToDate.Day() != 31 {
			t.Errorf("unexpected to_date %v", got.ToDate)
		}
		if got.CategoryID == nil || *got.CategoryID != testID {
			t.Errorf("unexpected category filter %v", got.CategoryID)
		}
		if got.MaxAmount == nil || got.MaxAmount.String() != "99.99" {
			t.Errorf("unexpected max_amount %v", got.MaxAmount)
		}
	})

	for name, query := range map[string]string{
		"type":        "type=transfer",
		"from_date":   "from_date=yesterday",
		"category_id": "category_id=12",
		"min_amount":  "min_amount=abc",
	} {
		t.Run("returns 400 on invalid "+name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

			rec := doRequest(r, "GET", "/transactions?"+query, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestTransactionHandler_GetTransactionByID(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getTransactionByIDFn: func(_, _ string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions/"+testID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		var got services.TransactionUpdate
		txSvc := &mockTransactionService{
			updateTransactionFn: func(_, id string, update services.TransactionUpdate) (*models.Transaction, error) {
				got = update
				return &models.Transaction{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testID, `{"amount":"250.25","date":"2024-04-30"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Amount == nil || got.Amount.String() != "250.25" {
			t.Errorf("unexpected amount %v", got.Amount)
		}
		if got.Date == nil || got.Date.Month() != time.April {
			t.Errorf("unexpected date %v", got.Date)
		}
		if got.Type != nil || got.CategoryID != nil || got.Description != nil {
			t.Errorf("expected omitted fields to stay nil: %+v", got)
		}
	})

	t.Run("returns 400 on invalid amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testID, `{"amount":"0"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var deleted string
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(_, id string) error {
				deleted = id
				return nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/transactions/"+testID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != testID {
			t.Errorf("expected %s deleted, got %s", testID, deleted)
		}
	})
}
