package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/config"
	"budgetwise/internal/delivery"
	"budgetwise/internal/testutil"
)

const testAPIKey = "internal-test-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func setupApp(t *testing.T, apiKey string) *testApp {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:          "server-test-secret",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		InternalAPIKey:     apiKey,
	}
	config.Set(cfg)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	router := NewRouter(cfg, NewServices(db, delivery.Nop{}))
	return &testApp{t: t, handler: WithCORS(cfg, router)}
}

func (a *testApp) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// must performs a request and decodes the JSON body, failing unless the status matches.
func (a *testApp) must(status int, method, path, body string) map[string]interface{} {
	a.t.Helper()
	rec := a.do(method, path, body)
	require.Equal(a.t, status, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	var out map[string]interface{}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (a *testApp) register(email string) {
	a.t.Helper()
	body := a.must(http.StatusCreated, "POST", "/api/v1/auth/register",
		`{"email":"`+email+`","password":"password123","first_name":"Ana"}`)
	a.token = body["access_token"].(string)
	require.NotEmpty(a.t, a.token)
}

func field(m map[string]interface{}, key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	return v
}

func TestHealth(t *testing.T) {
	app := setupApp(t, "")

	body := app.must(http.StatusOK, "GET", "/api/health", "")

	assert.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	app := setupApp(t, "")

	rec := app.do("OPTIONS", "/api/v1/budgets", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST",
	)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t, "")

	rec := app.do("GET", "/api/v1/budgets/summary", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBudgetFlow(t *testing.T) {
	app := setupApp(t, "")
	app.register("budget@example.com")

	food := field(app.must(http.StatusCreated, "POST", "/api/v1/categories",
		`{"name":"Food","type":"expense"}`), "category")
	foodID := food["id"].(string)

	budget := field(app.must(http.StatusCreated, "POST", "/api/v1/budgets", `{"total_budget":"1000.00"}`), "budget")
	budgetID := budget["id"].(string)
	assert.Equal(t, "0", budget["spent_so_far"])

	app.must(http.StatusConflict, "POST", "/api/v1/budgets", `{"total_budget":"500"}`)

	cb := field(app.must(http.StatusCreated, "POST", "/api/v1/budgets/"+budgetID+"/categories",
		`{"category_id":"`+foodID+`","limit":"200","alert_threshold_percent":80}`), "category_budget")
	assert.Equal(t, "healthy", cb["status"])

	app.must(http.StatusCreated, "POST", "/api/v1/transactions",
		`{"type":"expense","amount":"170.00","category_id":"`+foodID+`","description":"Groceries"}`)

	current := field(app.must(http.StatusOK, "GET", "/api/v1/budgets/current", ""), "budget")
	assert.Equal(t, "170", current["spent_so_far"])
	assert.Equal(t, "830", current["remaining"])

	summary := app.must(http.StatusOK, "GET", "/api/v1/budgets/summary", "")
	assert.Equal(t, float64(0), summary["exceeded_categories"])
	assert.Equal(t, float64(1), summary["near_limit_categories"])
	alerts, _ := summary["active_alerts"].([]interface{})
	require.Len(t, alerts, 1)
	alertID := alerts[0].(map[string]interface{})["id"].(string)

	// Recalculating again the same day must not duplicate the alert.
	app.must(http.StatusOK, "POST", "/api/v1/budgets/"+budgetID+"/recalculate", "")
	list := app.must(http.StatusOK, "GET", "/api/v1/alerts?active=true", "")
	assert.Equal(t, float64(1), list["total_items"])

	app.must(http.StatusOK, "POST", "/api/v1/alerts/"+alertID+"/dismiss", "")
	list = app.must(http.StatusOK, "GET", "/api/v1/alerts?active=true", "")
	assert.Equal(t, float64(0), list["total_items"])

	// A category with a budget cannot be deleted.
	app.must(http.StatusConflict, "DELETE", "/api/v1/categories/"+foodID, "")

	dashboard := app.must(http.StatusOK, "GET", "/api/v1/dashboard", "")
	assert.Equal(t, "170", dashboard["total_expense"])
	evolution, _ := dashboard["evolution"].([]interface{})
	assert.Len(t, evolution, 6)
}

// The router must install the custom binding tags itself; nothing else in
// this package registers them.
func TestRouterBindsCustomTags(t *testing.T) {
	app := setupApp(t, "")
	app.register("tags@example.com")

	rec := app.do("POST", "/api/v1/transactions", `{"type":"expense","amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")

	rec = app.do("POST", "/api/v1/transactions", `{"type":"transfer","amount":"10"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = app.do("POST", "/api/v1/categories", `{"name":"Fun","type":"expense","color":"red"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	tx := field(app.must(http.StatusCreated, "POST", "/api/v1/transactions",
		`{"type":"income","amount":"450.00","date":"2024-05-01"}`), "transaction")
	assert.Equal(t, "450", tx["amount"])
}

func TestFoodAlertScenario(t *testing.T) {
	app := setupApp(t, "")
	app.register("food@example.com")

	foodID := field(app.must(http.StatusCreated, "POST", "/api/v1/categories",
		`{"name":"Food","type":"expense","color":"#00aa00"}`), "category")["id"].(string)
	budgetID := field(app.must(http.StatusCreated, "POST", "/api/v1/budgets",
		`{"total_budget":"2000"}`), "budget")["id"].(string)
	app.must(http.StatusCreated, "POST", "/api/v1/budgets/"+budgetID+"/categories",
		`{"category_id":"`+foodID+`","limit":"500","alert_threshold_percent":80}`)

	app.must(http.StatusCreated, "POST", "/api/v1/transactions",
		`{"type":"expense","amount":"450","category_id":"`+foodID+`"}`)

	alerts := app.must(http.StatusOK, "GET", "/api/v1/alerts?active=true", "")
	require.Equal(t, float64(1), alerts["total_items"])
	first := alerts["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "category_warning", first["kind"])
	assert.Contains(t, first["message"], "90.0%")

	app.must(http.StatusCreated, "POST", "/api/v1/transactions",
		`{"type":"expense","amount":"100","category_id":"`+foodID+`"}`)

	summary := app.must(http.StatusOK, "GET", "/api/v1/budgets/summary", "")
	assert.Equal(t, float64(1), summary["exceeded_categories"])
	alerts = app.must(http.StatusOK, "GET", "/api/v1/alerts?active=true", "")
	assert.Equal(t, float64(1), alerts["total_items"])
}

func TestSummaryWithoutBudget(t *testing.T) {
	app := setupApp(t, "")
	app.register("nobudget@example.com")

	rec := app.do("GET", "/api/v1/budgets/summary?year=2020&month=1", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "BUDGET_NOT_FOUND")
}

func TestGoalDepositFlow(t *testing.T) {
	app := setupApp(t, "")
	app.register("goals@example.com")

	// Reading the preferences creates the defaults, which enables goal notifications.
	app.must(http.StatusOK, "GET", "/api/v1/notifications/preferences", "")

	budget := field(app.must(http.StatusCreated, "POST", "/api/v1/budgets", `{"total_budget":"1000"}`), "budget")

	goal := field(app.must(http.StatusCreated, "POST", "/api/v1/goals",
		`{"name":"Vacation","target_amount":"300"}`), "goal")
	goalID := goal["id"].(string)

	deposit := app.must(http.StatusOK, "POST", "/api/v1/goals/"+goalID+"/deposit", `{"amount":"200.00"}`)
	assert.Equal(t, "Added 200.00 to Vacation", deposit["message"])
	assert.Equal(t, "200", field(deposit, "goal")["current_amount"])
	assert.Equal(t, false, field(deposit, "goal")["completed"])

	// The deposit is booked as a Savings expense and counted against the budget.
	txs := app.must(http.StatusOK, "GET", "/api/v1/transactions?type=expense", "")
	assert.Equal(t, float64(1), txs["total_items"])
	refreshed := field(app.must(http.StatusOK, "GET", "/api/v1/budgets/"+budget["id"].(string), ""), "budget")
	assert.Equal(t, "200", refreshed["spent_so_far"])

	rec := app.do("POST", "/api/v1/goals/"+goalID+"/deposit", `{"amount":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	deposit = app.must(http.StatusOK, "POST", "/api/v1/goals/"+goalID+"/deposit", `{"amount":"150"}`)
	assert.Equal(t, true, field(deposit, "goal")["completed"])

	count := app.must(http.StatusOK, "GET", "/api/v1/notifications/unread-count", "")
	assert.Equal(t, float64(1), count["unread_count"])
	recent := app.must(http.StatusOK, "GET", "/api/v1/notifications/recent", "")
	items, _ := recent["notifications"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "goal_completed", items[0].(map[string]interface{})["type"])

	read := app.must(http.StatusOK, "POST", "/api/v1/notifications/read-all", "")
	assert.Equal(t, float64(1), read["updated"])
}

func TestGoalsAreScopedToOwner(t *testing.T) {
	app := setupApp(t, "")
	app.register("owner@example.com")
	goal := field(app.must(http.StatusCreated, "POST", "/api/v1/goals",
		`{"name":"Car","target_amount":"5000"}`), "goal")

	app.register("other@example.com")
	rec := app.do("POST", "/api/v1/goals/"+goal["id"].(string)+"/deposit", `{"amount":"10"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "GOAL_NOT_FOUND")
}

func TestLoanFlow(t *testing.T) {
	app := setupApp(t, "")
	app.register("loans@example.com")

	loan := field(app.must(http.StatusCreated, "POST", "/api/v1/loans",
		`{"name":"Laptop","amount":"1200","installments":3}`), "loan")
	loanID := loan["id"].(string)

	app.must(http.StatusCreated, "POST", "/api/v1/loans/"+loanID+"/payments", `{"amount":"400"}`)
	app.must(http.StatusCreated, "POST", "/api/v1/loans/"+loanID+"/payments", `{"amount":"400","date":"2024-02-01"}`)

	got := field(app.must(http.StatusOK, "GET", "/api/v1/loans/"+loanID, ""), "loan")
	assert.Equal(t, "800", got["total_paid"])
	assert.Equal(t, float64(2), got["paid_installments"])
	assert.Equal(t, false, got["completed"])

	summary := app.must(http.StatusOK, "GET", "/api/v1/loans/summary", "")
	assert.Equal(t, float64(1), summary["active_loans"])
	assert.Equal(t, "400", summary["remaining_debt"])
}

func TestLoanCorrectionFlow(t *testing.T) {
	app := setupApp(t, "")
	app.register("corrections@example.com")

	loan := field(app.must(http.StatusCreated, "POST", "/api/v1/loans",
		`{"name":"Phone","amount":"900","installments":3}`), "loan")
	loanID := loan["id"].(string)
	payment := field(app.must(http.StatusCreated, "POST", "/api/v1/loans/"+loanID+"/payments", `{"amount":"300"}`), "payment")
	paymentPath := "/api/v1/loans/" + loanID + "/payments/" + payment["id"].(string)

	updated := field(app.must(http.StatusOK, "PUT", "/api/v1/loans/"+loanID, `{"amount":"600"}`), "loan")
	assert.Equal(t, "200", updated["installment_amount"])
	assert.Equal(t, "300", updated["remaining_amount"])

	corrected := field(app.must(http.StatusOK, "PUT", paymentPath, `{"amount":"200","notes":"typo"}`), "payment")
	assert.Equal(t, "200", corrected["amount"])
	assert.Equal(t, "typo", corrected["notes"])

	// Another user cannot see the loan, so its payments are out of reach too.
	app.register("intruder@example.com")
	rec := app.do("DELETE", paymentPath, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "LOAN_NOT_FOUND")
}

func TestProfileAndPasswordFlow(t *testing.T) {
	app := setupApp(t, "")
	registered := app.must(http.StatusCreated, "POST", "/api/v1/auth/register",
		`{"email":"profile@example.com","password":"password123","first_name":"Ana"}`)
	app.token = registered["access_token"].(string)
	oldRefresh := registered["refresh_token"].(string)

	user := field(app.must(http.StatusOK, "PUT", "/api/v1/profile", `{"last_name":" Lopez "}`), "user")
	assert.Equal(t, "Ana", user["first_name"])
	assert.Equal(t, "Lopez", user["last_name"])

	rec := app.do("POST", "/api/v1/profile/password", `{"current_password":"wrong-password","new_password":"newpassword1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PASSWORD")

	changed := app.must(http.StatusOK, "POST", "/api/v1/profile/password",
		`{"current_password":"password123","new_password":"newpassword1"}`)
	assert.NotEmpty(t, changed["refresh_token"])

	rec = app.do("POST", "/api/v1/auth/refresh", `{"refresh_token":"`+oldRefresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do("POST", "/api/v1/auth/login", `{"email":"profile@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	app.must(http.StatusOK, "POST", "/api/v1/auth/login", `{"email":"profile@example.com","password":"newpassword1"}`)
}

func TestInternalCheckEndpoint(t *testing.T) {
	t.Run("disabled without a configured key", func(t *testing.T) {
		app := setupApp(t, "")

		rec := app.do("POST", "/internal/notifications/check", "", "X-API-Key", "anything")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("rejects a wrong key", func(t *testing.T) {
		app := setupApp(t, testAPIKey)

		rec := app.do("POST", "/internal/notifications/check", "", "X-API-Key", "wrong")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("runs the check", func(t *testing.T) {
		app := setupApp(t, testAPIKey)
		app.register("check@example.com")
		app.must(http.StatusOK, "GET", "/api/v1/notifications/preferences", "")
		app.must(http.StatusCreated, "POST", "/api/v1/goals",
			`{"name":"Trip","target_amount":"1000","current_amount":"300","deadline":"2030-01-10"}`)
		app.token = ""

		rec := app.do("POST", "/internal/notifications/check?date=2030-01-05", "", "X-API-Key", testAPIKey)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var report map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, float64(1), report["goals_checked"])
		emitted := report["emitted"].(map[string]interface{})
		assert.Equal(t, float64(1), emitted["goal_deadline"])
		assert.Equal(t, float64(1), emitted["milestone_reached"])
	})
}
