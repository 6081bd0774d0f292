// Package server assembles the services, handlers and middleware into the
// HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"budgetwise/internal/config"
	"budgetwise/internal/delivery"
	_ "budgetwise/internal/docs" // swagger spec registration
	"budgetwise/internal/handlers"
	"budgetwise/internal/middleware"
	"budgetwise/internal/services"
	"budgetwise/internal/validator"
)

// Services bundles the business services behind the API.
type Services struct {
	Users         services.UserServicer
	Categories    services.CategoryServicer
	Transactions  services.TransactionServicer
	Budgets       services.BudgetServicer
	Alerts        services.AlertServicer
	Goals         services.GoalServicer
	Notifications services.NotificationServicer
	Loans         services.LoanServicer
	Audit         services.AuditServicer
}

// NewServices wires every service onto db. Notifications go out through dispatcher.
func NewServices(db *gorm.DB, dispatcher delivery.Dispatcher) *Services {
	alerts := services.NewAlertService(db)
	budgets := services.NewBudgetService(db, alerts)
	notifications := services.NewNotificationService(db, dispatcher)

	return &Services{
		Users:         services.NewUserService(db),
		Categories:    services.NewCategoryService(db),
		Transactions:  services.NewTransactionService(db, budgets),
		Budgets:       budgets,
		Alerts:        alerts,
		Goals:         services.NewGoalService(db, budgets, notifications),
		Notifications: notifications,
		Loans:         services.NewLoanService(db),
		Audit:         services.NewAuditService(db),
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg *config.Config, svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	alertHandler := handlers.NewAlertHandler(svc.Alerts, svc.Audit)
	goalHandler := handlers.NewGoalHandler(svc.Goals, svc.Audit)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Audit)
	loanHandler := handlers.NewLoanHandler(svc.Loans, svc.Audit)
	internalHandler := handlers.NewInternalHandler(svc.Notifications)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRoute())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.POST("/profile/password", authHandler.ChangePassword)
	protected.GET("/dashboard", budgetHandler.GetDashboard)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/current", budgetHandler.GetCurrentBudget)
	budgets.GET("/summary", budgetHandler.GetSummary)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.POST("/:id/recalculate", budgetHandler.RecalculateBudget)
	budgets.POST("/:id/categories", budgetHandler.AddCategoryBudget)

	categoryBudgets := protected.Group("/category-budgets")
	categoryBudgets.PUT("/:id", budgetHandler.UpdateCategoryBudget)
	categoryBudgets.DELETE("/:id", budgetHandler.DeleteCategoryBudget)

	alerts := protected.Group("/alerts")
	alerts.GET("", alertHandler.GetAlerts)
	alerts.POST("/:id/dismiss", alertHandler.DismissAlert)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/complete", goalHandler.CompleteGoal)
	goals.POST("/:id/deposit", goalHandler.Deposit)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.GET("/recent", notificationHandler.GetRecent)
	notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.GET("/preferences", notificationHandler.GetPreferences)
	notifications.PUT("/preferences", notificationHandler.UpdatePreferences)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	loans := protected.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/summary", loanHandler.GetSummary)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.PUT("/:id", loanHandler.UpdateLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.POST("/:id/payments", loanHandler.AddPayment)
	loans.GET("/:id/payments", loanHandler.GetPayments)
	loans.PUT("/:id/payments/:paymentId", loanHandler.UpdatePayment)
	loans.DELETE("/:id/payments/:paymentId", loanHandler.DeletePayment)

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.InternalAPIKey))
	internal.POST("/notifications/check", internalHandler.CheckGoals)

	return router
}

// WithCORS wraps the router so browsers from the configured origins may call it.
func WithCORS(cfg *config.Config, next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}
