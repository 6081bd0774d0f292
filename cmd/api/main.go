package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetwise/internal/config"
	"budgetwise/internal/database"
	"budgetwise/internal/logger"
	"budgetwise/internal/scheduler"
	"budgetwise/internal/server"
)

// @title           BudgetWise API
// @version         1.0
// @description     BudgetWise tracks income and expenses against monthly budgets, saving goals and loans, and notifies users about budget thresholds and goal progress.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

const shutdownTimeout = 15 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	dispatcher, closeDispatcher, err := server.NewDispatcher(appConfig)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	svc := server.NewServices(dbManager.DB(), dispatcher)
	router := server.NewRouter(appConfig, svc)

	var sched *scheduler.Scheduler
	if appConfig.NotificationCron != "" {
		sched, err = scheduler.New(appConfig.NotificationCron, svc.Notifications, appConfig.GoalCheckTimeout)
		if err != nil {
			return err
		}
	} else {
		log.Info("In-process notification schedule disabled; use the internal endpoint or budgetctl check-goals")
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           server.WithCORS(appConfig, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting BudgetWise server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	return g.Wait()
}
