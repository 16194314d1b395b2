package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/chisomo/villagebank/internal/config"
	"github.com/chisomo/villagebank/internal/handler"
	"github.com/chisomo/villagebank/internal/logger"
	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/repository"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg)

	db, err := initDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Repositories are stateless; the pool or transaction is passed per call.
	userRepo := repository.NewUserRepository()
	loanRepo := repository.NewLoanRepository()
	savingRepo := repository.NewSavingRepository()
	fineRepo := repository.NewFineRepository()
	txnRepo := repository.NewTransactionRepository()
	balanceRepo := repository.NewBalanceRepository()
	thresholdRepo := repository.NewThresholdRepository()
	atomic := repository.NewAtomic(db)

	ledger := service.NewLedger(balanceRepo, txnRepo, redisClient)
	loanService := service.NewLoanService(db, atomic, userRepo, loanRepo, ledger)
	paymentService := service.NewPaymentService(db, atomic, userRepo, loanRepo, fineRepo, ledger)
	savingsService := service.NewSavingsService(db, atomic, userRepo, savingRepo, ledger)
	reportService := service.NewReportService(db, userRepo, loanRepo, savingRepo, fineRepo, txnRepo, balanceRepo)
	cycleService := service.NewCycleService(db, atomic, loanRepo, savingRepo, fineRepo, txnRepo, balanceRepo, reportService, redisClient)
	thresholdService := service.NewThresholdService(db, userRepo, loanRepo, thresholdRepo)
	balanceService := service.NewBalanceService(db, atomic, balanceRepo, txnRepo, redisClient)

	loanHandler := handler.NewLoanHandler(loanService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	savingsHandler := handler.NewSavingsHandler(savingsService)
	cycleHandler := handler.NewCycleHandler(cycleService)
	reportHandler := handler.NewReportHandler(reportService)
	thresholdHandler := handler.NewThresholdHandler(thresholdService)
	balanceHandler := handler.NewBalanceHandler(balanceService)
	healthHandler := handler.NewHealthHandler(db, redisClient)
	auth := middleware.NewAuth(cfg.Auth.JWTSecret)

	router := setupRoutes(
		auth,
		loanHandler,
		paymentHandler,
		savingsHandler,
		cycleHandler,
		reportHandler,
		thresholdHandler,
		balanceHandler,
		healthHandler,
	)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		logrus.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	auth *middleware.Auth,
	loanHandler *handler.LoanHandler,
	paymentHandler *handler.PaymentHandler,
	savingsHandler *handler.SavingsHandler,
	cycleHandler *handler.CycleHandler,
	reportHandler *handler.ReportHandler,
	thresholdHandler *handler.ThresholdHandler,
	balanceHandler *handler.BalanceHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware, response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes, all behind token auth. Role checks live in the services.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Require)

	api.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", loanHandler.ListLoans).Methods("GET")
	api.HandleFunc("/loans/repay", loanHandler.RepayInstallment).Methods("PUT")
	api.HandleFunc("/loans/user/{userId}", loanHandler.GetUserLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.UpdateLoan).Methods("PUT")
	api.HandleFunc("/loans/{loanId}/reverse/{month}", loanHandler.ReverseInstallment).Methods("POST")

	api.HandleFunc("/payments/repayment", paymentHandler.AllocateRepayment).Methods("POST")
	api.HandleFunc("/payments/payment", paymentHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/payments/payout", paymentHandler.Payout).Methods("POST")
	api.HandleFunc("/payments/fine", paymentHandler.IssueFine).Methods("POST")
	api.HandleFunc("/payments/pay-fine", paymentHandler.PayFine).Methods("POST")
	api.HandleFunc("/payments/unpaid-fines", paymentHandler.ListUnpaidFines).Methods("GET")
	api.HandleFunc("/payments/fines", paymentHandler.DeleteAllFines).Methods("DELETE")

	api.HandleFunc("/savings", savingsHandler.CreateSaving).Methods("POST")
	api.HandleFunc("/savings/user/{userId}", savingsHandler.GetUserSavings).Methods("GET")

	api.HandleFunc("/balance", balanceHandler.GetBalance).Methods("GET")
	api.HandleFunc("/balance", balanceHandler.SetBalance).Methods("PUT")
	api.HandleFunc("/transactions", balanceHandler.ListTransactions).Methods("GET")
	api.HandleFunc("/transactions/user/{userId}", balanceHandler.ListUserTransactions).Methods("GET")

	api.HandleFunc("/cycle/begin", cycleHandler.BeginNewCycle).Methods("POST")
	api.HandleFunc("/cycle/current", cycleHandler.CurrentCycle).Methods("GET")

	api.HandleFunc("/reports", reportHandler.GetReport).Methods("GET")

	api.HandleFunc("/thresholds", thresholdHandler.CreateThreshold).Methods("POST")
	api.HandleFunc("/thresholds/latest", thresholdHandler.LatestThreshold).Methods("GET")
	api.HandleFunc("/thresholds/defaulters", thresholdHandler.Defaulters).Methods("GET")

	return router
}
