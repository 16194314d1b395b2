package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/chisomo/villagebank/internal/config"
	"github.com/chisomo/villagebank/internal/logger"
	"github.com/chisomo/villagebank/internal/repository"
	"github.com/chisomo/villagebank/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg)
	logrus.Info("Starting balance reconciler...")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	balanceRepo := repository.NewBalanceRepository()
	txnRepo := repository.NewTransactionRepository()
	atomic := repository.NewAtomic(db)
	// The reconciler never writes, so it skips the cache entirely.
	balanceService := service.NewBalanceService(db, atomic, balanceRepo, txnRepo, nil)

	location, err := time.LoadLocation(cfg.Reconciler.Timezone)
	if err != nil {
		logrus.Fatalf("Invalid reconciler timezone %q: %v", cfg.Reconciler.Timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))
	_, err = c.AddFunc(cfg.Reconciler.CronSpec, func() {
		runAudit(balanceService)
	})
	if err != nil {
		logrus.Fatalf("Failed to schedule balance audit: %v", err)
	}

	c.Start()
	logrus.Infof("Reconciler started, schedule %q (%s)", cfg.Reconciler.CronSpec, cfg.Reconciler.Timezone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down reconciler...")
	c.Stop()
	logrus.Info("Reconciler stopped")
}

// runAudit compares the stored bank balance against the signed sum of the
// live ledger and reports any drift. The balance is never corrected
// automatically; an admin resolves drift through the balance endpoint.
func runAudit(balances *service.BalanceService) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stored, ledgerSum, drift, err := balances.Reconcile(ctx)
	if err != nil {
		logrus.WithError(err).Error("Balance audit failed")
		return
	}

	entry := logrus.WithFields(logrus.Fields{
		"stored_balance": stored.String(),
		"ledger_sum":     ledgerSum.String(),
		"drift":          drift.String(),
	})
	if drift.IsZero() {
		entry.Info("Balance audit passed")
		return
	}
	entry.Warn("Balance audit found drift between stored balance and ledger")
}
