package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hrflow/internal/actiontoken"
	"hrflow/internal/audit"
	"hrflow/internal/balance"
	"hrflow/internal/config"
	"hrflow/internal/leave"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/messaging/kafka/producer"
	"hrflow/internal/orgunit"
	"hrflow/internal/policy"
	"hrflow/internal/scheduler"
	"hrflow/internal/shared/clock"
	"hrflow/internal/shared/connection"
	"hrflow/internal/user"
	"hrflow/internal/wfh"
)

// RunWorker hosts the cron jobs and the outbox producer in one process.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	clk := clock.NewSystemClock()

	auditRepo := audit.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(sqlDB)
	leaveRepo := leave.NewRepository(gormDB, sqlDB)
	orgUnitRepo := orgunit.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	policyRepo := policy.NewRepository(gormDB)
	tokenRepo := actiontoken.NewRepository(sqlDB)
	userRepo := user.NewRepository(gormDB)
	wfhRepo := wfh.NewRepository(gormDB, sqlDB)

	recorder := audit.NewRecorder(auditRepo)
	ledger := balance.NewLedger(balanceRepo)
	policyService := policy.NewService(sqlDB, policyRepo, orgUnitRepo, userRepo, cfg)

	sched := scheduler.New(
		sqlDB, policyService, policyRepo, orgUnitRepo, userRepo,
		ledger, balanceRepo, leaveRepo, wfhRepo,
		tokenRepo, outboxRepo, recorder, clk, cfg,
	)
	if err := sched.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, 3*time.Second)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()
	sched.Stop()

	return nil
}
