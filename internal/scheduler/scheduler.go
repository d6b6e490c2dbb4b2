package scheduler

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hrflow/internal/actiontoken"
	"hrflow/internal/audit"
	"hrflow/internal/balance"
	"hrflow/internal/config"
	"hrflow/internal/leave"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/orgunit"
	"hrflow/internal/policy"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"
	"hrflow/internal/wfh"
)

// Scheduler hosts the background jobs of the leave lifecycle: accrual,
// anniversary resets, year-end carry-forward, the sick-document sweep,
// stale-request auto-rejection and token cleanup. Each tick opens its
// own transactions; a failing job is logged and audited but never takes
// the scheduler down with it.
type Scheduler struct {
	cron *cron.Cron

	db       *sql.DB
	policies policy.Service
	catalog  policy.Repository
	orgUnits orgunit.Repository
	users    user.Repository
	ledger   *balance.Ledger
	balances balance.Repository
	leaves   leave.Repository
	wfhs     wfh.Repository
	tokens   actiontoken.Repository
	outbox   kafka.OutboxRepository
	recorder audit.Recorder
	clk      clock.Clock
	cfg      config.Config
	logger   *zap.Logger
}

func New(
	db *sql.DB,
	policies policy.Service,
	catalog policy.Repository,
	orgUnits orgunit.Repository,
	users user.Repository,
	ledger *balance.Ledger,
	balances balance.Repository,
	leaves leave.Repository,
	wfhs wfh.Repository,
	tokens actiontoken.Repository,
	outbox kafka.OutboxRepository,
	recorder audit.Recorder,
	clk clock.Clock,
	cfg config.Config,
	logger ...*zap.Logger,
) *Scheduler {
	l := zap.L().Named("scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("scheduler")
	}
	return &Scheduler{
		cron:     cron.New(),
		db:       db,
		policies: policies,
		catalog:  catalog,
		orgUnits: orgUnits,
		users:    users,
		ledger:   ledger,
		balances: balances,
		leaves:   leaves,
		wfhs:     wfhs,
		tokens:   tokens,
		outbox:   outbox,
		recorder: recorder,
		clk:      clk,
		cfg:      cfg,
		logger:   l,
	}
}

// Start registers the job table and begins ticking. Times are server
// local; deployments pin the host to UTC.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		fn   func(ctx context.Context) error
	}{
		{"monthly_accrual", "0 0 1 * *", s.RunMonthlyAccrual},
		{"quarterly_accrual", "0 0 1 1,4,7,10 *", s.RunQuarterlyAccrual},
		{"yearly_accrual", "0 0 1 1 *", s.RunYearlyAccrual},
		{"anniversary_reset", "0 0 * * *", s.RunAnniversaryReset},
		{"carry_forward", "0 0 31 12 *", s.RunCarryForward},
		{"sick_doc_sweep", "0 * * * *", s.RunSickDocSweep},
		{"stale_auto_reject", "0 0 * * *", s.RunStaleAutoReject},
		{"token_cleanup", "30 0 * * *", s.RunTokenCleanup},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.fn)); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(jobs)))
	return nil
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) wrap(name string, fn func(ctx context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job panicked", zap.String("job", name), zap.Any("panic", r))
				s.recorder.Record(context.Background(), nil, audit.ActionJobFailed, "scheduler_job", nil, map[string]any{
					"job": name, "panic": true,
				})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		started := s.clk.Now()
		if err := fn(ctx); err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
			s.recorder.Record(ctx, nil, audit.ActionJobFailed, "scheduler_job", nil, map[string]any{
				"job": name, "error": err.Error(),
			})
			return
		}
		s.logger.Info("job finished",
			zap.String("job", name),
			zap.Duration("took", s.clk.Now().Sub(started)),
		)
	}
}
