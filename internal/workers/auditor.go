package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/storage"
)

const auditTimeout = 30 * time.Second

// Auditor periodically recomputes every user's ledger sums and reports
// any divergence from the materialized balance or lifetime totals. A
// mismatch means the commit path was bypassed somewhere; the auditor
// only ever reads.
type Auditor struct {
	store *storage.Store
	cron  *cron.Cron
}

func StartAuditor(store *storage.Store, schedule string) (*Auditor, error) {
	a := &Auditor{
		store: store,
		cron:  cron.New(),
	}

	if _, err := a.cron.AddFunc(schedule, a.run); err != nil {
		return nil, err
	}
	a.cron.Start()

	logger.Log.Info("Ledger reconciliation auditor started", zap.String("schedule", schedule))
	return a, nil
}

func (a *Auditor) Stop() {
	ctx := a.cron.Stop()
	<-ctx.Done()
	logger.Log.Info("Ledger reconciliation auditor stopped")
}

func (a *Auditor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	mismatches, err := a.store.ReconciliationReport(ctx)
	if err != nil {
		logger.Log.Error("Reconciliation check failed", zap.Error(err))
		return
	}

	if len(mismatches) == 0 {
		logger.Log.Debug("Ledger reconciliation clean")
		return
	}

	for _, m := range mismatches {
		logger.Log.Error("Ledger divergence detected",
			zap.String("user_id", m.UserID.String()),
			zap.Int64("balance", m.Balance),
			zap.Int64("ledger_balance", m.LedgerBalance),
			zap.Int64("lifetime_points", m.Lifetime),
			zap.Int64("ledger_lifetime", m.LedgerLifetime),
		)
	}
}
