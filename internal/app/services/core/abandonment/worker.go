package abandonment

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/pkg/constvars"
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Worker periodically abandons flows with no activity past the configured
// window. The leader lock keeps one instance sweeping at a time; losing the
// lock is harmless because the sweep itself is guarded by optimistic
// versioning.
type Worker struct {
	log         *zap.Logger
	flowUsecase contracts.FlowUsecase
	locker      contracts.LockerService
	inactiveFor time.Duration
	cronSpec    string
	lockTTL     time.Duration
	cron        *cron.Cron
	runCtx      context.Context
	cancel      context.CancelFunc
}

func NewWorker(logger *zap.Logger, flowUsecase contracts.FlowUsecase, locker contracts.LockerService, inactiveFor time.Duration, cronSpec string, lockTTL time.Duration) *Worker {
	return &Worker{
		log:         logger,
		flowUsecase: flowUsecase,
		locker:      locker,
		inactiveFor: inactiveFor,
		cronSpec:    cronSpec,
		lockTTL:     lockTTL,
	}
}

// Start schedules the sweep. An invalid cron spec falls back to hourly
// instead of disabling abandonment entirely.
func (w *Worker) Start(ctx context.Context) {
	w.runCtx, w.cancel = context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(w.cronSpec, func() { w.runOnce(w.runCtx) }); err != nil {
		w.log.Warn("abandonment.worker: invalid cron spec, falling back to @hourly",
			zap.String("cron_spec", w.cronSpec),
			zap.Error(err),
		)
		c = cron.New()
		_, _ = c.AddFunc("@hourly", func() { w.runOnce(w.runCtx) })
	}
	c.Start()
	w.cron = c
}

// Stop cancels in-flight sweeps and waits for running jobs to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	acquired, token, err := w.locker.TryLock(ctx, constvars.RedisKeyAbandonmentLeader, w.lockTTL)
	if err != nil {
		w.log.Warn("abandonment.worker: leader lock attempt failed", zap.Error(err))
		return
	}
	if !acquired {
		w.log.Debug("abandonment.worker: another instance holds the leader lock")
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, constvars.RedisKeyAbandonmentLeader, token); err != nil {
			w.log.Warn("abandonment.worker: releasing leader lock failed", zap.Error(err))
		}
	}()

	abandoned, err := w.flowUsecase.AbandonInactiveFlows(ctx, w.inactiveFor)
	if err != nil {
		w.log.Error("abandonment.worker: sweep failed", zap.Error(err))
		return
	}
	if abandoned > 0 {
		w.log.Info("abandonment.worker: sweep abandoned inactive flows",
			zap.Int(constvars.LoggingResponseCountKey, abandoned),
		)
	}
}
