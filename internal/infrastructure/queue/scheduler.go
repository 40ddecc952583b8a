package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"voucher-backend/internal/config"
	"voucher-backend/internal/domains/voucher/job"
	"voucher-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       config.WorkerConfig
	entries   map[string]string
}

// NewScheduler builds an asynq scheduler. Cron specs are evaluated in loc.
func NewScheduler(redisOpt asynq.RedisConnOpt, cfg config.WorkerConfig, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		LogLevel: asynq.InfoLevel,
	})

	return &Scheduler{
		scheduler: scheduler,
		cfg:       cfg,
		entries:   make(map[string]string),
	}
}

func (s *Scheduler) RegisterVoucherJobs() error {
	return s.registerSweepExpiredJob()
}

// ================================================
// Sweep expired vouchers out of the cache (WORKER_SWEEP_CRON, hourly by default)
// ================================================
func (s *Scheduler) registerSweepExpiredJob() error {
	task, err := job.NewSweepExpiredTask(job.SweepExpiredPayload{RequestedBy: "scheduler"})
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(
		s.cfg.SweepCron,
		task,
		asynq.Queue(job.QueueVoucher),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register SweepExpiredVouchers job", err)
		return fmt.Errorf("register %s (%q): %w", job.TypeSweepExpiredVouchers, s.cfg.SweepCron, err)
	}

	s.entries[job.TypeSweepExpiredVouchers] = entryID
	logger.Info("Registered SweepExpiredVouchers", map[string]interface{}{
		"cron":     s.cfg.SweepCron,
		"entry_id": entryID,
	})
	return nil
}

// EntryID returns the scheduler entry of a registered task type.
func (s *Scheduler) EntryID(taskType string) (string, bool) {
	id, ok := s.entries[taskType]
	return id, ok
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
