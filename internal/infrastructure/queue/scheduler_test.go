package queue

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voucher-backend/internal/config"
	"voucher-backend/internal/domains/voucher/job"
)

// Registration only parses the cron spec; no Redis connection is made.
func TestScheduler_RegisterVoucherJobs(t *testing.T) {
	s := NewScheduler(asynq.RedisClientOpt{Addr: "localhost:6379"}, config.WorkerConfig{SweepCron: "@hourly"}, nil)

	require.NoError(t, s.RegisterVoucherJobs())

	id, ok := s.EntryID(job.TypeSweepExpiredVouchers)
	assert.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestScheduler_RejectsInvalidCron(t *testing.T) {
	s := NewScheduler(asynq.RedisClientOpt{Addr: "localhost:6379"}, config.WorkerConfig{SweepCron: "every now and then"}, nil)

	err := s.RegisterVoucherJobs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), job.TypeSweepExpiredVouchers)

	_, ok := s.EntryID(job.TypeSweepExpiredVouchers)
	assert.False(t, ok)
}
