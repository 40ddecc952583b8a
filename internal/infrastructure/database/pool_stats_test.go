package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolStats_Warnings(t *testing.T) {
	tests := []struct {
		name  string
		stats PoolStats
		want  int
	}{
		{name: "idle pool", stats: PoolStats{MaxConns: 25}, want: 0},
		{name: "busy but healthy", stats: PoolStats{MaxConns: 10, AcquiredConns: 8, AcquireCount: 100, AcquireDuration: time.Second}, want: 0},
		{name: "saturated", stats: PoolStats{MaxConns: 10, AcquiredConns: 9}, want: 1},
		{name: "slow and cancelled", stats: PoolStats{MaxConns: 10, AcquireCount: 10, AcquireDuration: 2 * time.Second, CanceledAcquireCount: 1}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.stats.Warnings(), tt.want)
		})
	}
}

func TestPoolStats_AvgAcquireDuration(t *testing.T) {
	assert.Zero(t, (&PoolStats{}).AvgAcquireDuration())
	assert.Equal(t, 50*time.Millisecond, (&PoolStats{AcquireCount: 4, AcquireDuration: 200 * time.Millisecond}).AvgAcquireDuration())
}

func TestStats_RequiresPool(t *testing.T) {
	_, err := NewPostgresDB(&DBConfig{}).Stats()
	assert.Error(t, err)
}
