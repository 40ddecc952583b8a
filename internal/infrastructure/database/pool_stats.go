package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// PoolStats is a snapshot of the pgx pool counters.
type PoolStats struct {
	AcquiredConns        int32         `json:"acquired_conns"`
	IdleConns            int32         `json:"idle_conns"`
	TotalConns           int32         `json:"total_conns"`
	MaxConns             int32         `json:"max_conns"`
	AcquireCount         int64         `json:"acquire_count"`
	AcquireDuration      time.Duration `json:"acquire_duration"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	EmptyAcquireCount    int64         `json:"empty_acquire_count"`
}

func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		AcquiredConns:        raw.AcquiredConns(),
		IdleConns:            raw.IdleConns(),
		TotalConns:           raw.TotalConns(),
		MaxConns:             raw.MaxConns(),
		AcquireCount:         raw.AcquireCount(),
		AcquireDuration:      raw.AcquireDuration(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		EmptyAcquireCount:    raw.EmptyAcquireCount(),
	}, nil
}

func (s *PoolStats) AvgAcquireDuration() time.Duration {
	if s.AcquireCount == 0 {
		return 0
	}
	return s.AcquireDuration / time.Duration(s.AcquireCount)
}

// Warnings lists the thresholds the snapshot breaks: utilization above 80%,
// average acquire above 100ms, more than 5% of acquires cancelled.
func (s *PoolStats) Warnings() []string {
	var out []string

	if s.MaxConns > 0 {
		if pct := float64(s.AcquiredConns) / float64(s.MaxConns) * 100; pct > 80 {
			out = append(out, fmt.Sprintf("high pool utilization: %.1f%% (%d/%d)", pct, s.AcquiredConns, s.MaxConns))
		}
	}
	if avg := s.AvgAcquireDuration(); avg > 100*time.Millisecond {
		out = append(out, fmt.Sprintf("high acquire latency: %v", avg))
	}
	if s.AcquireCount > 0 {
		if rate := float64(s.CanceledAcquireCount) / float64(s.AcquireCount) * 100; rate > 5 {
			out = append(out, fmt.Sprintf("high cancel rate: %.1f%%", rate))
		}
	}

	return out
}

// MonitorPoolHealth logs pool warnings every interval until ctx is done.
// Run it in its own goroutine.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Warn().Err(err).Msg("[MONITOR] Failed to get pool stats")
				continue
			}
			for _, w := range stats.Warnings() {
				log.Warn().Int32("total", stats.TotalConns).Msg("[MONITOR] " + w)
			}

		case <-ctx.Done():
			log.Info().Msg("[MONITOR] Stopping pool health monitoring")
			return
		}
	}
}
