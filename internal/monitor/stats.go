package monitor

import (
	"context"
	"sync"
	"time"

	"relaypanel/internal/logger"
)

// ChannelStats is one channel's request outcome snapshot.
type ChannelStats struct {
	ChannelID    string  `json:"channel_id"`
	TotalCount   int64   `json:"total_count"`
	SuccessCount int64   `json:"success_count"`
	FailCount    int64   `json:"fail_count"`
	SuccessRate  float64 `json:"success_rate"`
}

// StatsCollector accumulates per-channel request outcomes and publishes
// periodic snapshots for the console.
type StatsCollector struct {
	mu       sync.RWMutex
	counts   map[string]*channelCounts
	snapshot map[string]ChannelStats

	once    sync.Once
	running sync.Mutex
}

type channelCounts struct {
	success int64
	fail    int64
}

// NewStatsCollector creates a StatsCollector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		counts:   make(map[string]*channelCounts),
		snapshot: make(map[string]ChannelStats),
	}
}

// RecordResult counts one request outcome for a channel.
func (s *StatsCollector) RecordResult(channelID string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counts[channelID]
	if !ok {
		c = &channelCounts{}
		s.counts[channelID] = c
	}
	if success {
		c.success++
	} else {
		c.fail++
	}
}

// Start launches the periodic snapshot loop. Only the first call starts the
// goroutine; the loop exits when ctx is cancelled.
func (s *StatsCollector) Start(ctx context.Context, interval time.Duration) {
	s.once.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		logger.Get().Info("channel stats task started")
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.Refresh()
				}
			}
		}()
	})
}

// Refresh rebuilds the published snapshot from the accumulated counts.
func (s *StatsCollector) Refresh() {
	// Collapse overlapping refreshes.
	if !s.running.TryLock() {
		return
	}
	defer s.running.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]ChannelStats, len(s.counts))
	for channelID, c := range s.counts {
		total := c.success + c.fail
		rate := float64(0)
		if total > 0 {
			rate = float64(c.success) / float64(total) * 100
		}
		snapshot[channelID] = ChannelStats{
			ChannelID:    channelID,
			TotalCount:   total,
			SuccessCount: c.success,
			FailCount:    c.fail,
			SuccessRate:  rate,
		}
	}
	s.snapshot = snapshot
}

// Stats returns the most recent published snapshot.
func (s *StatsCollector) Stats() map[string]ChannelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ChannelStats, len(s.snapshot))
	for id, stats := range s.snapshot {
		out[id] = stats
	}
	return out
}
