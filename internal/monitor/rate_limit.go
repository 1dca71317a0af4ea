package monitor

import (
	"sync"
	"time"

	"relaypanel/internal/metrics"
)

// rateLimitWindow is the sliding window the RPM limit is measured over.
const rateLimitWindow = 60

// RateLimiter enforces per-channel requests-per-minute limits with an
// in-memory sliding window. It is fail-open: a channel without a limit
// always passes.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateLimitBucket
	now     func() int64
}

type rateLimitBucket struct {
	mu         sync.Mutex
	timestamps []int64
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rateLimitBucket),
		now:     func() int64 { return time.Now().Unix() },
	}
}

func (r *RateLimiter) bucket(channelID string) *rateLimitBucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[channelID]
	if !ok {
		b = &rateLimitBucket{timestamps: make([]int64, 0, 100)}
		r.buckets[channelID] = b
	}
	return b
}

// Allow checks the channel against maxRPM and, when under the limit,
// records the request in the same step. maxRPM <= 0 means unlimited.
func (r *RateLimiter) Allow(channelID string, maxRPM int) bool {
	if maxRPM <= 0 {
		return true
	}

	b := r.bucket(channelID)
	b.mu.Lock()
	defer b.mu.Unlock()

	now := r.now()
	windowStart := now - rateLimitWindow

	valid := b.timestamps[:0]
	for _, ts := range b.timestamps {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}
	b.timestamps = valid

	if len(b.timestamps) >= maxRPM {
		metrics.ChannelRateLimited.Inc()
		return false
	}
	b.timestamps = append(b.timestamps, now)
	return true
}

// CurrentRPM returns the number of requests recorded for the channel in the
// current window.
func (r *RateLimiter) CurrentRPM(channelID string) int {
	r.mu.Lock()
	b, ok := r.buckets[channelID]
	r.mu.Unlock()
	if !ok {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	windowStart := r.now() - rateLimitWindow
	count := 0
	for _, ts := range b.timestamps {
		if ts > windowStart {
			count++
		}
	}
	return count
}

// Reset clears the recorded requests for a channel.
func (r *RateLimiter) Reset(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets, channelID)
}
