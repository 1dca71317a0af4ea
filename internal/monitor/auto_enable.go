// Package monitor runs the channel health background tasks: probing
// auto-disabled channels back to life, per-channel request rate limiting,
// and periodic success-rate snapshots.
package monitor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"relaypanel/internal/logger"
	"relaypanel/internal/metrics"
	"relaypanel/internal/models"
	"relaypanel/internal/services"
)

// Prober tests one model on a channel. Implementations issue a minimal
// upstream request and report whether it succeeded.
type Prober interface {
	Probe(ctx context.Context, channel *models.Channel, model string) (bool, error)
}

// AutoEnableConfig tunes the auto-enable task.
type AutoEnableConfig struct {
	Interval             time.Duration
	ProbeTimeout         time.Duration
	ProbeGap             time.Duration
	SuccessRateThreshold float64
}

// DefaultAutoEnableConfig returns the task defaults: probe every 30 minutes,
// 10s per probe, re-enable at 100% success.
func DefaultAutoEnableConfig() AutoEnableConfig {
	return AutoEnableConfig{
		Interval:             30 * time.Minute,
		ProbeTimeout:         10 * time.Second,
		ProbeGap:             200 * time.Millisecond,
		SuccessRateThreshold: 100,
	}
}

// AutoEnabler periodically probes auto-disabled channels that opted in to
// auto-enable and re-enables the ones whose models pass. Probe traffic is
// throttled by the shared rate limiter and every outcome feeds the stats
// collector, so the stats endpoint reports the same numbers the monitor saw.
type AutoEnabler struct {
	channels services.ChannelServicer
	prober   Prober
	limiter  *RateLimiter
	stats    *StatsCollector
	config   AutoEnableConfig

	once    sync.Once
	running atomic.Bool
}

// NewAutoEnabler creates an AutoEnabler.
func NewAutoEnabler(channels services.ChannelServicer, prober Prober, limiter *RateLimiter, stats *StatsCollector, config AutoEnableConfig) *AutoEnabler {
	if config.Interval <= 0 {
		config.Interval = DefaultAutoEnableConfig().Interval
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = DefaultAutoEnableConfig().ProbeTimeout
	}
	if config.SuccessRateThreshold <= 0 {
		config.SuccessRateThreshold = DefaultAutoEnableConfig().SuccessRateThreshold
	}
	return &AutoEnabler{channels: channels, prober: prober, limiter: limiter, stats: stats, config: config}
}

// Start launches the background loop. Safe to call more than once; only the
// first call starts the goroutine. The loop exits when ctx is cancelled.
func (a *AutoEnabler) Start(ctx context.Context) {
	a.once.Do(func() {
		logger.Get().Info("channel auto enable task started")
		go func() {
			ticker := time.NewTicker(a.config.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.RunOnce(ctx)
				}
			}
		}()
	})
}

// RunOnce executes one auto-enable sweep. Concurrent sweeps are collapsed:
// if one is already running the call returns immediately.
func (a *AutoEnabler) RunOnce(ctx context.Context) {
	if !a.running.CompareAndSwap(false, true) {
		logger.Get().Info("channel auto enable sweep already running, skipping")
		return
	}
	defer a.running.Store(false)

	candidates, err := a.channels.ListAutoEnableCandidates()
	if err != nil {
		logger.Get().Errorw("failed to list auto enable candidates", "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}
	logger.Get().Infow("running channel auto enable check", "channels", len(candidates))

	for i := range candidates {
		select {
		case <-ctx.Done():
			return
		default:
		}

		channel := &candidates[i]
		successRate := a.probeChannel(ctx, channel)
		logger.Get().Infow("channel auto enable probe result",
			"channel", channel.Name,
			"success_rate", successRate,
			"threshold", a.config.SuccessRateThreshold,
		)
		if successRate >= a.config.SuccessRateThreshold {
			a.enable(channel)
		}

		if a.config.ProbeGap > 0 {
			time.Sleep(a.config.ProbeGap)
		}
	}
}

// probeChannel tests every model on the channel and returns the success
// percentage. A channel with no models scores zero. Probes respect the
// channel's max_rpm setting; once the window budget is spent the remaining
// models stay unprobed and count against the success rate.
func (a *AutoEnabler) probeChannel(ctx context.Context, channel *models.Channel) float64 {
	modelNames := splitModels(channel.Models)
	if len(modelNames) == 0 {
		return 0
	}

	maxRPM := 0
	if setting, err := a.channels.GetSetting(channel.ID); err == nil && setting != nil {
		maxRPM = setting.MaxRPM
	}

	successCount := 0
	for _, modelName := range modelNames {
		if !a.limiter.Allow(channel.ID, maxRPM) {
			logger.Get().Infow("channel probe budget exhausted",
				"channel", channel.Name,
				"max_rpm", maxRPM,
			)
			break
		}

		probeCtx, cancel := context.WithTimeout(ctx, a.config.ProbeTimeout)
		ok, err := a.prober.Probe(probeCtx, channel, modelName)
		cancel()
		if err != nil {
			logger.Get().Infow("channel probe failed",
				"channel", channel.Name,
				"model", modelName,
				"error", err,
			)
		}
		a.stats.RecordResult(channel.ID, ok)
		if ok {
			successCount++
			metrics.ChannelProbesTotal.WithLabelValues("success").Inc()
		} else {
			metrics.ChannelProbesTotal.WithLabelValues("failure").Inc()
		}

		if a.config.ProbeGap > 0 {
			time.Sleep(a.config.ProbeGap)
		}
	}
	return float64(successCount) / float64(len(modelNames)) * 100
}

// enable flips the channel back on as the system actor, which also records
// the enable operation log.
func (a *AutoEnabler) enable(channel *models.Channel) {
	if err := a.channels.SetStatus("", "system", "", channel.ID, models.ChannelStatusEnabled); err != nil {
		logger.Get().Errorw("failed to auto enable channel",
			"channel", channel.Name,
			"error", err,
		)
		return
	}
	metrics.ChannelsAutoEnabled.Inc()
	logger.Get().Infow("channel auto enabled", "channel", channel.Name)
}

func splitModels(modelList string) []string {
	parts := strings.Split(modelList, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
