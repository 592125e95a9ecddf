package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contact-relay/internal/observability"
)

const defaultProbeTimeout = 10 * time.Second

// Probe performs one GET against url and fails on transport errors or non-2xx answers.
func Probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe %s returned %s", url, resp.Status)
	}
	return nil
}

// MonitorConfig configures the liveness monitor.
type MonitorConfig struct {
	URL       string
	Interval  time.Duration
	Threshold int
	Timeout   time.Duration
	Client    *http.Client
}

// Monitor probes the service's own liveness route on a fixed schedule. After Threshold
// consecutive failures it marks the state unhealthy and calls the fatal hook once; the hook
// is expected to stop the process so the supervisor can restart it.
type Monitor struct {
	cfg      MonitorConfig
	state    *State
	onFatal  func(error)
	logger   zerolog.Logger
	failures int
}

// NewMonitor constructs a liveness monitor.
func NewMonitor(cfg MonitorConfig, state *State, onFatal func(error), logger zerolog.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProbeTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if onFatal == nil {
		onFatal = func(error) {}
	}
	return &Monitor{
		cfg:     cfg,
		state:   state,
		onFatal: onFatal,
		logger:  logger.With().Str("component", "health_monitor").Logger(),
	}
}

// Run blocks until ctx is cancelled or the fatal hook has fired.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info().Str("url", m.cfg.URL).Dur("interval", m.cfg.Interval).Int("threshold", m.cfg.Threshold).Msg("health monitor starting")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("health monitor stopping")
			return
		case <-ticker.C:
			if fatal := m.check(ctx); fatal {
				return
			}
		}
	}
}

// check runs one probe and reports whether the fatal hook fired.
func (m *Monitor) check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	err := Probe(probeCtx, m.cfg.Client, m.cfg.URL)
	if ctx.Err() != nil {
		return false
	}

	now := time.Now()
	if err == nil {
		if m.failures > 0 {
			m.logger.Info().Int("previous_failures", m.failures).Msg("health check recovered")
		}
		m.failures = 0
		m.state.MarkHealthy(now)
		observability.HealthProbes().WithLabelValues("liveness", "ok").Inc()
		return false
	}

	m.failures++
	observability.HealthProbes().WithLabelValues("liveness", "error").Inc()
	m.logger.Warn().Err(err).Int("failures", m.failures).Msg("health check failed")

	if m.failures < m.cfg.Threshold {
		return false
	}

	m.state.MarkUnhealthy(now)
	fatalErr := fmt.Errorf("liveness probe failed %d times in a row: %w", m.failures, err)
	m.logger.Error().Err(fatalErr).Msg("server health check failed, requesting restart")
	m.onFatal(fatalErr)
	return true
}
