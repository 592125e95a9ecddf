package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contact-relay/internal/observability"
)

// Pinger keeps a hosted instance awake by requesting its public health route.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   zerolog.Logger
}

// NewPinger constructs a self-ping loop for the given public base URL.
func NewPinger(publicURL string, interval time.Duration, client *http.Client, logger zerolog.Logger) *Pinger {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}
	return &Pinger{
		url:      publicURL + "/health",
		interval: interval,
		client:   client,
		logger:   logger.With().Str("component", "self_ping").Logger(),
	}
}

// Run pings until ctx is cancelled. Failures are only logged.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	if err := Probe(ctx, p.client, p.url); err != nil {
		if ctx.Err() != nil {
			return
		}
		observability.HealthProbes().WithLabelValues("self_ping", "error").Inc()
		p.logger.Warn().Err(err).Str("url", p.url).Msg("self-ping failed")
		return
	}
	observability.HealthProbes().WithLabelValues("self_ping", "ok").Inc()
	p.logger.Debug().Str("url", p.url).Msg("self-pinged")
}
