package connectivity

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/log"
)

// Monitor feeds a Banner from periodic HTTP HEAD probes.
type Monitor struct {
	banner   *Banner
	url      string
	interval time.Duration
	client   *http.Client
	logger   *log.Logger
}

// NewMonitor returns a monitor probing url every interval. An empty url disables
// probing and the banner stays online.
func NewMonitor(banner *Banner, url string, interval time.Duration, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		banner:   banner,
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.WithComponent(log.ComponentConnectivity),
	}
}

// Enabled reports whether a probe URL is configured.
func (m *Monitor) Enabled() bool {
	return m.url != ""
}

// Probe checks connectivity once and updates the banner. Any HTTP response counts
// as online; only transport errors mean offline.
func (m *Monitor) Probe(ctx context.Context) bool {
	if !m.Enabled() {
		m.banner.SetOnline(true)
		return true
	}

	online := true
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.url, nil)
	if err != nil {
		online = false
	} else {
		resp, err := m.client.Do(req)
		if err != nil {
			online = false
			m.logger.DebugContext(ctx, "Connectivity probe failed", log.FieldOperation, log.OpProbe, log.FieldError, err.Error())
		} else {
			resp.Body.Close()
		}
	}

	if ctx.Err() != nil {
		// A cancelled probe says nothing about the network.
		return m.banner.Online()
	}
	if m.banner.SetOnline(online) {
		if online {
			m.logger.InfoContext(ctx, "Back online")
		} else {
			m.logger.WarnContext(ctx, "Connection lost, app is offline")
		}
	}
	return online
}

// Run probes until ctx is done. It returns nil on cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.Enabled() {
		m.logger.InfoContext(ctx, "Connectivity probing disabled")
		<-ctx.Done()
		return nil
	}

	m.Probe(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
