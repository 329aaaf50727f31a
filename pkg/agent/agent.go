// Package agent implements the push agent that runs on monitored hosts,
// sampling local resource usage and reporting it to the fleetwatch server.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultInterval is the default reporting period
const DefaultInterval = 60 * time.Second

// Config holds the agent settings
type Config struct {
	ServerURL string        `yaml:"server_url"`
	APIKey    string        `yaml:"api_key"`
	Interval  time.Duration `yaml:"-"`
	DiskPath  string        `yaml:"disk_path"`
}

// Agent samples local cpu/ram/disk usage and pushes it to the server
type Agent struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// New creates a new agent
func New(cfg Config) (*Agent, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.DiskPath == "" {
		cfg.DiskPath = "/"
	}
	return &Agent{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log.WithComponent("agent"),
	}, nil
}

// Run reports on the configured interval until the context is canceled.
// A failed report is logged and retried on the next tick; the server's
// reconciler handles prolonged silence.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info().Str("server", a.cfg.ServerURL).Dur("interval", a.cfg.Interval).Msg("agent started")

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	// Report immediately on start
	a.reportOnce(ctx)

	for {
		select {
		case <-ticker.C:
			a.reportOnce(ctx)
		case <-ctx.Done():
			a.logger.Info().Msg("agent stopped")
			return ctx.Err()
		}
	}
}

func (a *Agent) reportOnce(ctx context.Context) {
	usage, err := a.Collect(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to collect usage")
		return
	}
	if err := a.Report(ctx, usage); err != nil {
		a.logger.Error().Err(err).Msg("failed to report sample")
		return
	}
	a.logger.Debug().
		Float64("cpu", usage.CPU).
		Float64("ram", usage.RAM).
		Float64("disk", usage.Disk).
		Msg("sample reported")
}

// Collect samples local resource usage. The CPU reading averages over one
// second; a failure of any single probe zeroes that value rather than
// failing the whole report.
func (a *Agent) Collect(ctx context.Context) (types.Usage, error) {
	var usage types.Usage

	cpuPercents, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		a.logger.Warn().Err(err).Msg("cpu probe failed")
	} else if len(cpuPercents) > 0 {
		usage.CPU = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("memory probe failed")
	} else {
		usage.RAM = vm.UsedPercent
	}

	du, err := disk.UsageWithContext(ctx, a.cfg.DiskPath)
	if err != nil {
		a.logger.Warn().Err(err).Msg("disk probe failed")
	} else {
		usage.Disk = du.UsedPercent
	}

	return usage.Clamp(), nil
}

// Report pushes one usage sample to the server
func (a *Agent) Report(ctx context.Context, usage types.Usage) error {
	body, err := json.Marshal(usage)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.ServerURL+"/api/v1/samples", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server rejected report: %s", resp.Status)
	}
	return nil
}
