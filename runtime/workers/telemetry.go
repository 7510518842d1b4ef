package workers

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker samples the process and logs the real time counters.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	registry       contract.IRegistry
	metrics        *observability.Counters
}

func NewTelemetryWorker(log *slog.Logger,
	metricInterval time.Duration,
	registry contract.IRegistry,
	metrics *observability.Counters) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		registry:       registry,
		metrics:        metrics,
	}
}

func (w TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.sample(p)
			stats := w.metrics.Snapshot(w.registry.Stats())
			w.log.Info("Telemetry",
				"active_connections", stats.ActiveConnections,
				"frames_received", stats.FramesReceived,
				"handler_errors", stats.HandlerErrors,
				"groups", stats.Groups,
				"rss_mb", stats.RSSMb,
				"cpu_percent", stats.CPUPercent,
			)
		}
	}
}

func (w TelemetryWorker) sample(p *process.Process) {
	mem, err := p.MemoryInfo()
	if err != nil {
		w.log.Debug("Error while finding process ram usage", "err", err)
		return
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Debug("Error while finding process cpu usage", "err", err)
		return
	}
	w.metrics.SetProcess(mem.RSS/1024/1024, cpu)
}
