package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"support-relay/domain"
)

// PresenceSource is the read-only registry view the telemetry worker
// samples.
type PresenceSource interface {
	Snapshot() []domain.Connection
}

// TelemetryWorker periodically logs who is connected together with the
// relay's own CPU and memory footprint.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	presence PresenceSource
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, presence PresenceSource) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, presence: presence}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			users, admins := 0, 0
			for _, conn := range w.presence.Snapshot() {
				if conn.Role == domain.RoleAdmin {
					admins++
				} else {
					users++
				}
			}

			cpu, _ := p.CPUPercent()
			var rss uint64
			if mem, err := p.MemoryInfo(); err == nil {
				rss = mem.RSS
			}

			w.log.Info("Relay status",
				"users_online", users,
				"admins_online", admins,
				"cpu_percent", cpu,
				"ram_bytes", rss,
			)
		}
	}
}
