package workers

import (
	"context"
	"crm-realtime/infrastructure/grpc/server"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StatusSetter is satisfied by *health.Server.
type StatusSetter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// HealthWorker reports SERVING while the store answers reads.
type HealthWorker struct {
	log      *slog.Logger
	interval time.Duration
	db       *badger.DB
	status   StatusSetter
}

func NewHealthWorker(log *slog.Logger, interval time.Duration, db *badger.DB, status StatusSetter) *HealthWorker {
	return &HealthWorker{log: log, interval: interval, db: db, status: status}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		current := w.probe()
		if current != last {
			w.log.Info("Health status changed", "from", last.String(), "to", current.String())
			last = current
		}
		w.status.SetServingStatus("", current)
		w.status.SetServingStatus(server.ServiceName, current)

		select {
		case <-ctx.Done():
			w.status.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			return nil
		case <-ticker.C:
		}
	}
}

func (w *HealthWorker) probe() healthpb.HealthCheckResponse_ServingStatus {
	if w.db.IsClosed() {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	err := w.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health"))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		w.log.Warn("Store probe failed", "error", err)
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
