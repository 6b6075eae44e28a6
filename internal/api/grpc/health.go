// Package grpc exposes the standard gRPC health service backed by a
// database probe.
package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"mylib-backend/internal/api/grpc/interceptor"
	"mylib-backend/internal/logger"
)

// ServiceName is the health entry for the lending API.
const ServiceName = "mylib.Library"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the health status in line with the database.
type HealthReporter struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
}

func NewHealthReporter(db Pinger, interval time.Duration) *HealthReporter {
	return &HealthReporter{server: health.NewServer(), db: db, interval: interval}
}

// Check probes the database once and publishes the result.
func (h *HealthReporter) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "Database health probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Run probes on every interval until ctx is done, then reports shutdown.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// NewServer builds the gRPC server with the health and reflection services.
func NewServer(reporter *HealthReporter) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Recovery(), interceptor.Logging()),
	)
	healthpb.RegisterHealthServer(s, reporter.server)
	reflection.Register(s)
	return s
}
