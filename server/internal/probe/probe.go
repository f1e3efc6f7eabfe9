// Package probe serves the standard gRPC health service so orchestrators can
// gate traffic on ingestion readiness. The service reports NOT_SERVING until
// the first successful ingestion and again while shutting down.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name under which readiness is reported, alongside the
// empty overall service name.
const Service = "alertdesk"

// Probe wraps a gRPC server exposing grpc.health.v1.Health.
type Probe struct {
	srv    *grpc.Server
	health *health.Server
}

// New returns a Probe in the NOT_SERVING state.
func New() *Probe {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	p := &Probe{srv: srv, health: hs}
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return p
}

// Ready marks the service SERVING.
func (p *Probe) Ready() {
	p.set(healthpb.HealthCheckResponse_SERVING)
}

// NotReady marks the service NOT_SERVING.
func (p *Probe) NotReady() {
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
}

// Serve accepts connections on lis until Stop is called.
func (p *Probe) Serve(lis net.Listener) error {
	slog.Info("probe: grpc health listening", "addr", lis.Addr().String())
	if err := p.srv.Serve(lis); err != nil {
		return fmt.Errorf("probe: serve: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING to watchers and then stops the server, waiting
// for in-flight RPCs until ctx is done.
func (p *Probe) Stop(ctx context.Context) {
	p.health.Shutdown()

	done := make(chan struct{})
	go func() {
		p.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.srv.Stop()
	}
}

func (p *Probe) set(status healthpb.HealthCheckResponse_ServingStatus) {
	p.health.SetServingStatus("", status)
	p.health.SetServingStatus(Service, status)
}
