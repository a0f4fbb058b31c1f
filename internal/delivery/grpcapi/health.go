package grpcapi

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes can ask about besides the empty
// whole-server name.
const ServiceName = "storefront.orders"

// HealthServer exposes grpc.health.v1.Health for orchestrator probes.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	h := &HealthServer{server: srv, health: hs, logger: logger}
	h.SetServing(false)
	return h
}

func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("grpc health server started", "address", lis.Addr().String())
	return h.server.Serve(lis)
}

// Stop reports NOT_SERVING to watchers and drains open streams.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
