// Package grpcserver exposes the standard gRPC health service, reporting the readiness
// of the recipe API so that orchestrators and Consul can check it over gRPC.
package grpcserver

import (
	"context"
	"fmt"
	"net"

	"recipe-restful/database"
	"recipe-restful/interceptors"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// Server wraps a grpc.Server serving health and reflection.
type Server struct {
	grpc        *grpc.Server
	health      *health.Server
	serviceName string
	logger      *zap.Logger
}

// New creates a server whose health status starts as NOT_SERVING, both for the
// overall server ("") and for serviceName.
func New(serviceName string, logger *zap.Logger) *Server {
	logger = logger.Named("grpc")
	recoveryOpt := recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
		logger.Error("recovered from panic in gRPC handler", zap.Any("panic", p))
		return status.Error(codes.Internal, "internal error")
	})

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.ZapLoggingInterceptor(logger),
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			interceptors.ZapStreamLoggingInterceptor(logger),
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{grpc: srv, health: hs, serviceName: serviceName, logger: logger}
	s.SetReady(false)
	return s
}

// SetReady switches the health status between SERVING and NOT_SERVING.
func (s *Server) SetReady(ready bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(s.serviceName, st)
	s.logger.Info("health status changed", zap.String("status", st.String()))
}

// ProbeListener adapts SetReady for database.Probe.OnChange.
func (s *Server) ProbeListener() func(database.ProbeState) {
	return func(state database.ProbeState) {
		s.SetReady(state == database.StateReady)
	}
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
