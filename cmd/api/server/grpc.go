package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"student-registry/internal/adapter/grpc/middleware"
	"student-registry/pkg/logger"
)

// SetupGRPC creates the ops gRPC server exposing the standard health service.
func SetupGRPC(healthSrv *health.Server, limiter middleware.Limiter, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			middleware.NewRateLimiter(limiter, l).UnaryInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	return grpcServer
}
