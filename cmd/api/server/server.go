package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/status"

	"student-registry/cmd/api/di"
	"student-registry/cmd/api/infrastructure"
	ginmiddleware "student-registry/internal/adapter/gin/middleware"
	ginrouter "student-registry/internal/adapter/gin/router"
	grpcadapter "student-registry/internal/adapter/grpc"
	grpcmiddleware "student-registry/internal/adapter/grpc/middleware"
	"student-registry/internal/config"
)

// Server holds the REST server and the ops gRPC and HTTP servers.
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
	GRPC   *grpc.Server
	HTTP   *http.Server
	Health *grpcadapter.HealthProber

	healthConn *grpc.ClientConn
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container, production bool) (*Server, error) {
	// a nil *TokenBucket must stay a nil interface
	var ginLimiter ginmiddleware.Limiter
	var grpcLimiter grpcmiddleware.Limiter
	if c.Limiter != nil {
		ginLimiter = c.Limiter
		grpcLimiter = c.Limiter
	}

	healthSrv := health.NewServer()
	prober := grpcadapter.NewHealthProber(healthSrv, time.Duration(cfg.App.HealthProbeSeconds)*time.Second, l)
	prober.Add("database", infrastructure.PingDatabase(c.DB))
	if c.RedisClient != nil {
		prober.Add("redis", c.RedisClient.Check)
	}

	s := &Server{
		Config: cfg,
		Logger: l,
		GRPC:   SetupGRPC(healthSrv, grpcLimiter, l),
		Health: prober,
	}

	s.Gin = SetupGinServer(ginrouter.Deps{
		Users:    c.UserHandler,
		Teachers: c.TeacherHandler,
		Tokens:   c.Tokens,
		Limiter:  ginLimiter,
		Log:      l,
	}, s.ginAddress(), production)

	httpSrv, conn, err := SetupHTTPGateway("localhost"+s.grpcAddress(), s.httpAddress(), l)
	if err != nil {
		return nil, err
	}
	s.HTTP = httpSrv
	s.healthConn = conn

	return s, nil
}

// Start runs every server until all are shut down. If one server fails the
// others are stopped and its error is returned.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.grpcAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.grpcAddress(), err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Health.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			// regular shutdown is driven by the caller
			return nil
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(stopCtx)
		return nil
	})

	g.Go(func() error {
		s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
		if err := s.GRPC.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", s.ginAddress()))
		return serveHTTP(s.Gin, "gin")
	})

	g.Go(func() error {
		s.Logger.Info("ops HTTP server running", zap.String("address", s.httpAddress()))
		return serveHTTP(s.HTTP, "ops HTTP")
	})

	return g.Wait()
}

func serveHTTP(srv *http.Server, name string) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// Shutdown stops the servers, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.Logger.Info("shutting down ops HTTP server...")
	if err := s.HTTP.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	s.Logger.Info("shutting down Gin server...")
	if err := s.Gin.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
	}

	s.Logger.Info("shutting down gRPC server...")
	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.GRPC.Stop()
		errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
	}

	if s.healthConn != nil {
		if err := s.healthConn.Close(); err != nil && status.Code(err) != codes.Canceled {
			errs = append(errs, fmt.Errorf("health client close: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}

func (s *Server) ginAddress() string {
	return ":" + s.Config.App.GinPort
}

func (s *Server) httpAddress() string {
	return ":" + s.Config.App.HTTPPort
}
