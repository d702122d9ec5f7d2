package grpc

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the whole registry.
const ServiceName = "student-registry"

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthProber keeps a grpc health server in step with dependency checks.
// Each dependency is published under its own name; ServiceName and the
// empty service are SERVING only while every dependency passes.
type HealthProber struct {
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	checks map[string]CheckFunc
}

// NewHealthProber creates a prober publishing into server every interval.
func NewHealthProber(server *health.Server, interval time.Duration, log *zap.Logger) *HealthProber {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthProber{
		server:   server,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log,
		checks:   make(map[string]CheckFunc),
	}
}

// Add registers a named dependency check.
func (p *HealthProber) Add(name string, check CheckFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks[name] = check
}

// Probe runs every check once, publishes the results and reports whether
// all of them passed.
func (p *HealthProber) Probe(ctx context.Context) bool {
	p.mu.Lock()
	names := make([]string, 0, len(p.checks))
	for name := range p.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(p.checks))
	for k, v := range p.checks {
		checks[k] = v
	}
	p.mu.Unlock()
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := checks[name](checkCtx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			st = healthpb.HealthCheckResponse_NOT_SERVING
			p.log.Warn("dependency health check failed", zap.String("dependency", name), zap.Error(err))
		}
		p.server.SetServingStatus(name, st)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	p.server.SetServingStatus("", overall)
	p.server.SetServingStatus(ServiceName, overall)
	return healthy
}

// Run probes immediately and then on every tick until ctx is done, after
// which all services are reported NOT_SERVING.
func (p *HealthProber) Run(ctx context.Context) {
	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.server.Shutdown()
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
