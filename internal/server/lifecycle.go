// Package server runs the process's long-lived services and shuts them down
// gracefully on SIGINT or SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Run blocks until ctx is cancelled or
// the service fails.
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle manages the startup and shutdown of multiple services.
// Services are started in order and stopped in reverse order.
type Lifecycle struct {
	logger   *zap.Logger
	services []*runningService
	mu       sync.Mutex
}

type runningService struct {
	name    string
	service Service
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger: logger,
	}
}

// Add registers a named service for lifecycle management.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, &runningService{name: name, service: svc})
}

// Run starts all services and blocks until a termination signal, ctx
// cancellation or the first service failure. Services are then cancelled one
// at a time in reverse order, each awaited before the next.
//
// Postcondition: All services have returned. The first service failure is
// returned; a clean shutdown returns nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	l.mu.Lock()
	services := append([]*runningService(nil), l.services...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, rs := range services {
		svcCtx, cancel := context.WithCancel(context.Background())
		rs.cancel = cancel
		rs.done = make(chan struct{})
		go l.runService(svcCtx, rs, errCh)
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	var failure error
	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	case failure = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(failure))
	}

	l.shutdown(services)

	l.logger.Info("shutdown complete",
		zap.Duration("total_uptime", time.Since(start)),
	)
	return failure
}

func (l *Lifecycle) runService(ctx context.Context, rs *runningService, errCh chan<- error) {
	defer close(rs.done)
	l.logger.Info("starting service", zap.String("service", rs.name))
	svcStart := time.Now()
	err := rs.service.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	l.logger.Error("service failed",
		zap.String("service", rs.name),
		zap.Error(err),
		zap.Duration("uptime", time.Since(svcStart)),
	)
	errCh <- fmt.Errorf("service %s: %w", rs.name, err)
}

func (l *Lifecycle) shutdown(services []*runningService) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		rs := services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", rs.name))
		rs.cancel()
		<-rs.done
		l.logger.Info("service stopped",
			zap.String("service", rs.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}
