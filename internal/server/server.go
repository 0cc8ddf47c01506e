// Package server wires storage, the progression service and both transports
// into one process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/config"
	"github.com/xtding233/progression-core/internal/rng"
	"github.com/xtding233/progression-core/internal/service"
	"github.com/xtding233/progression-core/internal/store"
	"github.com/xtding233/progression-core/internal/store/sqlite"
	"github.com/xtding233/progression-core/internal/transport/grpcapi"
	"github.com/xtding233/progression-core/internal/transport/httpapi"
)

const shutdownTimeout = 10 * time.Second

// Server hosts the HTTP and gRPC listeners and owns the store.
type Server struct {
	httpListener net.Listener
	grpcListener net.Listener
	httpServer   *http.Server
	grpcServer   *grpc.Server
	health       *health.Server
	closeStore   func() error
}

// New opens the store and binds both listeners.
func New(ctx context.Context, cfg config.ServerEnv) (*Server, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Printf("catalog loaded: %s", cat)

	st, closeStore, err := openStore(ctx, cfg, store.DefaultsFrom(cat.Rules(), nil))
	if err != nil {
		return nil, err
	}

	var src rng.RandomSource
	if cfg.RNGSeed != 0 {
		src = rng.NewSeeded(cfg.RNGSeed)
	}
	svc := service.New(cat, st, service.Options{LockMode: cfg.Lock(), RNG: src})

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = closeStore()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	grpcapi.Register(grpcServer, grpcapi.NewServer(svc))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		httpListener: httpListener,
		grpcListener: grpcListener,
		httpServer: &http.Server{
			Handler:           httpapi.New(svc, cat),
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpcServer: grpcServer,
		health:     healthServer,
		closeStore: closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg config.ServerEnv, defaults store.Defaults) (store.Store, func() error, error) {
	if cfg.Store == config.StoreMemory {
		log.Printf("using in-memory store")
		return store.NewMemory(defaults), func() error { return nil }, nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	st, err := sqlite.Open(ctx, cfg.DBPath, defaults)
	if err != nil {
		log.Printf("open sqlite store %s: %v", cfg.DBPath, err)
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	log.Printf("using sqlite store at %s", cfg.DBPath)
	return st, st.Close, nil
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string { return s.httpListener.Addr().String() }

// GRPCAddr returns the bound gRPC address.
func (s *Server) GRPCAddr() string { return s.grpcListener.Addr().String() }

// Serve runs both listeners until ctx ends or one of them fails, then shuts
// both down and closes the store.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	defer s.close()

	log.Printf("http listening at %v", s.httpListener.Addr())
	log.Printf("grpc listening at %v", s.grpcListener.Addr())
	errs := make(chan error, 2)
	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("serve http: %w", err)
			return
		}
		errs <- nil
	}()
	go func() {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("serve grpc: %w", err)
			return
		}
		errs <- nil
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
	}

	log.Printf("shutting down")
	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("shutdown http: %w", err)
	}
	s.grpcServer.GracefulStop()
	return serveErr
}

func (s *Server) close() {
	if s.closeStore != nil {
		if err := s.closeStore(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}
