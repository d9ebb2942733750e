package rpcapp

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"artemis/internal/config"
	"artemis/internal/lib/logger/sl"
	"artemis/internal/rpc"
	"artemis/internal/services/auth"
	"artemis/internal/services/authz"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

type App struct {
	log         *slog.Logger
	gRPCServer  *grpc.Server
	registry    *prometheus.Registry
	port        int
	metricsPort int
}

// New builds the gRPC server with the auth guard, audit metrics and
// prometheus interceptors chained in. Service registration happens in the
// caller; every registered method is covered by the guard.
func New(
	log *slog.Logger,
	cfg *config.Config,
	authn *auth.Authenticator,
	engine *authz.Handler,
	policies *authz.Registry,
	events rpc.EventProducer,
	policyByMethod map[string]string,
) *App {
	grpcMetrics := grpc_prometheus.NewServerMetrics()

	reg := prometheus.NewRegistry()
	reg.MustRegister(grpcMetrics)

	gRPCServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			rpc.AuthInterceptor(log, cfg, authn, engine, policies, policyByMethod),
			rpc.MetricsInterceptor(events),
			grpcMetrics.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpcMetrics.StreamServerInterceptor(),
		),
	)

	reflection.Register(gRPCServer)
	grpcMetrics.InitializeMetrics(gRPCServer)

	return &App{
		log:         log,
		gRPCServer:  gRPCServer,
		registry:    reg,
		port:        cfg.GRPC.Port,
		metricsPort: cfg.Metrics.Port,
	}
}

// Server exposes the underlying grpc.Server for service registration.
func (a *App) Server() *grpc.Server {
	return a.gRPCServer
}

func (a *App) MustRun() {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", a.metricsPort)
		a.log.Debug("prometheus metrics listening", slog.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.log.Error("metrics server stopped", sl.Err(err))
		}
	}()

	if err := a.run(); err != nil {
		panic(err)
	}
}

func (a *App) run() error {
	const op = "rpcapp.Run"

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("gRPC server is running", slog.String("addr", l.Addr().String()))

	if err := a.gRPCServer.Serve(l); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Stop() {
	const op = "rpcapp.Stop"

	a.log.With(slog.String("op", op)).Info("stopping gRPC server", slog.Int("port", a.port))

	a.gRPCServer.GracefulStop()
}
