package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"recipe-restful/auth"
	"recipe-restful/cache"
	"recipe-restful/controllers"
	grpcserver "recipe-restful/grpc_server"
	"recipe-restful/registry"
	"recipe-restful/services"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	if cfg.InsecureJwtSecret() {
		logger.Warn("jwt_secret is the built-in development value; set RECIPE_JWT_SECRET in production")
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}

	var (
		rdb   *redis.Client
		store cache.Store
	)
	if cfg.Redis.Addr != "" {
		rdb = cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		store = cache.NewRedisStore(rdb, cfg.Cache.TTL)
		logger.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = cache.NewMemoryStore(cfg.Cache.TTL)
	}

	hasher := services.NewHasher(runtime.NumCPU(), cfg.BcryptCost)
	defer hasher.Close()
	users := services.NewUserService(db, hasher)

	authn := auth.NewAuthenticator(db, store, auth.Options{
		SigningKey: []byte(cfg.JwtSecret),
		AccessTTL:  cfg.JwtTTL,
		CacheTTL:   cfg.Cache.TTL,
	}, logger)

	probe := a.newProbe("dependencies", &startup{db: db, rdb: rdb, users: users, cfg: cfg, logger: logger})

	grpcSrv := grpcserver.New(cfg.ServiceName, logger)
	probe.OnChange(grpcSrv.ProbeListener())

	container := controllers.NewContainer(controllers.RouterConfig{
		DB:        db,
		Users:     users,
		Auth:      authn,
		Images:    services.NewImageStore(cfg.MediaRoot),
		Readiness: probe,
		Logger:    logger,
	})
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           container,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %d: %w", cfg.GRPCPort, err)
	}

	errCh := make(chan error, 3)
	go func() { errCh <- grpcSrv.Serve(grpcLis) }()
	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		// Wait returns nil once READY; only failures are reported.
		if err := probe.Wait(ctx); err != nil && ctx.Err() == nil {
			errCh <- err
		}
	}()

	if cfg.Consul.Enabled {
		reg, inst, err := a.register()
		if err != nil {
			logger.Error("service registration failed, continuing without it", zap.Error(err))
		} else {
			defer func() {
				if err := reg.Deregister(inst.ID); err != nil {
					logger.Warn("deregistration failed", zap.Error(err))
				}
			}()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server stopped unexpectedly", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	grpcSrv.Stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("servers stopped")
	return runErr
}

func (a *app) register() (registry.ServiceRegistry, registry.Instance, error) {
	cfg := a.cfg
	reg, err := registry.NewConsulRegistry(cfg.Consul, a.logger)
	if err != nil {
		return nil, registry.Instance{}, err
	}

	host := cfg.Consul.AdvertiseAddress
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			return nil, registry.Instance{}, fmt.Errorf("resolving advertise address: %w", err)
		}
	}
	id := fmt.Sprintf("%s-%s-%d", cfg.ServiceName, host, cfg.HTTPPort)
	inst := registry.Instance{
		ID:      id,
		Name:    cfg.ServiceName,
		Address: host,
		Port:    cfg.HTTPPort,
		Tags:    []string{"http", "grpc"},
		Meta:    map[string]string{"grpc_port": strconv.Itoa(cfg.GRPCPort)},
		Checks: consulapi.AgentServiceChecks{
			registry.CreateHTTPCheck(id, host, cfg.HTTPPort, "/healthz", "10s", "2s"),
			registry.CreateGRPCCheck(id, fmt.Sprintf("%s:%d/%s", host, cfg.GRPCPort, cfg.ServiceName), "10s", "2s", false),
		},
	}
	if err := reg.Register(inst); err != nil {
		return nil, registry.Instance{}, err
	}
	return reg, inst, nil
}
