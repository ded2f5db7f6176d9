package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"tailscale.com/tsnet"

	"github.com/claude/levelgym/internal/config"
	"github.com/claude/levelgym/internal/logging"
	lgmcp "github.com/claude/levelgym/internal/mcp"
	"github.com/claude/levelgym/internal/metrics"
	"github.com/claude/levelgym/internal/persist"
	"github.com/claude/levelgym/internal/server"
	"github.com/claude/levelgym/internal/snapshot"
	"github.com/claude/levelgym/internal/storage"
	"github.com/claude/levelgym/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Log, os.Stdout)
	defer logCloser.Close()
	log.Info("LevelGym starting", "version", Version, "storage", cfg.Storage.Driver)

	// Run migrations
	if cfg.Storage.Driver == config.DriverPostgres {
		if err := storage.RunMigrations(cfg.Storage.Postgres.DSN(), "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}
	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Open blob store
	ctx := context.Background()
	blobs, collectors, err := openBlobStore(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer blobs.Close()
	log.Info("storage opened", "driver", cfg.Storage.Driver)

	reg := metrics.SetupPrometheus(collectors...)
	m := metrics.NewManager(cfg.Metrics.Namespace, "", reg)

	key := cfg.Storage.Key
	if key == "" {
		key = snapshot.DefaultKey
	}
	writer := persist.New(blobs, key, cfg.Persist.WriteTimeout, log, m)
	st := store.Open(ctx, writer, log, store.WithMetrics(m))

	// MCP over streamable HTTP
	mcpSrv := lgmcp.New(lgmcp.NewLocalSource(st), Version, log)
	opts := []server.Option{
		server.WithMetrics(m, reg),
		server.WithMCP(mcpserver.NewStreamableHTTPServer(mcpSrv)),
	}

	// Listen on tsnet or plain TCP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		opts = append(opts, server.WithTailscale(lc))

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := cfg.Server.Addr()
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	srv := server.New(st, cfg.Auth.APIKey, log, opts...)
	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Error("flushing state failed", "error", err)
	}
	log.Info("server stopped")
}

// openBlobStore opens the configured driver. Postgres also returns its pool
// collector for the metrics registry.
func openBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, []prometheus.Collector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := storage.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		return db, []prometheus.Collector{db.Collector(cfg.Postgres.Name)}, nil
	case config.DriverRedis:
		rs, err := storage.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return rs, nil, nil
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, nil
	default:
		s, err := storage.OpenSQLite(cfg.SQLite.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
}
