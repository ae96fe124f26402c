package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokengate/internal/audit"
	"tokengate/internal/auth"
	"tokengate/internal/config"
	"tokengate/internal/db"
	"tokengate/internal/httpserver"
	"tokengate/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	var dbConn *sql.DB
	if cfg.DBDSN != "" {
		conn, err := db.Open(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer conn.Close()
		if err := db.RunMigrations(ctx, conn, cfg.SchemaDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		dbConn = conn
	}

	store, err := credentialStore(ctx, cfg, dbConn)
	if err != nil {
		return err
	}
	if mem, ok := store.(*auth.MemoryStore); ok {
		logger.Info("credentials loaded", "count", mem.Len(), "file", cfg.UsersPath)
	}

	var recorder audit.Recorder = audit.NewMemoryStore(audit.DefaultCapacity)
	if dbConn != nil {
		recorder = audit.NewStore(dbConn)
	}

	authSvc := auth.NewService(store, auth.TokenConfig{
		Secret:      []byte(cfg.JWTSecret),
		TTL:         cfg.TokenTTL,
		ExpiresIn:   cfg.ExpiresIn,
		IncludeRole: cfg.RBACEnabled,
	})

	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:     logger,
		Auth:       authSvc,
		Policy:     auth.DefaultPolicy(cfg.RBACEnabled),
		Audit:      recorder,
		CORSOrigin: cfg.CORSOrigin,
	})
	server := httpserver.New(cfg.Addr(), handler, logger)

	if cfg.SecretIsDefault {
		logger.Warn("JWT_SECRET not set, using the default insecure signing secret")
	}
	logger.Info("starting tokengate", "port", cfg.Port, "rbac", cfg.RBACEnabled, "token_ttl", cfg.TokenTTL.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCh:
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("shutdown", "err", err)
	}
	return nil
}

func credentialStore(ctx context.Context, cfg *config.Config, dbConn *sql.DB) (auth.CredentialStore, error) {
	if dbConn != nil {
		pg := auth.NewStore(dbConn)
		if cfg.UsersPath != "" {
			if err := pg.SeedFromFile(ctx, cfg.UsersPath); err != nil {
				return nil, fmt.Errorf("seed credentials: %w", err)
			}
		} else if err := pg.Seed(ctx, auth.DefaultCredentials()); err != nil {
			return nil, fmt.Errorf("seed credentials: %w", err)
		}
		return pg, nil
	}
	if cfg.UsersPath != "" {
		mem, err := auth.LoadCredentialsFile(cfg.UsersPath)
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
		return mem, nil
	}
	return auth.NewMemoryStore(auth.DefaultCredentials()), nil
}
