package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/petabencana/sitioss-server/internal/cache"
	"github.com/petabencana/sitioss-server/internal/config"
	httpapi "github.com/petabencana/sitioss-server/internal/http"
	"github.com/petabencana/sitioss-server/internal/notify"
	"github.com/petabencana/sitioss-server/internal/observability"
	"github.com/petabencana/sitioss-server/internal/storage"
)

const shutdownGrace = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	stopTracing, err := observability.SetupTracing(ctx, cfg.OTEL, build(cfg))
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		stopTracing = func(context.Context) error { return nil }
	}
	stopSentry, err := observability.SetupSentry(cfg.Sentry, build(cfg))
	if err != nil {
		log.Warn().Err(err).Msg("sentry disabled")
		stopSentry = func(context.Context) error { return nil }
	}

	db, store, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer closeDB(db)

	deps := httpapi.Deps{DB: db, Store: store, Cache: cache.New()}

	if cfg.Images.Bucket != "" {
		images, err := storage.NewS3Images(ctx, storage.Config{
			Region:          cfg.Images.Region,
			Bucket:          cfg.Images.Bucket,
			AccessKeyID:     cfg.Images.AccessKeyID,
			SecretAccessKey: cfg.Images.SecretAccessKey,
			Endpoint:        cfg.Images.Endpoint,
			Expiry:          cfg.Images.UploadExpiry,
		})
		if err != nil {
			return err
		}
		deps.Images = images
	} else {
		log.Warn().Msg("IMAGES_BUCKET is empty; image uploads are disabled")
	}

	var dispatcher *notify.Dispatcher
	if cfg.Notify.Endpoint != "" {
		sender := notify.NewHTTPSender(cfg.Notify.Endpoint, cfg.Notify.APIKey, cfg.Notify.Timeout)
		dispatcher = notify.NewDispatcher(sender, cfg.Notify.Workers, cfg.Notify.Queue, cfg.Notify.Timeout, log.Logger)
		deps.Notifier = dispatcher
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DB.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	sctx, cancel := shutdownCtx(shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if dispatcher != nil {
		if err := dispatcher.Close(sctx); err != nil {
			log.Warn().Err(err).Msg("notifications dropped on shutdown")
		}
	}
	if err := stopTracing(sctx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	if err := stopSentry(sctx); err != nil {
		log.Warn().Err(err).Msg("sentry flush")
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tables the server uses",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, _, err := openDB(cfg, true)
			if err != nil {
				return err
			}
			closeDB(db)
			log.Info().Str("db", cfg.DB.Driver).Msg("migrated")
			return nil
		},
	}
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-idempotency",
		Short: "Delete expired idempotency records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, store, err := openDB(cfg, false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			intake, _, _ := httpapi.Services(cfg, httpapi.Deps{DB: db, Store: store})
			n, err := intake.PurgeIdempotency(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", n).Msg("idempotency records purged")
			return nil
		},
	}
}
