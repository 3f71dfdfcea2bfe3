package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raphcvrt/Anti-Virus/internal/auth"
	"github.com/raphcvrt/Anti-Virus/internal/metrics"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
	"github.com/raphcvrt/Anti-Virus/internal/scheduler"
	"github.com/raphcvrt/Anti-Virus/internal/web"
)

func NewServeCommand(env *Env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		Long:  `Serve the HTML dashboard, polling the antivirus backend on independent timers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				env.Config.ListenAddr = addr
			}
			return runServe(cmd.Context(), env)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from DASHBOARD_ADDR, :9555)")
	return cmd
}

func runServe(parent context.Context, env *Env) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := env.Config
	log := env.Log

	page := render.NewPage()
	feed := notify.NewFeed()
	rec := metrics.New()

	sync, err := env.Sync(page, feed, rec)
	if err != nil {
		return err
	}

	if err := sync.RefreshAll(ctx); err != nil {
		log.Warn("initial load incomplete", zap.Error(err))
	}

	jobScheduler := scheduler.NewInMemoryScheduler(log)
	if err := sync.Schedule(jobScheduler, cfg.Intervals); err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}
	if err := jobScheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer jobScheduler.Stop()

	authSvc := auth.NewService(cfg.JWTSecret, cfg.PasswordHash, cfg.SessionTTL, log)
	server := web.NewServer(sync, page, feed, authSvc, rec, log, web.Options{
		PageRefresh:    cfg.PageRefresh,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		TrustProxy:     cfg.TrustProxy,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("api_url", cfg.APIURL),
			zap.Bool("auth", authSvc.Enabled()),
			zap.Int("jobs", len(jobScheduler.Jobs())))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve dashboard: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
