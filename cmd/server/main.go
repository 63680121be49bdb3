// Command server runs the canteen SMS verification and notification
// backend: an HTTP API for issuing/confirming verification codes and
// managing phone bindings, plus the background sweep of expired
// verification state.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/xmuorder/go-sms-backend/internal/config"
	httpapi "github.com/xmuorder/go-sms-backend/internal/http"
	"github.com/xmuorder/go-sms-backend/internal/observability"
	"github.com/xmuorder/go-sms-backend/internal/repo"
	"github.com/xmuorder/go-sms-backend/internal/scheduler"
	"github.com/xmuorder/go-sms-backend/internal/services"
	"github.com/xmuorder/go-sms-backend/internal/sms"
	"github.com/xmuorder/go-sms-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (no-op unless enabled)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Persistence
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed, continuing without")
		}
	}

	// Outbound SMS
	gateway, err := sms.NewTencentGateway(sms.TencentConfig{
		SecretID:  cfg.SMS.SecretID,
		SecretKey: cfg.SMS.SecretKey,
		Region:    cfg.SMS.Region,
		SdkAppID:  cfg.SMS.SdkAppID,
		SignName:  cfg.SMS.SignName,
		Timeout:   cfg.SMS.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sms gateway setup failed")
	}

	// Services
	verSvc := &services.VerificationService{
		DB:             db,
		Gateway:        gateway,
		CodeTemplateID: cfg.SMS.CodeTemplateID,
		CodeTTL:        cfg.CodeTTL,
		ResendCooldown: cfg.ResendCooldown,
		MaxSendsPerDay: cfg.MaxSendsPerDay,
	}
	bindSvc := &services.BindingService{
		DB:        db,
		Verifier:  verSvc,
		MaxPhones: cfg.MaxPhonesPerCanteen,
	}
	notifySvc := &services.NotifyService{
		DB:               db,
		Gateway:          gateway,
		NoticeTemplateID: cfg.SMS.NoticeTemplateID,
		Cooldown:         cfg.NotifyCooldown,
	}

	// Background jobs: registration list assembled here, once.
	sched := scheduler.New(log.With().Str("component", "scheduler").Logger())
	sweepTrigger := scheduler.Trigger{Hour: cfg.Sweep.Hour, Minute: cfg.Sweep.Minute, Second: cfg.Sweep.Second}
	err = sched.Add("sweep-verification-codes", sweepTrigger, func(ctx context.Context) error {
		n, err := verSvc.SweepExpired(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("removed", n).Msg("expired verification codes swept")
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler setup failed")
	}
	sched.Start(ctx)

	// HTTP
	router := gin.New()
	httpapi.RegisterRoutes(router, httpapi.Services{
		Verification: verSvc,
		Binding:      bindSvc,
		Notify:       notifySvc,
	}, cfg)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("version", version).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(server, cancel, sched, shutdownOTel)
	log.Info().Msg("server stopped")
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains the HTTP
// server, stops the scheduler, and flushes traces.
func waitForShutdown(server *http.Server, cancel context.CancelFunc, sched *scheduler.Scheduler, shutdownOTel func(context.Context) error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}

	cancel()
	sched.Wait()

	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
}
