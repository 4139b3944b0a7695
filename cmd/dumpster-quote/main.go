package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dumpster-quote/internal/config"
	"dumpster-quote/internal/httpapi"
	"dumpster-quote/internal/notify"
	"dumpster-quote/internal/pricing"
	"dumpster-quote/internal/quote"
	"dumpster-quote/internal/render"
	"dumpster-quote/internal/storage"
	sessions "dumpster-quote/internal/storage/redis"
	"dumpster-quote/pkg/logger"
	"dumpster-quote/pkg/redis"
	"dumpster-quote/pkg/sms"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrate(ctx, cfg, os.Args[2:], zapLogger); err != nil {
			zapLogger.Fatal("Migration failed", zap.Error(err))
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "export" {
		if err := exportLeads(ctx, cfg, os.Args[2:], zapLogger); err != nil {
			zapLogger.Fatal("Lead export failed", zap.Error(err))
		}
		return
	}

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Service stopped with error", zap.Error(err))
	}
	zapLogger.Info("Service shutdown gracefully")
}

func migrate(ctx context.Context, cfg *config.Config, args []string, log *zap.Logger) error {
	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pgStorage.Close()

	db := pgStorage.DB().DB
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "up":
		return storage.RunMigrations(ctx, db, log)
	case "down":
		return storage.RollbackMigration(ctx, db, log)
	case "status":
		return storage.Status(ctx, db, log)
	default:
		return fmt.Errorf("unknown migrate command %q (want up, down or status)", cmd)
	}
}

// exportLeads writes the last N days of leads (30 by default) to an xlsx
// report in the reports directory.
func exportLeads(ctx context.Context, cfg *config.Config, args []string, log *zap.Logger) error {
	days := 30
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid day count %q", args[0])
		}
		days = n
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pgStorage.Close()

	now := time.Now()
	path, count, err := storage.ExportLeadsSince(ctx, pgStorage, cfg.Admin.ReportsDir, now.AddDate(0, 0, -days), now)
	if err != nil {
		return err
	}

	log.Info("Leads exported",
		zap.String("path", path),
		zap.Int("count", count),
		zap.Int("days", days))
	return nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	loc, err := cfg.Business.Location()
	if err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("failed to init Redis: %w", err)
	}
	defer redisClient.Close()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to init PostgreSQL storage: %w", err)
	}
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB().DB, log); err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	sessionStore := sessions.New(redisClient)
	svc, err := quote.NewService(pricing.MustDefault(), quote.Options{
		Disclaimers: render.Disclaimers{
			TonnageRatePerTon: cfg.Business.TonnageRatePerTon,
			ItemSurcharge:     cfg.Business.ItemSurcharge,
			BusinessPhone:     cfg.Business.Phone,
		},
		BusinessPhone:  cfg.Business.Phone,
		DeliveryDays:   cfg.Business.DeliveryDays,
		SessionTTL:     cfg.Business.SessionTTL,
		Location:       loc,
		TextRateLimit:  cfg.SMS.RateLimit,
		TextRateWindow: cfg.SMS.RateWindow,
	}, quote.Deps{
		Sessions: sessionStore,
		Limiter:  sessionStore,
		Leads:    pgStorage,
		Notifier: notifier,
		Sender:   sms.NewClient(cfg.SMS.Endpoint, cfg.SMS.Token, cfg.SMS.Timeout, log),
	}, log)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Quotes: svc,
		Leads:  pgStorage,
		Checks: map[string]httpapi.Pinger{
			"redis":    redisClient,
			"postgres": pgStorage,
		},
		AdminAPIKey:    cfg.Admin.APIKey,
		BusinessPhone:  cfg.Business.Phone,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down HTTP server")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	svc.Wait()
	return nil
}

func buildNotifier(cfg *config.Config, log *zap.Logger) (quote.Notifier, error) {
	var channels notify.Multi

	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChannelID, log)
		if err != nil {
			return nil, err
		}
		channels = append(channels, tg)
	} else {
		log.Warn("Telegram lead notifications disabled")
	}

	if cfg.Email.APIKey != "" {
		channels = append(channels, notify.NewEmail(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName, cfg.Email.To, log))
	} else {
		log.Warn("Lead e-mails disabled")
	}

	if len(channels) == 0 {
		return notify.Nop{}, nil
	}
	return channels, nil
}
