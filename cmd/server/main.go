package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"casamento-presentes/internal/catalog"
	"casamento-presentes/internal/checkout"
	"casamento-presentes/internal/config"
	"casamento-presentes/internal/db"
	"casamento-presentes/internal/fallback"
	"casamento-presentes/internal/gifts"
	"casamento-presentes/internal/handlers"
	"casamento-presentes/internal/logging"
	"casamento-presentes/internal/metrics"
	"casamento-presentes/internal/middleware"
	"casamento-presentes/internal/models"
	"casamento-presentes/internal/notify"
	"casamento-presentes/internal/sheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server.exit", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("shutdown.close.fail", "err", err)
			}
		}
	}()

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}

	seed := gifts.SeedRows()
	if cfg.SeedFile != "" {
		if seed, err = gifts.LoadSeedFile(cfg.SeedFile); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	table, closeStore, err := openStore(ctx, cfg, seed, log)
	if err != nil {
		return err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	policy, closePolicy, err := newFallback(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closePolicy != nil {
		closers = append(closers, closePolicy)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramAdminChatID, log)
		if err != nil {
			log.Warn("telegram.init.fail", "err", err)
		} else {
			notifier = tg
			go tg.Listen(ctx)
		}
	} else {
		log.Warn("telegram.disabled", "reason", "TELEGRAM_TOKEN not set")
	}

	m := metrics.New()

	svc, err := gifts.NewService(table,
		gifts.WithFallback(policy),
		gifts.WithCatalog(cat),
		gifts.WithNotifier(notifier),
		gifts.WithMetrics(m),
		gifts.WithLogger(log),
		gifts.WithRetries(uint64(cfg.ReserveMaxRetries), cfg.ReserveBackoff),
	)
	if err != nil {
		return err
	}

	flow := checkout.NewFlow(svc, cfg.WhatsAppNumber, cfg.CheckoutConcurrency, log)

	router := handlers.NewRouter(handlers.New(svc, flow, log), handlers.RouterConfig{
		Admin: middleware.AdminAuth{
			Password: cfg.AdminPassword,
			BotToken: cfg.TelegramToken,
			AdminIDs: cfg.AdminTelegramIDs,
			Log:      log,
		},
		Metrics: m.Handler(),
		Log:     log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	log.Info("server.start", "addr", srv.Addr, "store", cfg.Store, "fallback", policy.Name())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server.stop", "reason", "signal")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server.stopped")
	return nil
}

// openStore picks the backend. seed fills an empty libSQL database or the in-memory store;
// a spreadsheet is never written to at startup.
func openStore(ctx context.Context, cfg config.Config, seed []map[string]string, log *slog.Logger) (sheet.Table, func() error, error) {
	switch cfg.Store {
	case config.StoreSheets:
		t, err := sheet.NewGoogleTable(ctx, sheet.GoogleConfig{
			SpreadsheetID:  cfg.SheetID,
			SheetName:      cfg.SheetName,
			ClientEmail:    cfg.ServiceAccountMail,
			PrivateKey:     cfg.PrivateKey,
			NumericColumns: models.NumericColumns,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("store.sheets", "sheet", cfg.SheetName)
		return t, nil, nil

	case config.StoreLibSQL:
		conn, err := db.Open(ctx, cfg.TursoURL, cfg.TursoAuthToken)
		if err != nil {
			return nil, nil, fmt.Errorf("libsql: %w", err)
		}
		t := sheet.NewSQLTable(conn)
		if err := t.EnsureHeader(ctx, models.Columns); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("libsql: %w", err)
		}
		n, err := t.SeedIfEmpty(ctx, seed)
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("libsql: %w", err)
		}
		log.Info("store.libsql", "seeded_rows", n)
		return t, conn.Close, nil

	default:
		log.Warn("store.memory", "reason", "no sheet or database configured; serving seed gifts")
		return gifts.NewSeededTable(seed), nil, nil
	}
}

func newFallback(ctx context.Context, cfg config.Config, log *slog.Logger) (gifts.FallbackPolicy, func() error, error) {
	static := fallback.NewStatic(gifts.SeedGifts())
	if cfg.FallbackFile != "" {
		list, err := fallback.LoadFile(cfg.FallbackFile)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback: %w", err)
		}
		static = fallback.NewStatic(list)
	}

	if cfg.FallbackPolicy != fallback.PolicyLastKnownGood {
		return static, nil, nil
	}

	if cfg.RedisAddr == "" {
		log.Info("fallback.cache", "backend", "memory")
		return fallback.NewLastKnownGood(fallback.NewMemoryCache(), static, cfg.FallbackTTL), nil, nil
	}

	rc, err := fallback.NewRedisCache(ctx, fallback.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	log.Info("fallback.cache", "backend", "redis", "addr", cfg.RedisAddr)
	return fallback.NewLastKnownGood(rc, static, cfg.FallbackTTL), rc.Close, nil
}
