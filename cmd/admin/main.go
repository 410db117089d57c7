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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/config"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/service/export"
	"nebulahunt-admin/internal/service/invite"
	"nebulahunt-admin/internal/service/password"
	"nebulahunt-admin/internal/service/twofactor"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := apiclient.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log,
		apiclient.WithMetrics(apiclient.NewMetrics(reg)))

	store, closeStore, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init session store", slog.String("store", cfg.Session.Store), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	sessions := session.NewService(client, store, log)
	workspace := editor.NewWorkspace(client, log, editor.Settings{MessageTTL: cfg.MessageTTL}, cfg.Session.TTL, editor.Catalog())
	twoFactor := twofactor.NewService(client)

	// Выход сбрасывает состояние редакторов и незавершённый setup 2FA.
	sessions.OnLogout(workspace.Drop)
	sessions.OnLogout(twoFactor.Forget)

	deps := dependencies{
		store:     store,
		sessions:  sessions,
		workspace: workspace,
		twoFactor: twoFactor,
		passwords: password.NewService(client),
		invites:   invite.NewService(client, log),
		exporter:  export.NewService(),
		registry:  reg,
	}

	log.Info("server started", slog.String("address", cfg.Address), slog.String("backend", cfg.Backend.BaseURL))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, deps),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

// newSessionStore выбирает хранилище сессий по конфигу.
func newSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return session.NewRedisStore(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil

	case "mysql":
		storage, err := mysql.New(cfg.DSN(), cfg.Session.TTL)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, nil, err
		}
		go purgeSessions(ctx, storage, log)
		return storage, func() { _ = storage.Close() }, nil

	default:
		return session.NewMemoryStore(cfg.Session.TTL), func() {}, nil
	}
}

func purgeSessions(ctx context.Context, storage *mysql.Storage, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := storage.PurgeExpired(ctx)
			if err != nil {
				log.Error("failed to purge sessions", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				log.Debug("expired sessions purged", slog.Int64("count", n))
			}
		}
	}
}

type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	// Всегда пишем в основной вывод (stdout)
	if h.coreHandler.Enabled(ctx, r.Level) {
		if err = h.coreHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	// Ошибки дублируются в файл; сбой файла не роняет основной лог
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	// Основной handler: JSON для dev, текст для остальных
	var coreHandler slog.Handler
	switch env {
	case envDev:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	// Файловый handler — только ошибки
	errorFile, err := os.OpenFile("errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		slog.Warn("Cannot open error log file", "error", err)
		return slog.New(coreHandler)
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
