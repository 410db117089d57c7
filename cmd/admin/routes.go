package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	getadmin "nebulahunt-admin/http-server/admin/get"
	saveadmin "nebulahunt-admin/http-server/admin/save"
	upadmin "nebulahunt-admin/http-server/admin/update"
	authhandler "nebulahunt-admin/http-server/auth"
	exporttemplate "nebulahunt-admin/http-server/template/export"
	gettemplate "nebulahunt-admin/http-server/template/get"
	removetemplate "nebulahunt-admin/http-server/template/remove"
	savetemplate "nebulahunt-admin/http-server/template/save"
	uptemplate "nebulahunt-admin/http-server/template/update"
	"nebulahunt-admin/internal/config"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/middleware/auth"
	"nebulahunt-admin/internal/middleware/ratelimit"
	"nebulahunt-admin/internal/service/export"
	"nebulahunt-admin/internal/service/invite"
	"nebulahunt-admin/internal/service/password"
	"nebulahunt-admin/internal/service/twofactor"
	"nebulahunt-admin/internal/session"
)

type dependencies struct {
	store     session.Store
	sessions  *session.Service
	workspace *editor.Workspace
	twoFactor *twofactor.Service
	passwords *password.Service
	invites   *invite.Service
	exporter  *export.Service
	registry  *prometheus.Registry
}

func routes(cfg config.Config, log *slog.Logger, deps dependencies) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins, // фронтенд дашборда
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", session.InitDataHeader},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	cookies := auth.Cookies{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
		TTL:    cfg.Session.TTL,
	}
	loginLimiter := ratelimit.New(cfg.LoginRate.Interval, cfg.LoginRate.Burst)

	adminRouter := chi.NewRouter()

	// Вход и выход доступны без сессии
	adminRouter.With(loginLimiter.Handler).Post("/login", authhandler.Login(log, deps.sessions, cookies))
	adminRouter.With(loginLimiter.Handler).Post("/2fa/verify", authhandler.Verify2FA(log, deps.sessions, cookies))
	adminRouter.Post("/logout", authhandler.Logout(log, deps.sessions, cookies))

	adminRouter.Group(func(r chi.Router) {
		r.Use(auth.Session(log, deps.sessions, deps.store, cookies))

		r.Get("/me", authhandler.Me(log))

		// 2FA
		r.Post("/2fa/setup", saveadmin.SetupTwoFactor(log, deps.twoFactor))
		r.Get("/2fa/qr", getadmin.TwoFactorQR(log, deps.twoFactor))
		r.Post("/2fa/complete", upadmin.CompleteTwoFactor(log, deps.twoFactor))
		r.Post("/2fa/disable", upadmin.DisableTwoFactor(log, deps.twoFactor))

		r.Post("/password/change", upadmin.ChangePassword(log, deps.passwords))
		r.Get("/password/info", getadmin.PasswordInfo(log, deps.passwords))

		r.Post("/invite", saveadmin.SendInvite(log, deps.invites))
		r.Get("/invites", getadmin.Invites(log, deps.invites))

		r.Get("/overview", getadmin.Overview(log, deps.workspace))

		// Редакторы шаблонов: artifacts, tasks, upgrades, events, packages, commissions, game-constants
		r.Route("/{entity}", func(r chi.Router) {
			r.Get("/", gettemplate.List(log, deps.workspace))
			r.Post("/", savetemplate.Create(log, deps.workspace))
			r.Get("/state", gettemplate.Snapshot(log, deps.workspace))
			r.Get("/message", gettemplate.Message(log, deps.workspace))
			r.Post("/import", savetemplate.Import(log, deps.workspace))
			r.Get("/export", exporttemplate.Export(log, deps.workspace, deps.exporter))
			r.Post("/delete/confirm", removetemplate.Confirm(log, deps.workspace))
			r.Post("/delete/cancel", removetemplate.Cancel(log, deps.workspace))
			r.Put("/{slug}", uptemplate.Update(log, deps.workspace))
			r.Post("/{slug}/toggle", uptemplate.Toggle(log, deps.workspace))
			r.Post("/{slug}/delete", removetemplate.Request(log, deps.workspace))
		})
	})

	router.Mount("/api/admin", adminRouter)

	router.With(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass)).
		Handle("/metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))

	// Статика SPA
	frontendDir := cfg.FrontendDir
	if _, err := os.Stat(frontendDir); os.IsNotExist(err) {
		log.Warn("Папка фронтенда не найдена, отдаём только API", "path", frontendDir)
		return router
	}

	//Отдаём статические файлы: assets/, js/, css/, img/, favicon.ico и т.д.
	fileServer := http.StripPrefix("/", http.FileServer(http.Dir(frontendDir)))

	router.Handle("/assets/*", fileServer)
	router.Handle("/js/*", fileServer)
	router.Handle("/css/*", fileServer)
	router.Handle("/img/*", fileServer)

	//SPA fallback: любой другой путь → index.html
	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		// Проверяем, существует ли файл — если да, отдаем его
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		// Иначе — SPA
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})

	return router
}
