package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	mwauth "nebulahunt-admin/internal/middleware/auth"
	"nebulahunt-admin/internal/lib/api"
	"nebulahunt-admin/internal/session"
)

type SessionService interface {
	Login(ctx context.Context, initData string) (*session.Session, error)
	Verify2FA(ctx context.Context, sessionID, otp string) (*session.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type LoginResponse struct {
	Requires2FA bool          `json:"requires2FA"`
	User        *session.User `json:"user,omitempty"`
}

// Login принимает init-data из заголовка или из тела {initData}.
func Login(log *slog.Logger, sessions SessionService, cookies mwauth.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Login"

		initData := r.Header.Get(session.InitDataHeader)
		if initData == "" {
			var req struct {
				InitData string `json:"initData"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				initData = req.InitData
			}
		}
		if initData == "" {
			log.With(slog.String("op", op)).Warn("missing init data")
			api.Fail(w, r, http.StatusBadRequest, "init data is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		sess, err := sessions.Login(ctx, initData)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		cookies.Set(w, sess.ID)
		render.JSON(w, r, LoginResponse{Requires2FA: sess.Pending2FA, User: sess.User})
	}
}

// Verify2FA завершает вход, начатый Login с requires2FA.
func Verify2FA(log *slog.Logger, sessions SessionService, cookies mwauth.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Verify2FA"

		id := cookies.Read(r)
		if id == "" {
			api.Handle(w, r, log, op, session.ErrNotFound)
			return
		}

		var req struct {
			OTP string `json:"otp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		sess, err := sessions.Verify2FA(ctx, id, req.OTP)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		cookies.Set(w, sess.ID)
		render.JSON(w, r, LoginResponse{User: sess.User})
	}
}

func Logout(log *slog.Logger, sessions SessionService, cookies mwauth.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Logout"

		if id := cookies.Read(r); id != "" {
			if err := sessions.Logout(r.Context(), id); err != nil {
				log.With(slog.String("op", op), slog.String("error", err.Error())).Error("failed to drop session")
			}
		}

		cookies.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// Me — текущий пользователь; вызывается за middleware сессии.
func Me(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Me"

		sess := session.FromContext(r.Context())
		if sess == nil || sess.User == nil {
			api.Handle(w, r, log, op, session.ErrNotFound)
			return
		}

		render.JSON(w, r, sess.User)
	}
}
