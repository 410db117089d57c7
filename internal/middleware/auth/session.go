package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/lib/api"
	"nebulahunt-admin/internal/session"
)

type SessionProvider interface {
	Current(ctx context.Context, sessionID string) (*session.Session, error)
}

// Cookies выдаёт и сбрасывает cookie сессии.
type Cookies struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c Cookies) Set(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Session пропускает только вошедшего администратора. Сессия и её токены
// кладутся в контекст запроса; apiclient берёт их оттуда.
func Session(log *slog.Logger, sessions SessionProvider, store session.Store, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.auth.Session"

			id := cookies.Read(r)
			if id == "" {
				api.Handle(w, r, log, op, session.ErrNotFound)
				return
			}

			sess, err := sessions.Current(r.Context(), id)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					cookies.Clear(w)
				}
				api.Handle(w, r, log, op, err)
				return
			}
			if sess.Pending2FA {
				api.Handle(w, r, log, op, session.ErrPending2FA)
				return
			}

			ctx := session.WithSession(r.Context(), sess)
			ctx = apiclient.WithTokenSource(ctx, session.Bind(store, sess))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
