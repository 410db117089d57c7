package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/lib/api"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage"
)

type PasswordInfoProvider interface {
	Info(ctx context.Context) (storage.PasswordInfo, error)
}

type InviteLister interface {
	List(ctx context.Context) ([]storage.Invitation, error)
}

type QRProvider interface {
	QR(sessionID string) ([]byte, error)
}

type OverviewProvider interface {
	Overview(ctx context.Context, sessionID string) ([]editor.Summary, error)
}

func PasswordInfo(log *slog.Logger, passwords PasswordInfoProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.PasswordInfo"

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		info, err := passwords.Info(ctx)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, info)
	}
}

func Invites(log *slog.Logger, invites InviteLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.Invites"

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		list, err := invites.List(ctx)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, list)
	}
}

// TwoFactorQR — PNG с QR-кодом незавершённого подключения 2FA.
func TwoFactorQR(log *slog.Logger, qr QRProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.TwoFactorQR"

		png, err := qr.QR(session.FromContext(r.Context()).ID)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(png); err != nil {
			log.Error("failed to write qr", slog.String("op", op), slog.String("error", err.Error()))
		}
	}
}

// Overview — количество шаблонов по всем редакторам.
func Overview(log *slog.Logger, overview OverviewProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.Overview"

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		summaries, err := overview.Overview(ctx, session.FromContext(r.Context()).ID)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, summaries)
	}
}
