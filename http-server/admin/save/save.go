package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"nebulahunt-admin/internal/lib/api"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage"
)

type InviteSender interface {
	Send(ctx context.Context, inv storage.Invite) error
}

type TwoFactorStarter interface {
	Setup(ctx context.Context, sessionID string) (storage.TwoFactorSetup, error)
}

func SendInvite(log *slog.Logger, invites InviteSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SendInvite"

		var req storage.Invite
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := invites.Send(ctx, req); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		log.With(slog.String("op", op), slog.String("email", req.Email)).Info("invitation sent")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{"message": "Invitation sent"})
	}
}

// SetupTwoFactor начинает подключение 2FA: секрет и otpauth-ссылка.
// QR-картинка для той же ссылки отдаётся отдельно.
func SetupTwoFactor(log *slog.Logger, twoFactor TwoFactorStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SetupTwoFactor"

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		setup, err := twoFactor.Setup(ctx, session.FromContext(r.Context()).ID)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, setup)
	}
}
