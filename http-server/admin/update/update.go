package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nebulahunt-admin/internal/lib/api"
	"nebulahunt-admin/internal/service/password"
	"nebulahunt-admin/internal/session"
)

type PasswordChanger interface {
	Change(ctx context.Context, req password.ChangeRequest) error
}

type TwoFactorUpdater interface {
	Complete(ctx context.Context, sessionID, otp string) error
	Disable(ctx context.Context, otp string) error
}

type otpRequest struct {
	OTP string `json:"otp"`
}

// ChangePassword — смена пароля. Кириллица и несовпадение подтверждения
// отклоняются без запроса к бэкенду.
func ChangePassword(log *slog.Logger, passwords PasswordChanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.ChangePassword"

		var req password.ChangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "Неверный JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := passwords.Change(ctx, req); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CompleteTwoFactor(log *slog.Logger, twoFactor TwoFactorUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.CompleteTwoFactor"

		var req otpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "Неверный JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := twoFactor.Complete(ctx, session.FromContext(r.Context()).ID, req.OTP); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DisableTwoFactor(log *slog.Logger, twoFactor TwoFactorUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.DisableTwoFactor"

		var req otpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "Неверный JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := twoFactor.Disable(ctx, req.OTP); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
