// Package twofactor — подключение и отключение 2FA администратора.
// Секрет из setup держится в памяти до complete, чтобы отдать QR-код.
package twofactor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/skip2/go-qrcode"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/storage"
)

const (
	pendingTTL = 10 * time.Minute
	qrSize     = 256
)

var ErrNoPendingSetup = errors.New("two-factor setup is not started")

type Backend interface {
	Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
}

type Service struct {
	api     Backend
	pending *cache.Cache
}

func NewService(api Backend) *Service {
	return &Service{api: api, pending: cache.New(pendingTTL, pendingTTL)}
}

// Setup запрашивает новый секрет и запоминает его для сессии.
func (s *Service) Setup(ctx context.Context, sessionID string) (storage.TwoFactorSetup, error) {
	const op = "service.twofactor.Setup"

	var setup storage.TwoFactorSetup
	if err := s.api.Do(ctx, http.MethodPost, "/admin/2fa/setup", nil, &setup); err != nil {
		return setup, fmt.Errorf("%s: %w", op, err)
	}
	if setup.OTPAuthURL == "" {
		return setup, fmt.Errorf("%s: backend returned no otpauth url", op)
	}

	s.pending.SetDefault(sessionID, setup)
	return setup, nil
}

// QR — PNG с otpauth-ссылкой последнего setup сессии.
func (s *Service) QR(sessionID string) ([]byte, error) {
	const op = "service.twofactor.QR"

	v, ok := s.pending.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPendingSetup)
	}
	setup := v.(storage.TwoFactorSetup)

	png, err := qrcode.Encode(setup.OTPAuthURL, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}

func (s *Service) Complete(ctx context.Context, sessionID, otp string) error {
	const op = "service.twofactor.Complete"

	if err := storage.ValidateOTP(otp); err != nil {
		return err
	}
	if _, ok := s.pending.Get(sessionID); !ok {
		return fmt.Errorf("%s: %w", op, ErrNoPendingSetup)
	}
	if err := s.api.Do(ctx, http.MethodPost, "/admin/2fa/complete", map[string]string{"otp": otp}, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.pending.Delete(sessionID)
	return nil
}

func (s *Service) Disable(ctx context.Context, otp string) error {
	const op = "service.twofactor.Disable"

	if err := storage.ValidateOTP(otp); err != nil {
		return err
	}
	if err := s.api.Do(ctx, http.MethodPost, "/admin/2fa/disable", map[string]string{"otp": otp}, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Forget сбрасывает незавершённый setup (при выходе).
func (s *Service) Forget(sessionID string) {
	s.pending.Delete(sessionID)
}
