package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/storage"
)

const InitDataHeader = "x-telegram-init-data"

// Backend — часть apiclient.Client, нужная сервису входа.
type Backend interface {
	Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Requires2FA  bool   `json:"requires2FA"`
	User         *User  `json:"user"`
}

type Service struct {
	api   Backend
	store Store
	log   *slog.Logger
	now   func() time.Time

	onLogout []func(sessionID string)
}

func NewService(api Backend, store Store, log *slog.Logger) *Service {
	return &Service{api: api, store: store, log: log, now: time.Now}
}

// OnLogout регистрирует хук, вызываемый синхронно при выходе.
func (s *Service) OnLogout(fn func(sessionID string)) {
	s.onLogout = append(s.onLogout, fn)
}

// Login отправляет init-data бэкенду. Если бэкенд требует 2FA, сессия
// сохраняется в состоянии ожидания кода.
func (s *Service) Login(ctx context.Context, initData string) (*Session, error) {
	const op = "session.Login"

	if initData == "" {
		return nil, fmt.Errorf("%s: init data is required", op)
	}

	var resp authResponse
	err := s.api.Do(ctx, http.MethodPost, "/admin/login", nil, &resp,
		apiclient.Anonymous(), apiclient.WithHeader(InitDataHeader, initData))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess := newSession(s.now())
	if resp.Requires2FA && resp.AccessToken == "" {
		sess.Pending2FA = true
		sess.InitData = initData
	} else if err := s.apply(sess, resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: save: %w", op, err)
	}
	return sess, nil
}

func (s *Service) Verify2FA(ctx context.Context, sessionID, otp string) (*Session, error) {
	const op = "session.Verify2FA"

	if err := storage.ValidateOTP(otp); err != nil {
		return nil, err
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !sess.Pending2FA {
		return nil, fmt.Errorf("%s: %w", op, ErrNotPending2FA)
	}

	var resp authResponse
	err = s.api.Do(ctx, http.MethodPost, "/admin/2fa/verify", map[string]string{"otp": otp}, &resp,
		apiclient.Anonymous(), apiclient.WithHeader(InitDataHeader, sess.InitData))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.apply(sess, resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sess.Pending2FA = false
	sess.InitData = ""

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: save: %w", op, err)
	}
	return sess, nil
}

// Logout очищает сессию. Отсутствующая сессия — не ошибка.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	const op = "session.Logout"

	for _, fn := range s.onLogout {
		fn(sessionID)
	}
	if err := s.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Current(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *Service) apply(sess *Session, resp authResponse) error {
	if resp.AccessToken == "" {
		return ErrInvalidToken
	}
	user := resp.User
	if user == nil {
		var err error
		user, err = DecodeUser(resp.AccessToken)
		if err != nil {
			return err
		}
	}
	sess.Tokens = apiclient.Tokens{Access: resp.AccessToken, Refresh: resp.RefreshToken}
	sess.User = user
	return nil
}
