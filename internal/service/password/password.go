package password

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/storage"
)

var (
	ErrMismatch = &storage.ValidationError{Field: "confirmPassword", Reason: "Passwords do not match"}
	ErrCyrillic = &storage.ValidationError{Field: "newPassword", Reason: "Password must not contain Cyrillic characters"}
	ErrRequired = &storage.ValidationError{Field: "newPassword", Reason: "New password is required"}
	ErrConfirm  = &storage.ValidationError{Field: "confirmPassword", Reason: "Please confirm the new password"}
)

var cyrillic = regexp.MustCompile(`(?i)[а-яё]`)

// Mismatch — флаг формы: оба поля заполнены и различаются.
func Mismatch(newPassword, confirm string) bool {
	return newPassword != "" && confirm != "" && newPassword != confirm
}

func HasCyrillic(s string) bool {
	return cyrillic.MatchString(s)
}

type ChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate выполняется до любого сетевого запроса.
func (r ChangeRequest) Validate() error {
	if r.NewPassword == "" {
		return ErrRequired
	}
	if HasCyrillic(r.NewPassword) {
		return ErrCyrillic
	}
	if r.ConfirmPassword == "" {
		return ErrConfirm
	}
	if Mismatch(r.NewPassword, r.ConfirmPassword) {
		return ErrMismatch
	}
	return nil
}

type Backend interface {
	Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
}

type Service struct {
	api Backend
}

func NewService(api Backend) *Service {
	return &Service{api: api}
}

func (s *Service) Change(ctx context.Context, req ChangeRequest) error {
	const op = "service.password.Change"

	if err := req.Validate(); err != nil {
		return err
	}

	body := map[string]string{
		"currentPassword": req.CurrentPassword,
		"newPassword":     req.NewPassword,
	}
	if err := s.api.Do(ctx, http.MethodPost, "/admin/password/change", body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Info(ctx context.Context) (storage.PasswordInfo, error) {
	const op = "service.password.Info"

	var info storage.PasswordInfo
	if err := s.api.Do(ctx, http.MethodGet, "/admin/password/info", nil, &info); err != nil {
		return info, fmt.Errorf("%s: %w", op, err)
	}
	return info, nil
}

// IsRejected — ошибка локальной проверки пароля.
func IsRejected(err error) bool {
	return errors.Is(err, ErrMismatch) ||
		errors.Is(err, ErrCyrillic) ||
		errors.Is(err, ErrRequired) ||
		errors.Is(err, ErrConfirm)
}
