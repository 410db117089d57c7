// Package session хранит состояние входа администратора: токены бэкенда и
// пользователя, раскодированного из access-токена. Подпись токена здесь не
// проверяется — доверие целиком на стороне бэкенда.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"nebulahunt-admin/internal/apiclient"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrInvalidToken  = errors.New("invalid access token")
	ErrPending2FA    = errors.New("two-factor verification required")
	ErrNotPending2FA = errors.New("session is not awaiting two-factor verification")
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Session struct {
	ID         string           `json:"id"`
	Tokens     apiclient.Tokens `json:"tokens"`
	User       *User            `json:"user,omitempty"`
	Pending2FA bool             `json:"pending2fa"`
	// InitData нужен только до подтверждения 2FA.
	InitData  string    `json:"initData,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newSession(now time.Time) *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: now}
}

// Store — хранилище сессий (память, Redis, MySQL).
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// DecodeUser читает payload JWT без проверки подписи.
func DecodeUser(accessToken string) (*User, error) {
	const op = "session.DecodeUser"

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	u := &User{
		ID:       claimString(claims, "id"),
		Username: claimString(claims, "username"),
		Role:     claimString(claims, "role"),
	}
	if u.ID == "" {
		u.ID = claimString(claims, "sub")
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%s: %w: no subject", op, ErrInvalidToken)
	}
	return u, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Bound связывает сессию с хранилищем и реализует apiclient.TokenSource:
// обновлённые токены сохраняются, Clear удаляет сессию.
type Bound struct {
	mu    sync.Mutex
	store Store
	s     *Session
}

func Bind(store Store, s *Session) *Bound {
	return &Bound{store: store, s: s}
}

func (b *Bound) Tokens() apiclient.Tokens {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.s.Tokens
}

func (b *Bound) SetTokens(ctx context.Context, t apiclient.Tokens) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Tokens = t
	return b.store.Save(ctx, b.s)
}

func (b *Bound) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Tokens = apiclient.Tokens{}
	b.s.User = nil
	return b.store.Delete(ctx, b.s.ID)
}
