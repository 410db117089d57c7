package invite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/storage"
)

type Backend interface {
	Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
	List(ctx context.Context, path string) ([]json.RawMessage, error)
}

type Service struct {
	api Backend
	log *slog.Logger
}

func NewService(api Backend, log *slog.Logger) *Service {
	return &Service{api: api, log: log}
}

func (s *Service) Send(ctx context.Context, inv storage.Invite) error {
	const op = "service.invite.Send"

	if err := inv.Validate(); err != nil {
		return err
	}
	if err := s.api.Do(ctx, http.MethodPost, "/admin/invite", inv, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// List возвращает приглашения; битые записи пропускаются.
func (s *Service) List(ctx context.Context) ([]storage.Invitation, error) {
	const op = "service.invite.List"

	raws, err := s.api.List(ctx, "/admin/invites")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	invites := make([]storage.Invitation, 0, len(raws))
	for i, raw := range raws {
		var inv storage.Invitation
		if err := json.Unmarshal(raw, &inv); err != nil {
			s.log.Warn("skipping malformed invitation", slog.String("op", op), slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}
		invites = append(invites, inv)
	}
	return invites, nil
}
