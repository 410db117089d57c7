package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"nebulahunt-admin/internal/apiclient"
)

var ErrUnknownEntity = errors.New("unknown entity")

// sessionEditors — редакторы одной сессии, создаются лениво.
type sessionEditors struct {
	mu      sync.Mutex
	editors map[string]Workflow
}

// Workspace держит состояние редакторов по сессиям. Неиспользуемые сессии
// вытесняются по ttl, как закрытая вкладка браузера.
type Workspace struct {
	api       Backend
	log       *slog.Logger
	settings  Settings
	factories map[string]Factory
	order     []Entity
	sessions  *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
}

func NewWorkspace(api Backend, log *slog.Logger, settings Settings, ttl time.Duration, factories []Factory) *Workspace {
	w := &Workspace{
		api:       api,
		log:       log,
		settings:  settings,
		factories: make(map[string]Factory, len(factories)),
		sessions:  cache.New(ttl, ttl),
		ttl:       ttl,
	}
	for _, f := range factories {
		w.factories[f.Entity.Name] = f
		w.order = append(w.order, f.Entity)
	}
	return w
}

func (w *Workspace) Entities() []Entity {
	return w.order
}

func (w *Workspace) session(sessionID string) *sessionEditors {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v, ok := w.sessions.Get(sessionID); ok {
		se := v.(*sessionEditors)
		w.sessions.Set(sessionID, se, w.ttl)
		return se
	}
	se := &sessionEditors{editors: make(map[string]Workflow)}
	w.sessions.Set(sessionID, se, w.ttl)
	return se
}

// Editor возвращает редактор сущности для сессии.
func (w *Workspace) Editor(sessionID, entity string) (Workflow, error) {
	f, ok := w.factories[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}

	se := w.session(sessionID)
	se.mu.Lock()
	defer se.mu.Unlock()

	ed, ok := se.editors[entity]
	if !ok {
		ed = f.New(w.api, w.log, w.settings)
		se.editors[entity] = ed
	}
	return ed, nil
}

// Drop забывает состояние редакторов сессии (выход из панели).
func (w *Workspace) Drop(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessions.Delete(sessionID)
}

type Summary struct {
	Entity Entity `json:"entity"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

// Overview параллельно перечитывает все коллекции сессии. Ошибка одной
// коллекции не мешает остальным, кроме истёкшей сессии.
func (w *Workspace) Overview(ctx context.Context, sessionID string) ([]Summary, error) {
	const op = "editor.Workspace.Overview"

	summaries := make([]Summary, len(w.order))
	g, gCtx := errgroup.WithContext(ctx)

	for i, entity := range w.order {
		ed, err := w.Editor(sessionID, entity.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		g.Go(func() error {
			summaries[i] = Summary{Entity: entity}
			if err := ed.Refresh(gCtx); err != nil {
				if errors.Is(err, apiclient.ErrSessionExpired) {
					return err
				}
				summaries[i].Error = apiclient.MessageOf(err, "Failed to load "+entity.Title)
				return nil
			}
			summaries[i].Count = ed.Count()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return summaries, nil
}
