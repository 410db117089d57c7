// Package template — общее для хендлеров редакторов шаблонов.
package template

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/session"
)

// Workspace выдаёт редактор сущности для сессии.
type Workspace interface {
	Editor(sessionID, entity string) (editor.Workflow, error)
}

// Resolve находит редактор по {entity} из URL и сессии из контекста.
func Resolve(r *http.Request, ws Workspace) (editor.Workflow, error) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return nil, session.ErrNotFound
	}
	return ws.Editor(sess.ID, chi.URLParam(r, "entity"))
}

// EnsureLoaded подгружает список, если редактор ещё пуст (новая или вытесненная сессия).
// Ошибка загрузки, кроме истёкшей сессии, не мешает дальнейшей работе.
func EnsureLoaded(ctx context.Context, wf editor.Workflow) error {
	if wf.Count() > 0 {
		return nil
	}
	if err := wf.Refresh(ctx); err != nil && errors.Is(err, apiclient.ErrSessionExpired) {
		return err
	}
	return nil
}
