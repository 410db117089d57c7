package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nebulahunt-admin/http-server/template"
	"nebulahunt-admin/internal/lib/api"
)

// Update сохраняет отредактированный шаблон. Обращение всегда по slug из URL,
// slug в теле игнорируется.
func Update(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Update"

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			api.Fail(w, r, http.StatusBadRequest, "slug is required")
			return
		}

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, 5<<20))
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "ошибка чтения тела запроса")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		if err := template.EnsureLoaded(ctx, wf); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}
		if err := wf.UpdateJSON(ctx, slug, raw); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wf.Snapshot())
	}
}

// Toggle переключает активность. Новое значение видно после перечитывания списка.
func Toggle(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Toggle"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		if err := wf.Toggle(ctx, chi.URLParam(r, "slug")); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wf.Snapshot())
	}
}
