package remove

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nebulahunt-admin/http-server/template"
	"nebulahunt-admin/internal/lib/api"
)

// Request запоминает шаблон к удалению; к бэкенду не обращается.
func Request(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.remove.Request"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := template.EnsureLoaded(ctx, wf); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}
		if err := wf.RequestDelete(chi.URLParam(r, "slug")); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wf.Snapshot())
	}
}

func Confirm(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.remove.Confirm"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		if err := wf.ConfirmDelete(ctx); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wf.Snapshot())
	}
}

func Cancel(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.remove.Cancel"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		wf.CancelDelete()
		render.JSON(w, r, wf.Snapshot())
	}
}
