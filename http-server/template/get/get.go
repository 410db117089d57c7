package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"nebulahunt-admin/http-server/template"
	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/lib/api"
)

// List перечитывает коллекцию и отдаёт состояние редактора.
// Ошибка загрузки не ломает ответ: прежний список и баннер с ошибкой остаются в состоянии.
func List(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.List"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		if sort := r.URL.Query().Get("sort"); sort != "" {
			if err := wf.SetSort(sort); err != nil {
				api.Handle(w, r, log, op, err)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := wf.Refresh(ctx); err != nil {
			if errors.Is(err, apiclient.ErrSessionExpired) {
				api.Handle(w, r, log, op, err)
				return
			}
			log.With(slog.String("op", op), slog.String("entity", wf.Entity().Name)).Warn("serving stale list")
		}

		render.JSON(w, r, wf.Snapshot())
	}
}

// Snapshot отдаёт состояние редактора без обращения к бэкенду.
func Snapshot(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Snapshot"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wf.Snapshot())
	}
}

// Message отдаёт текущий баннер; после истечения срока — 204.
func Message(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Message"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		msg, ok := wf.Message()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		render.JSON(w, r, msg)
	}
}
