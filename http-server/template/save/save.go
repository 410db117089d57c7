package save

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"nebulahunt-admin/http-server/template"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/lib/api"
)

const maxBody = 5 << 20

type ImportResponse struct {
	editor.ImportResult
	State editor.Snapshot `json:"state"`
}

// Create принимает черновик шаблона JSON-объектом.
func Create(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Create"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
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
		if err := wf.CreateJSON(ctx, raw); err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, wf.Snapshot())
	}
}

// Import принимает JSON телом запроса или файлом (multipart, поле file).
func Import(log *slog.Logger, ws template.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Import"

		wf, err := template.Resolve(r, ws)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		input, err := readImport(r)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("bad import upload")
			api.Fail(w, r, http.StatusBadRequest, err.Error())
			return
		}

		// Последовательный импорт событий может идти долго.
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		res, err := wf.Import(ctx, input)
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		render.JSON(w, r, ImportResponse{ImportResult: res, State: wf.Snapshot()})
	}
}

func readImport(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(io.LimitReader(r.Body, maxBody))
	}

	if err := r.ParseMultipartForm(maxBody); err != nil {
		return nil, fmt.Errorf("ошибка разбора формы: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("файл не передан: %w", err)
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, maxBody))
}
