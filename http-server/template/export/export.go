package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nebulahunt-admin/http-server/template"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/lib/api"
	exportsvc "nebulahunt-admin/internal/service/export"
)

type SpreadsheetBuilder interface {
	XLSX(sheet string, rows []map[string]any) ([]byte, error)
	FileName(entity string) string
}

// Export отдаёт файл выгрузки: один шаблон (?slug=) или весь список,
// JSON по умолчанию или Excel (?format=xlsx, только весь список).
func Export(log *slog.Logger, ws template.Workspace, xlsx SpreadsheetBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.Export"

		slug := r.URL.Query().Get("slug")
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "xlsx" {
			api.Fail(w, r, http.StatusBadRequest, "invalid format: must be json or xlsx")
			return
		}
		if format == "xlsx" && slug != "" {
			api.Fail(w, r, http.StatusBadRequest, "xlsx export is available for the whole list only")
			return
		}

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

		var file editor.File
		switch {
		case format == "xlsx":
			file, err = spreadsheet(wf, xlsx)
		case slug != "":
			file, err = wf.ExportOne(slug)
		default:
			file, err = wf.ExportAll()
		}
		if err != nil {
			api.Handle(w, r, log, op, err)
			return
		}

		// ФОРМИРУЕМ ОТВЕТ
		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		if _, err := w.Write(file.Data); err != nil {
			log.Error("failed to write export", slog.String("op", op), slog.String("error", err.Error()))
		}
	}
}

func spreadsheet(wf editor.Workflow, xlsx SpreadsheetBuilder) (editor.File, error) {
	rows, err := wf.Rows()
	if err != nil {
		return editor.File{}, err
	}
	name := wf.Entity().Name
	data, err := xlsx.XLSX(name, rows)
	if err != nil {
		return editor.File{}, err
	}
	return editor.File{Name: xlsx.FileName(name), ContentType: exportsvc.ContentTypeXLSX, Data: data}, nil
}
