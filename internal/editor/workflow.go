package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"nebulahunt-admin/internal/storage"
)

// Workflow — нетипизированный фасад Editor[T] для HTTP-хендлеров и CLI:
// черновики приходят и уходят как JSON.
type Workflow interface {
	Entity() Entity
	Refresh(ctx context.Context) error
	Snapshot() Snapshot
	Count() int
	SetSort(field string) error
	Message() (Message, bool)

	CreateJSON(ctx context.Context, raw []byte) error
	UpdateJSON(ctx context.Context, slug string, raw []byte) error
	Import(ctx context.Context, input []byte) (ImportResult, error)
	Toggle(ctx context.Context, slug string) error

	RequestDelete(slug string) error
	ConfirmDelete(ctx context.Context) error
	CancelDelete()

	ExportOne(slug string) (File, error)
	ExportAll() (File, error)
	Rows() ([]map[string]any, error)
}

var _ Workflow = (*Editor[storage.ArtifactTemplate])(nil)

func decodeDraft[T any](raw []byte) (T, error) {
	var draft T
	if err := json.Unmarshal(raw, &draft); err != nil {
		return draft, &storage.ValidationError{Reason: fmt.Sprintf("%s: %v", ErrInvalidJSON, err)}
	}
	return draft, nil
}

func (e *Editor[T]) CreateJSON(ctx context.Context, raw []byte) error {
	e.OpenModal(ModalCreate)
	draft, err := decodeDraft[T](raw)
	if err != nil {
		e.mu.Lock()
		e.failModal(ModalCreate, err.Error())
		e.mu.Unlock()
		return err
	}
	return e.Create(ctx, draft)
}

// UpdateJSON открывает редактирование по slug из URL и сохраняет черновик.
func (e *Editor[T]) UpdateJSON(ctx context.Context, slug string, raw []byte) error {
	if _, err := e.BeginEdit(slug); err != nil {
		return err
	}
	draft, err := decodeDraft[T](raw)
	if err != nil {
		e.mu.Lock()
		e.failModal(ModalEdit, err.Error())
		e.mu.Unlock()
		return err
	}
	return e.Update(ctx, draft)
}
