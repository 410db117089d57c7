// Package editor реализует рабочий цикл редактора шаблонов: список, создание,
// редактирование, переключение активности, удаление с подтверждением,
// импорт и экспорт JSON. Один экземпляр на тип сущности и сессию.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/storage"
)

var (
	ErrNotFound         = errors.New("template not found")
	ErrNotEditing       = errors.New("no template is being edited")
	ErrNoPendingDelete  = errors.New("no template selected for deletion")
	ErrUnsupportedSort  = errors.New("unsupported sort field")
	ErrSlugAlreadyTaken = errors.New("slug already exists")
)

type Modal string

const (
	ModalCreate Modal = "create"
	ModalEdit   Modal = "edit"
	ModalImport Modal = "import"
	ModalDelete Modal = "delete"
)

type ModalState string

const (
	ModalClosed     ModalState = "closed"
	ModalOpen       ModalState = "open"
	ModalSubmitting ModalState = "submitting"
)

type ModalView struct {
	State ModalState `json:"state"`
	Error string     `json:"error,omitempty"`
}

type SortView struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Snapshot — состояние редактора для отдачи во фронтенд.
type Snapshot struct {
	Entity        Entity              `json:"entity"`
	Data          any                 `json:"data"`
	Loading       bool                `json:"loading"`
	Message       *Message            `json:"message,omitempty"`
	Modals        map[Modal]ModalView `json:"modals"`
	Editing       string              `json:"editing,omitempty"`
	PendingDelete string              `json:"pendingDelete,omitempty"`
	ImportInput   string              `json:"importInput,omitempty"`
	ImportError   string              `json:"importError,omitempty"`
	Sort          *SortView           `json:"sort,omitempty"`
}

// File — результат экспорта, отдаётся как скачиваемый файл.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Editor[T storage.Record[T]] struct {
	mu sync.Mutex

	entity Entity
	api    Backend
	log    *slog.Logger
	banner *Banner
	now    func() time.Time

	templates []T
	modals    map[Modal]ModalView

	// loading и last читаются без mu: пока операция держит редактор,
	// Snapshot отдаёт последнее опубликованное состояние.
	loading atomic.Bool
	last    atomic.Pointer[Snapshot]

	editingSlug   string
	pendingDelete *T
	jsonInput     string
	jsonError     string

	sortFields map[string]func(a, b T) int
	sortField  string
	sortDesc   bool
}

type Option[T storage.Record[T]] func(*Editor[T])

func WithMessageTTL[T storage.Record[T]](ttl time.Duration) Option[T] {
	return func(e *Editor[T]) { e.banner = NewBanner(ttl, e.now) }
}

func WithClock[T storage.Record[T]](now func() time.Time) Option[T] {
	return func(e *Editor[T]) {
		e.now = now
		e.banner.now = now
	}
}

func WithSortFields[T storage.Record[T]](fields map[string]func(a, b T) int) Option[T] {
	return func(e *Editor[T]) { e.sortFields = fields }
}

func New[T storage.Record[T]](entity Entity, api Backend, log *slog.Logger, opts ...Option[T]) *Editor[T] {
	e := &Editor[T]{
		entity: entity,
		api:    api,
		log:    log.With(slog.String("entity", entity.Name)),
		now:    time.Now,
		modals: make(map[Modal]ModalView),
	}
	e.banner = NewBanner(DefaultMessageTTL, e.now)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor[T]) Entity() Entity {
	return e.entity
}

// Refresh перечитывает коллекцию. При ошибке прежний список остаётся.
func (e *Editor[T]) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refresh(ctx)
}

func (e *Editor[T]) refresh(ctx context.Context) error {
	const op = "editor.Refresh"

	e.publish()
	e.loading.Store(true)
	defer e.loading.Store(false)

	raws, err := e.api.List(ctx, e.entity.Path)
	if err != nil {
		e.log.Error("failed to fetch templates", slog.String("op", op), slog.String("error", err.Error()))
		e.banner.Set(apiclient.MessageOf(err, "Failed to load "+e.entity.Title), MessageError)
		return fmt.Errorf("%s: %w", op, err)
	}

	list := make([]T, 0, len(raws))
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			e.log.Warn("skipping malformed template", slog.String("op", op), slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}
		list = append(list, item)
	}
	e.templates = list
	return nil
}

// Templates возвращает копию списка с учётом выбранной сортировки.
func (e *Editor[T]) Templates() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sorted()
}

func (e *Editor[T]) sorted() []T {
	list := slices.Clone(e.templates)
	compare, ok := e.sortFields[e.sortField]
	if !ok {
		return list
	}
	slices.SortStableFunc(list, func(a, b T) int {
		if e.sortDesc {
			return -compare(a, b)
		}
		return compare(a, b)
	})
	return list
}

// SetSort выбирает поле сортировки; повторный выбор того же поля меняет направление.
func (e *Editor[T]) SetSort(field string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sortFields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedSort, field)
	}
	if e.sortField == field {
		e.sortDesc = !e.sortDesc
		return nil
	}
	e.sortField = field
	e.sortDesc = false
	return nil
}

func (e *Editor[T]) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.templates)
}

func (e *Editor[T]) Message() (Message, bool) {
	return e.banner.Current()
}

func (e *Editor[T]) DismissMessage() {
	e.banner.Dismiss()
}

func (e *Editor[T]) OpenModal(m Modal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modals[m] = ModalView{State: ModalOpen}
}

func (e *Editor[T]) CloseModal(m Modal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeModal(m)
}

func (e *Editor[T]) ModalState(m Modal) ModalView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modal(m)
}

func (e *Editor[T]) modal(m Modal) ModalView {
	v, ok := e.modals[m]
	if !ok {
		return ModalView{State: ModalClosed}
	}
	return v
}

func (e *Editor[T]) closeModal(m Modal) {
	delete(e.modals, m)
	switch m {
	case ModalEdit:
		e.editingSlug = ""
	case ModalDelete:
		e.pendingDelete = nil
	case ModalImport:
		e.jsonInput = ""
		e.jsonError = ""
	}
}

func (e *Editor[T]) failModal(m Modal, text string) {
	e.modals[m] = ModalView{State: ModalOpen, Error: text}
}

func (e *Editor[T]) find(slug string) (T, bool) {
	for _, t := range e.templates {
		if t.Key() == slug {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Create проверяет черновик и отправляет его массивом из одного элемента.
func (e *Editor[T]) Create(ctx context.Context, draft T) error {
	const op = "editor.Create"

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := draft.Validate(); err != nil {
		e.failModal(ModalCreate, err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, exists := e.find(draft.Key()); exists {
		err := fmt.Errorf("%w: %q", ErrSlugAlreadyTaken, draft.Key())
		e.failModal(ModalCreate, err.Error())
		return fmt.Errorf("%s: %w", op, &storage.ValidationError{Field: "slug", Reason: err.Error()})
	}

	e.modals[ModalCreate] = ModalView{State: ModalSubmitting}
	if err := e.api.Send(ctx, http.MethodPost, e.entity.Path, []T{draft.Stripped()}); err != nil {
		return e.fail(op, ModalCreate, err, "Failed to create template")
	}

	e.closeModal(ModalCreate)
	e.banner.Set("Template created successfully", MessageSuccess)
	_ = e.refresh(ctx)
	return nil
}

// BeginEdit запоминает исходный slug; Update всегда обращается по нему.
func (e *Editor[T]) BeginEdit(slug string) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.find(slug)
	if !ok {
		return t, fmt.Errorf("editor.BeginEdit: %w: %q", ErrNotFound, slug)
	}
	e.editingSlug = slug
	e.modals[ModalEdit] = ModalView{State: ModalOpen}
	return t, nil
}

func (e *Editor[T]) Update(ctx context.Context, draft T) error {
	const op = "editor.Update"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.editingSlug == "" {
		return fmt.Errorf("%s: %w", op, ErrNotEditing)
	}
	slug := e.editingSlug
	draft = draft.WithKey(slug)

	if err := draft.Validate(); err != nil {
		e.failModal(ModalEdit, err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}

	e.modals[ModalEdit] = ModalView{State: ModalSubmitting}
	if err := e.api.Send(ctx, http.MethodPut, e.entity.itemPath(slug), draft.Stripped()); err != nil {
		return e.fail(op, ModalEdit, err, "Failed to update template")
	}

	e.closeModal(ModalEdit)
	e.banner.Set("Template updated successfully", MessageSuccess)
	_ = e.refresh(ctx)
	return nil
}

// Toggle не вычисляет новое значение локально — результат виден после перечитывания.
func (e *Editor[T]) Toggle(ctx context.Context, slug string) error {
	const op = "editor.Toggle"

	e.mu.Lock()
	defer e.mu.Unlock()

	method, path := e.entity.toggleRequest(slug)
	if err := e.api.Send(ctx, method, path, nil); err != nil {
		e.log.Error("failed to toggle template", slog.String("op", op), slog.String("slug", slug), slog.String("error", err.Error()))
		e.banner.Set(apiclient.MessageOf(err, "Failed to update template status"), MessageError)
		return fmt.Errorf("%s: %w", op, err)
	}

	e.banner.Set("Template status updated", MessageSuccess)
	_ = e.refresh(ctx)
	return nil
}

// RequestDelete открывает подтверждение; запроса к бэкенду нет.
func (e *Editor[T]) RequestDelete(slug string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.find(slug)
	if !ok {
		return fmt.Errorf("editor.RequestDelete: %w: %q", ErrNotFound, slug)
	}
	e.pendingDelete = &t
	e.modals[ModalDelete] = ModalView{State: ModalOpen}
	return nil
}

func (e *Editor[T]) CancelDelete() {
	e.CloseModal(ModalDelete)
}

func (e *Editor[T]) ConfirmDelete(ctx context.Context) error {
	const op = "editor.ConfirmDelete"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pendingDelete == nil {
		return fmt.Errorf("%s: %w", op, ErrNoPendingDelete)
	}
	slug := (*e.pendingDelete).Key()

	e.modals[ModalDelete] = ModalView{State: ModalSubmitting}
	if err := e.api.Send(ctx, http.MethodDelete, e.entity.itemPath(slug), nil); err != nil {
		return e.fail(op, ModalDelete, err, "Failed to delete template")
	}

	e.closeModal(ModalDelete)
	e.banner.Set("Template deleted successfully", MessageSuccess)
	_ = e.refresh(ctx)
	return nil
}

// Import проверяет весь массив до первой записи. В последовательном режиме
// элементы отправляются по одному, частичный успех не откатывается.
func (e *Editor[T]) Import(ctx context.Context, input []byte) (ImportResult, error) {
	const op = "editor.Import"

	e.mu.Lock()
	defer e.mu.Unlock()

	e.jsonInput = string(input)
	e.jsonError = ""

	items, err := ParseImport[T](input)
	if err != nil {
		e.jsonError = err.Error()
		e.failModal(ModalImport, err.Error())
		return ImportResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := ImportResult{Total: len(items)}
	e.modals[ModalImport] = ModalView{State: ModalSubmitting}

	switch e.entity.Import {
	case ImportSequential:
		for i, item := range items {
			if err := e.api.Send(ctx, http.MethodPost, e.entity.Path, []T{item}); err != nil {
				e.log.Error("failed to import template", slog.String("op", op), slog.Int("index", i+1), slog.String("error", err.Error()))
				res.Failed++
				res.Errors = append(res.Errors, (&ImportError{Index: i + 1, Err: errors.New(apiclient.MessageOf(err, err.Error()))}).Error())
				continue
			}
			res.Created++
		}
		if res.Created == 0 {
			e.failModal(ModalImport, "Failed to import templates")
			e.banner.Set("Failed to import templates", MessageError)
			return res, fmt.Errorf("%s: all %d templates failed", op, res.Failed)
		}
	default:
		if err := e.api.Send(ctx, http.MethodPost, e.entity.Path, items); err != nil {
			res.Failed = len(items)
			return res, e.fail(op, ModalImport, err, "Failed to import templates")
		}
		res.Created = len(items)
	}

	e.closeModal(ModalImport)
	if res.Failed > 0 {
		e.banner.Set(fmt.Sprintf("Imported %d of %d templates", res.Created, res.Total), MessageError)
	} else {
		e.banner.Set(fmt.Sprintf("Successfully imported %d templates", res.Created), MessageSuccess)
	}
	_ = e.refresh(ctx)
	return res, nil
}

// ExportOne сериализует один шаблон в JSON-файл без обращения к бэкенду.
func (e *Editor[T]) ExportOne(slug string) (File, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.find(slug)
	if !ok {
		return File{}, fmt.Errorf("editor.ExportOne: %w: %q", ErrNotFound, slug)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("editor.ExportOne: %w", err)
	}
	return File{
		Name:        fmt.Sprintf("%s-%s.json", e.entity.Name, slug),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

func (e *Editor[T]) ExportAll() (File, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.MarshalIndent(e.sorted(), "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("editor.ExportAll: %w", err)
	}
	return File{
		Name:        fmt.Sprintf("%s-%s.json", e.entity.Name, e.now().Format("2006-01-02")),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// Rows — шаблоны как плоские словари (для табличного экспорта).
func (e *Editor[T]) Rows() ([]map[string]any, error) {
	e.mu.Lock()
	list := e.sorted()
	e.mu.Unlock()

	rows := make([]map[string]any, 0, len(list))
	for _, t := range list {
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("editor.Rows: %w", err)
		}
		var row map[string]any
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("editor.Rows: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Snapshot не ждёт сетевых запросов: если редактор занят операцией,
// возвращается состояние на её начало с актуальными loading и баннером.
func (e *Editor[T]) Snapshot() Snapshot {
	if !e.mu.TryLock() {
		s := Snapshot{Entity: e.entity, Data: []T{}}
		if last := e.last.Load(); last != nil {
			s = *last
		}
		s.Loading = e.loading.Load()
		s.Message = nil
		if msg, ok := e.banner.Current(); ok {
			s.Message = &msg
		}
		return s
	}
	defer e.mu.Unlock()

	s := e.snapshot()
	e.last.Store(&s)
	return s
}

// publish сохраняет текущее состояние для Snapshot; вызывается под mu.
func (e *Editor[T]) publish() {
	s := e.snapshot()
	e.last.Store(&s)
}

func (e *Editor[T]) snapshot() Snapshot {
	s := Snapshot{
		Entity:      e.entity,
		Data:        e.sorted(),
		Loading:     e.loading.Load(),
		Modals:      make(map[Modal]ModalView, 4),
		Editing:     e.editingSlug,
		ImportInput: e.jsonInput,
		ImportError: e.jsonError,
	}
	for _, m := range []Modal{ModalCreate, ModalEdit, ModalImport, ModalDelete} {
		s.Modals[m] = e.modal(m)
	}
	if e.pendingDelete != nil {
		s.PendingDelete = (*e.pendingDelete).Key()
	}
	if msg, ok := e.banner.Current(); ok {
		s.Message = &msg
	}
	if e.sortField != "" {
		order := "asc"
		if e.sortDesc {
			order = "desc"
		}
		s.Sort = &SortView{Field: e.sortField, Order: order}
	}
	return s
}

func (e *Editor[T]) fail(op string, m Modal, err error, fallback string) error {
	text := apiclient.MessageOf(err, fallback)
	e.log.Error(fallback, slog.String("op", op), slog.String("error", err.Error()))
	e.failModal(m, text)
	e.banner.Set(text, MessageError)
	return fmt.Errorf("%s: %w", op, err)
}
