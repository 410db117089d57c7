package remove

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/session"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) List(ctx context.Context, path string) ([]json.RawMessage, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]json.RawMessage), args.Error(1)
}

func (m *MockBackend) Send(ctx context.Context, method, path string, in any) error {
	return m.Called(ctx, method, path, in).Error(0)
}

func newRouter(api *MockBackend) http.Handler {
	ws := editor.NewWorkspace(api, slog.Default(), editor.Settings{}, time.Minute, editor.Catalog())
	logger := slog.Default()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), &session.Session{ID: "s1"})))
		})
	})
	r.Post("/{entity}/{slug}/delete", Request(logger, ws))
	r.Post("/{entity}/delete/confirm", Confirm(logger, ws))
	r.Post("/{entity}/delete/cancel", Cancel(logger, ws))
	return r
}

func post(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
	return rr
}

// Тест: удаление только после подтверждения, отмена ничего не удаляет
func TestDelete_TwoStep(t *testing.T) {
	api := new(MockBackend)
	api.On("List", mock.Anything, "/task-templates").Return([]json.RawMessage{
		json.RawMessage(`{"slug":"daily_login","title":{"en":"Daily login","ru":"Ежедневный вход"}}`),
	}, nil)
	api.On("Send", mock.Anything, http.MethodDelete, "/task-templates/daily_login", nil).Return(nil)

	h := newRouter(api)

	rr := post(h, "/tasks/daily_login/delete")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"pendingDelete":"daily_login"`)

	rr = post(h, "/tasks/delete/cancel")
	assert.Equal(t, http.StatusOK, rr.Code)
	api.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	rr = post(h, "/tasks/delete/confirm")
	assert.Equal(t, http.StatusConflict, rr.Code)

	post(h, "/tasks/daily_login/delete")
	rr = post(h, "/tasks/delete/confirm")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Template deleted successfully")
	api.AssertNumberOfCalls(t, "Send", 1)
}
