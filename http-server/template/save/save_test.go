package save

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage"
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
	r.Post("/{entity}", Create(logger, ws))
	r.Post("/{entity}/import", Import(logger, ws))
	return r
}

func TestCreate_Success(t *testing.T) {
	api := new(MockBackend)
	api.On("List", mock.Anything, "/commission-templates").Return([]json.RawMessage{}, nil)
	api.On("Send", mock.Anything, http.MethodPost, "/commission-templates", mock.MatchedBy(func(in []storage.CommissionTemplate) bool {
		return len(in) == 1 && in[0].Slug == "stars_to_ton"
	})).Return(nil)

	body := `{"slug":"stars_to_ton","name":"Stars to TON","fromCurrency":"stars","toCurrency":"ton","rate":0.05}`
	rr := httptest.NewRecorder()
	newRouter(api).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/commissions", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Template created successfully")
	api.AssertExpectations(t)
}

func TestCreate_ValidationError(t *testing.T) {
	api := new(MockBackend)
	api.On("List", mock.Anything, mock.Anything).Return([]json.RawMessage{}, nil)

	body := `{"slug":"daily_login","title":{"en":"Daily login"}}`
	rr := httptest.NewRecorder()
	newRouter(api).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "title.ru is required")
	api.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_BackendRejects(t *testing.T) {
	api := new(MockBackend)
	api.On("List", mock.Anything, mock.Anything).Return([]json.RawMessage{}, nil)
	api.On("Send", mock.Anything, http.MethodPost, "/game-constants", mock.Anything).
		Return(&apiclient.APIError{Status: http.StatusUnprocessableEntity, Message: "Value type mismatch"})

	body := `{"slug":"max_level","name":"Max level","value":100}`
	rr := httptest.NewRecorder()
	newRouter(api).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/game-constants", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Value type mismatch")
}

func TestImport_InvalidElementReported(t *testing.T) {
	api := new(MockBackend)

	body := `[{"slug":"a","name":"A","rarity":"RARE"},{"slug":"b","name":"B","rarity":"MYTHIC"}]`
	rr := httptest.NewRecorder()
	newRouter(api).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/artifacts/import", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Template 2: Invalid rarity")
	api.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestImport_MultipartFile(t *testing.T) {
	api := new(MockBackend)
	api.On("Send", mock.Anything, http.MethodPost, "/package-templates", mock.MatchedBy(func(in []storage.PackageTemplate) bool {
		return len(in) == 2
	})).Return(nil)
	api.On("List", mock.Anything, "/package-templates").Return([]json.RawMessage{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "packages.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`[
		{"slug":"starter","name":{"en":"Starter","ru":"Стартовый"},"price":1},
		{"slug":"galaxy","name":{"en":"Galaxy","ru":"Галактика"},"price":10}
	]`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/packages/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	newRouter(api).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Created)
	api.AssertExpectations(t)
}
