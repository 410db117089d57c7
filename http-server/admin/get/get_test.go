package get

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/service/twofactor"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage"
)

// MockAdmin реализует интерфейсы хендлеров чтения
type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) Info(ctx context.Context) (storage.PasswordInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.PasswordInfo), args.Error(1)
}

func (m *MockAdmin) List(ctx context.Context) ([]storage.Invitation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Invitation), args.Error(1)
}

func (m *MockAdmin) QR(sessionID string) ([]byte, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAdmin) Overview(ctx context.Context, sessionID string) ([]editor.Summary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]editor.Summary), args.Error(1)
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(session.WithSession(req.Context(), &session.Session{ID: "s1"}))
}

func TestPasswordInfo(t *testing.T) {
	m := new(MockAdmin)
	m.On("Info", mock.Anything).Return(storage.PasswordInfo{HasPassword: true}, nil)

	rr := httptest.NewRecorder()
	PasswordInfo(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/password/info", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"hasPassword":true`)
}

func TestInvites(t *testing.T) {
	m := new(MockAdmin)
	m.On("List", mock.Anything).Return([]storage.Invitation{
		{ID: 1, Email: "pilot@nebula.io", Name: "Pilot", Role: "ADMIN", Status: "PENDING"},
	}, nil)

	rr := httptest.NewRecorder()
	Invites(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/invites", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pilot@nebula.io")
}

func TestTwoFactorQR(t *testing.T) {
	m := new(MockAdmin)
	m.On("QR", "s1").Return([]byte{0x89, 'P', 'N', 'G'}, nil).Once()
	m.On("QR", "s1").Return(nil, twofactor.ErrNoPendingSetup)

	rr := httptest.NewRecorder()
	TwoFactorQR(slog.Default(), m).ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/2fa/qr", nil)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	TwoFactorQR(slog.Default(), m).ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/2fa/qr", nil)))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestOverview(t *testing.T) {
	m := new(MockAdmin)
	m.On("Overview", mock.Anything, "s1").Return([]editor.Summary{
		{Entity: editor.Artifacts, Count: 12},
		{Entity: editor.Events, Error: "Events service is down"},
	}, nil)

	rr := httptest.NewRecorder()
	Overview(slog.Default(), m).ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/overview", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":12`)
	assert.Contains(t, rr.Body.String(), "Events service is down")
}

func TestOverview_SessionExpired(t *testing.T) {
	m := new(MockAdmin)
	m.On("Overview", mock.Anything, "s1").Return(nil, apiclient.ErrSessionExpired)

	rr := httptest.NewRecorder()
	Overview(slog.Default(), m).ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/overview", nil)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redirect":"/login"`)
}
