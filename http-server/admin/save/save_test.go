package save

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage"
)

// MockAdmin реализует InviteSender и TwoFactorStarter
type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) Send(ctx context.Context, inv storage.Invite) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockAdmin) Setup(ctx context.Context, sessionID string) (storage.TwoFactorSetup, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(storage.TwoFactorSetup), args.Error(1)
}

func TestSendInvite(t *testing.T) {
	m := new(MockAdmin)
	m.On("Send", mock.Anything, storage.Invite{Email: "pilot@nebula.io", Name: "Pilot", Role: "ADMIN"}).Return(nil)

	rr := httptest.NewRecorder()
	SendInvite(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/invite",
		strings.NewReader(`{"email":"pilot@nebula.io","name":"Pilot","role":"ADMIN"}`)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invitation sent")
	m.AssertExpectations(t)
}

func TestSendInvite_Validation(t *testing.T) {
	m := new(MockAdmin)
	m.On("Send", mock.Anything, mock.Anything).Return(&storage.ValidationError{Field: "name", Reason: "name is required"})

	rr := httptest.NewRecorder()
	SendInvite(slog.Default(), m).ServeHTTP(rr,
		httptest.NewRequest(http.MethodPost, "/invite", strings.NewReader(`{"email":"a@b.io"}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "name is required")
}

func TestSendInvite_BadJSON(t *testing.T) {
	m := new(MockAdmin)

	rr := httptest.NewRecorder()
	SendInvite(slog.Default(), m).ServeHTTP(rr,
		httptest.NewRequest(http.MethodPost, "/invite", strings.NewReader(`{"email":`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSetupTwoFactor(t *testing.T) {
	m := new(MockAdmin)
	m.On("Setup", mock.Anything, "s1").Return(storage.TwoFactorSetup{
		Secret:     "JBSWY3DPEHPK3PXP",
		OTPAuthURL: "otpauth://totp/Nebulahunt:commander?secret=JBSWY3DPEHPK3PXP",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/2fa/setup", nil)
	req = req.WithContext(session.WithSession(req.Context(), &session.Session{ID: "s1"}))
	rr := httptest.NewRecorder()
	SetupTwoFactor(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "JBSWY3DPEHPK3PXP")
}

func TestSetupTwoFactor_BackendConflict(t *testing.T) {
	m := new(MockAdmin)
	m.On("Setup", mock.Anything, "s1").
		Return(storage.TwoFactorSetup{}, &apiclient.APIError{Status: http.StatusConflict, Message: "2FA is already enabled"})

	req := httptest.NewRequest(http.MethodPost, "/2fa/setup", nil)
	req = req.WithContext(session.WithSession(req.Context(), &session.Session{ID: "s1"}))
	rr := httptest.NewRecorder()
	SetupTwoFactor(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "2FA is already enabled")
}
