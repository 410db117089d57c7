package twofactor

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/storage"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error {
	args := m.Called(ctx, method, path, in, out)
	if fill, ok := args.Get(0).(func(out any)); ok {
		fill(out)
	}
	return args.Error(1)
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func setupBackend() *MockBackend {
	api := new(MockBackend)
	api.On("Do", mock.Anything, http.MethodPost, "/admin/2fa/setup", nil, mock.Anything).
		Return(func(out any) {
			*out.(*storage.TwoFactorSetup) = storage.TwoFactorSetup{
				Secret:     "JBSWY3DPEHPK3PXP",
				OTPAuthURL: "otpauth://totp/Nebulahunt:commander?secret=JBSWY3DPEHPK3PXP&issuer=Nebulahunt",
			}
		}, nil)
	return api
}

func TestSetupThenQR(t *testing.T) {
	svc := NewService(setupBackend())

	setup, err := svc.Setup(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)

	png, err := svc.QR("s1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = svc.QR("other")
	assert.ErrorIs(t, err, ErrNoPendingSetup)
}

func TestComplete(t *testing.T) {
	api := setupBackend()
	api.On("Do", mock.Anything, http.MethodPost, "/admin/2fa/complete", map[string]string{"otp": "123456"}, nil).
		Return(nil, nil)

	svc := NewService(api)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Complete(ctx, "s1", "123456"), ErrNoPendingSetup)

	_, err := svc.Setup(ctx, "s1")
	require.NoError(t, err)

	err = svc.Complete(ctx, "s1", "12ab56")
	var verr *storage.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Complete(ctx, "s1", "123456"))
	_, err = svc.QR("s1")
	assert.ErrorIs(t, err, ErrNoPendingSetup)
}

func TestDisable_BackendMessage(t *testing.T) {
	api := new(MockBackend)
	api.On("Do", mock.Anything, http.MethodPost, "/admin/2fa/disable", mock.Anything, nil).
		Return(nil, &apiclient.APIError{Status: 400, Message: "Invalid code"})

	err := NewService(api).Disable(context.Background(), "654321")
	require.Error(t, err)
	assert.Equal(t, "Invalid code", apiclient.MessageOf(err, ""))
}
