package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandler_LimitsPerIP(t *testing.T) {
	l := New(time.Hour, 2)
	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000"))
}
