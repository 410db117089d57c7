// Package ratelimit ограничивает частоту запросов с одного IP.
package ratelimit

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const visitorTTL = 10 * time.Minute

type Limiter struct {
	visitors *cache.Cache
	every    time.Duration
	burst    int
}

// New — один токен раз в every, не больше burst подряд.
func New(every time.Duration, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		visitors: cache.New(visitorTTL, visitorTTL),
		every:    every,
		burst:    burst,
	}
}

func (l *Limiter) limiter(ip string) *rate.Limiter {
	if v, ok := l.visitors.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.visitors.SetDefault(ip, lim)
		return lim
	}

	lim := rate.NewLimiter(rate.Every(l.every), l.burst)
	// Add не перезапишет лимитер, созданный параллельным запросом.
	if err := l.visitors.Add(ip, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.visitors.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (l *Limiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]string{"error": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
