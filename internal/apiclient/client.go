// Package apiclient — HTTP-клиент к игровому бэкенду Nebulahunt.
//
// Токены берутся из TokenSource, переданного через context.Context.
// На 401 выполняется ровно одна попытка обновить токен и один повтор запроса;
// очереди на время обновления нет, параллельные 401 обновляются независимо.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	RefreshPath    = "/admin/refresh"
)

var (
	ErrSessionExpired = errors.New("session expired")
	ErrNoRefreshToken = errors.New("no refresh token")
)

type Tokens struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

// TokenSource хранит токены одной админской сессии.
type TokenSource interface {
	Tokens() Tokens
	SetTokens(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
}

type tokenSourceKey struct{}

func WithTokenSource(ctx context.Context, ts TokenSource) context.Context {
	return context.WithValue(ctx, tokenSourceKey{}, ts)
}

func TokenSourceFrom(ctx context.Context) TokenSource {
	ts, _ := ctx.Value(tokenSourceKey{}).(TokenSource)
	return ts
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
	metrics *Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(baseURL string, timeout time.Duration, log *slog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestOptions struct {
	header http.Header
	anon   bool
}

type RequestOption func(*requestOptions)

// WithHeader добавляет заголовок к запросу (например, init-data при логине).
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// Anonymous отключает Bearer и обновление токена.
func Anonymous() RequestOption {
	return func(o *requestOptions) { o.anon = true }
}

// Do выполняет запрос; in кодируется в JSON, ответ декодируется в out (если не nil).
func (c *Client) Do(ctx context.Context, method, path string, in, out any, opts ...RequestOption) error {
	const op = "apiclient.Do"

	ro := requestOptions{header: http.Header{}}
	for _, opt := range opts {
		opt(&ro)
	}

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	var ts TokenSource
	if !ro.anon {
		ts = TokenSourceFrom(ctx)
	}

	resp, err := c.send(ctx, method, path, body, ro.header, ts)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// 401 на запросе с токенами: одна попытка refresh, без refresh-токена сессия потеряна.
	if resp.StatusCode == http.StatusUnauthorized && ts != nil {
		drain(resp)

		if err := c.refresh(ctx, ts); err != nil {
			c.log.Warn("token refresh failed", slog.String("op", op), slog.String("error", err.Error()))
			if clearErr := ts.Clear(ctx); clearErr != nil {
				c.log.Error("failed to clear session", slog.String("op", op), slog.String("error", clearErr.Error()))
			}
			return fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		resp, err = c.send(ctx, method, path, body, ro.header, ts)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %s %s: %w", op, method, path, decodeError(resp))
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Send — Do без тела ответа.
func (c *Client) Send(ctx context.Context, method, path string, in any) error {
	return c.Do(ctx, method, path, in, nil)
}

// List запрашивает коллекцию и приводит ответ к массиву.
func (c *Client) List(ctx context.Context, path string) ([]json.RawMessage, error) {
	const op = "apiclient.List"

	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	items, err := NormalizeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return items, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, header http.Header, ts TokenSource) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts != nil {
		if access := ts.Tokens().Access; access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.observe(method, resp, err, time.Since(start))
	return resp, err
}

func (c *Client) refresh(ctx context.Context, ts TokenSource) error {
	const op = "apiclient.refresh"

	if ts.Tokens().Refresh == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}

	body, err := json.Marshal(map[string]string{"refreshToken": ts.Tokens().Refresh})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.send(ctx, http.MethodPost, RefreshPath, body, http.Header{}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, decodeError(resp))
	}

	var fresh Tokens
	if err := json.NewDecoder(resp.Body).Decode(&fresh); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	if fresh.Access == "" {
		return fmt.Errorf("%s: empty access token", op)
	}
	// бэкенд может не ротировать refresh-токен
	if fresh.Refresh == "" {
		fresh.Refresh = ts.Tokens().Refresh
	}
	return ts.SetTokens(ctx, fresh)
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
