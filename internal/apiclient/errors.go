package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrUnexpectedEnvelope = errors.New("unexpected collection envelope")

// APIError — неуспешный ответ бэкенда. Message берётся из поля "message" тела ответа.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

// MessageOf возвращает сообщение сервера, если оно есть, иначе fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// NormalizeCollection принимает голый массив, {"data": [...]} или {"templates": [...]}.
func NormalizeCollection(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrUnexpectedEnvelope
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		for _, key := range []string{"data", "templates"} {
			inner, ok := envelope[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) == 0 || inner[0] != '[' {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(inner, &items); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	return nil, ErrUnexpectedEnvelope
}
