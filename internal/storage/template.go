package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record — общий контракт шаблона игрового дизайна.
// Key возвращает slug, WithKey подменяет его (используется только при обновлении,
// чтобы slug всегда совпадал с исходным), Stripped убирает серверные поля.
type Record[T any] interface {
	Key() string
	WithKey(slug string) T
	Validate() error
	Stripped() T
}

// ServerFields назначаются бэкендом и не отправляются обратно при создании.
type ServerFields struct {
	ID        json.RawMessage `json:"id,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

var ErrInvalidPayload = errors.New("invalid JSON")

// ValidationError — ошибка клиентской валидации, до сетевого запроса.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: field + " is required"}
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func requireSlug(slug string) error {
	if strings.TrimSpace(slug) == "" {
		return required("slug")
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return required(field)
	}
	return nil
}

func checkTimestamp(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return invalid(field, "%s must be an RFC 3339 timestamp", field)
	}
	return nil
}

// LocalizedText — пара {en, ru}. Простая строка в JSON читается как en.
type LocalizedText struct {
	En string `json:"en"`
	Ru string `json:"ru"`
}

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = LocalizedText{En: s}
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*t = LocalizedText{}
		return nil
	}

	type plain LocalizedText
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = LocalizedText(p)
	return nil
}

func (t LocalizedText) IsZero() bool {
	return t.En == "" && t.Ru == ""
}

func (t LocalizedText) validate(field string) error {
	if strings.TrimSpace(t.En) == "" {
		return required(field + ".en")
	}
	if strings.TrimSpace(t.Ru) == "" {
		return required(field + ".ru")
	}
	return nil
}
