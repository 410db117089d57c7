package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"nebulahunt-admin/internal/storage"
)

var (
	ErrEmptyInput    = errors.New("JSON input is empty")
	ErrEmptyArray    = errors.New("JSON array is empty")
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// ImportError указывает на элемент импорта (нумерация с 1).
type ImportError struct {
	Index int
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("Template %d: %s", e.Index, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

type ImportResult struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ParseImport разбирает вставленный JSON или содержимое файла.
// Не-массив оборачивается в массив из одного элемента, пустой массив — ошибка.
// Каждый элемент проверяется; первая ошибка прерывает весь импорт.
// Из результата убраны серверные поля.
func ParseImport[T storage.Record[T]](input []byte) ([]T, error) {
	input = bytes.TrimSpace(input)
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}
	if !json.Valid(input) {
		var v any
		err := json.Unmarshal(input, &v)
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var raws []json.RawMessage
	if input[0] == '[' {
		if err := json.Unmarshal(input, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	} else {
		raws = []json.RawMessage{input}
	}
	if len(raws) == 0 {
		return nil, ErrEmptyArray
	}

	items := make([]T, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &ImportError{Index: i + 1, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
		}
		if err := item.Validate(); err != nil {
			return nil, &ImportError{Index: i + 1, Err: err}
		}
		if _, dup := seen[item.Key()]; dup {
			return nil, &ImportError{Index: i + 1, Err: fmt.Errorf("%w %q", ErrDuplicateSlug, item.Key())}
		}
		seen[item.Key()] = struct{}{}
		items = append(items, item.Stripped())
	}
	return items, nil
}

// IsValidation — ошибка, пойманная до обращения к бэкенду.
func IsValidation(err error) bool {
	var verr *storage.ValidationError
	var ierr *ImportError
	return errors.As(err, &verr) ||
		errors.As(err, &ierr) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrEmptyArray) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, ErrDuplicateSlug)
}
