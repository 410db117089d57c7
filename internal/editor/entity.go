package editor

import (
	"context"
	"encoding/json"
	"net/http"
)

// ToggleStyle — как бэкенд переключает активность шаблона.
type ToggleStyle int

const (
	// TogglePut: PUT /<entity>/<slug>/toggle
	TogglePut ToggleStyle = iota
	// ToggleActivate: POST /<entity>/<slug>/activate
	ToggleActivate
)

// ImportMode — как отправляется массив при импорте.
type ImportMode int

const (
	// ImportBulk — один POST со всем массивом.
	ImportBulk ImportMode = iota
	// ImportSequential — по одному POST на элемент, без отката.
	ImportSequential
)

type Entity struct {
	Name   string      `json:"name"`
	Title  string      `json:"title"`
	Path   string      `json:"path"`
	Toggle ToggleStyle `json:"-"`
	Import ImportMode  `json:"-"`
}

func (e Entity) itemPath(slug string) string {
	return e.Path + "/" + slug
}

func (e Entity) toggleRequest(slug string) (method, path string) {
	if e.Toggle == ToggleActivate {
		return http.MethodPost, e.itemPath(slug) + "/activate"
	}
	return http.MethodPut, e.itemPath(slug) + "/toggle"
}

// Backend — HTTP-коллаборатор (apiclient.Client).
type Backend interface {
	List(ctx context.Context, path string) ([]json.RawMessage, error)
	Send(ctx context.Context, method, path string, in any) error
}
