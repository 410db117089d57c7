// Package api — общие ответы BFF и перевод ошибок в HTTP-статусы.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/editor"
	"nebulahunt-admin/internal/service/twofactor"
	"nebulahunt-admin/internal/session"
	"nebulahunt-admin/internal/storage"
)

// LoginPath — куда фронтенд уводит пользователя после истечения сессии.
const LoginPath = "/login"

type Response struct {
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func Error(msg string) Response {
	return Response{Error: msg}
}

// JSON отвечает с кодом status и телом v.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, Error(msg))
}

// StatusOf сопоставляет ошибку HTTP-статусу и тексту для фронтенда.
func StatusOf(err error) (int, string) {
	var apiErr *apiclient.APIError

	switch {
	case SessionLost(err):
		return http.StatusUnauthorized, "Session expired"
	case editor.IsValidation(err):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, editor.ErrUnsupportedSort):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, editor.ErrNotFound),
		errors.Is(err, editor.ErrUnknownEntity):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, editor.ErrNoPendingDelete),
		errors.Is(err, twofactor.ErrNoPendingSetup),
		errors.Is(err, session.ErrNotPending2FA):
		return http.StatusConflict, err.Error()
	case errors.As(err, &apiErr):
		// 401 сюда доходит только от анонимных запросов (вход, 2FA) или после
		// успешного refresh: это отказ бэкенда, а не сбой шлюза.
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, apiclient.MessageOf(err, http.StatusText(apiErr.Status))
		}
		return http.StatusBadGateway, apiclient.MessageOf(err, "Backend request failed")
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// SessionLost — сессии больше нет, фронтенду нужно заново войти.
func SessionLost(err error) bool {
	return errors.Is(err, apiclient.ErrSessionExpired) ||
		errors.Is(err, session.ErrNotFound) ||
		errors.Is(err, session.ErrPending2FA)
}

// validationMessage снимает op-префиксы обёрток, оставляя текст для пользователя.
func validationMessage(err error) string {
	var ierr *editor.ImportError
	if errors.As(err, &ierr) {
		return ierr.Error()
	}
	var verr *storage.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	for _, sentinel := range []error{editor.ErrEmptyInput, editor.ErrEmptyArray, editor.ErrDuplicateSlug} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	if errors.Is(err, editor.ErrInvalidJSON) {
		return unwrapAll(err)
	}
	return err.Error()
}

// unwrapAll спускается по цепочке обёрток до ошибки, непосредственно оборачивающей ErrInvalidJSON.
func unwrapAll(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil || next == editor.ErrInvalidJSON {
			return err.Error()
		}
		err = next
	}
}

// Handle пишет ошибку в лог и в ответ. Потерянная сессия получает redirect на вход.
func Handle(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	status, msg := StatusOf(err)

	l := log.With(slog.String("op", op), slog.String("error", err.Error()))
	switch {
	case status >= http.StatusInternalServerError:
		l.Error("request failed")
	default:
		l.Warn("request rejected", slog.Int("status", status))
	}

	if SessionLost(err) {
		JSON(w, r, status, Response{Error: msg, Redirect: LoginPath})
		return
	}
	Fail(w, r, status, msg)
}
