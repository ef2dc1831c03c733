package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/felixbrock/chartlint/internal/components"
	"github.com/felixbrock/chartlint/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type lintResp struct {
	Id       string `json:"id,omitempty"`
	Label    string `json:"label,omitempty"`
	Category string `json:"category,omitempty"`
	Critique string `json:"critique,omitempty"`
	ImageUrl string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

func errorPage(e errCtx, err error) *ComponentResponse {
	return &ComponentResponse{Component: components.ErrorPage(e.Title, e.Msg), Code: e.Code, Message: e.Msg, ContentType: "text/html", Error: err}
}

// userMessage is the single line shown for a failed submission.
func userMessage(err error) (string, int) {
	var validationErr *domain.ValidationError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Msg, http.StatusBadRequest
	case errors.As(err, &maxBytesErr):
		return get413().Msg, http.StatusRequestEntityTooLarge
	default:
		return fmt.Sprintf("An error occurred: %s", err.Error()), http.StatusInternalServerError
	}
}

func limit(limiter *rate.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !limiter.Allow() {
			ComponentHandler(func(w http.ResponseWriter, r *http.Request) *ComponentResponse {
				return errorPage(get429(), nil)
			}).ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a App) index(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.URL.Path != "/" {
		return errorPage(get404(), nil)
	}

	switch r.Method {
	case http.MethodGet:
		return &ComponentResponse{Component: components.Index(components.Page{}), Code: 200, Message: "OK", ContentType: "text/html", Error: nil}
	case http.MethodPost:
	default:
		return errorPage(get405(), nil)
	}

	id := uuid.New().String()
	code, critique, err := a.submit(r, id)

	if err != nil {
		msg, status := userMessage(err)
		// Validation and lint failures render in the form, so the page is still a 200.
		if status == http.StatusBadRequest || status == http.StatusInternalServerError {
			status = http.StatusOK
		}
		return &ComponentResponse{Component: components.Index(components.Page{Code: code, Error: msg}), Code: status, Message: msg, ContentType: "text/html", Error: err}
	}

	slog.Info("chart checked", "submission", id, "category", critique.Category)
	return &ComponentResponse{Component: components.Index(components.Page{Code: code, Critique: critique}), Code: 200, Message: "OK", ContentType: "text/html", Error: nil}
}

func (a App) lint(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method != http.MethodPost {
		e := get405()
		return &ComponentResponse{Component: jsonComponent{lintResp{Error: e.Msg}}, Code: e.Code, Message: e.Msg, ContentType: "application/json", Error: nil}
	}

	id := uuid.New().String()
	_, critique, err := a.submit(r, id)

	if err != nil {
		msg, status := userMessage(err)
		return &ComponentResponse{Component: jsonComponent{lintResp{Id: id, Error: msg}}, Code: status, Message: msg, ContentType: "application/json", Error: err}
	}

	return &ComponentResponse{Component: jsonComponent{lintResp{
		Id:       critique.Id,
		Label:    critique.Label,
		Category: string(critique.Category),
		Critique: critique.Text,
		ImageUrl: critique.ImageUrl,
	}}, Code: 200, Message: "OK", ContentType: "application/json", Error: nil}
}
