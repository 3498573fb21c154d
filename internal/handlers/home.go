package handlers

import (
	"errors"
	"net/http"
)

// ErrIntentional is raised by the error trigger route.
var ErrIntentional = errors.New("intentional error")

type HomeHandler struct{ base }

func NewHomeHandler(d Deps) *HomeHandler { return &HomeHandler{base: newBase(d)} }

func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", map[string]any{"Title": h.tr(r, "title_home")})
}

// TriggerError always fails so the error page can be checked.
func (h *HomeHandler) TriggerError(w http.ResponseWriter, r *http.Request) {
	h.serverError(w, r, ErrIntentional, "")
}

// NotFound answers every unmatched route.
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r, http.StatusNotFound, "title_not_found", "not_found_message")
}

// ServerError renders the error page for a recovered panic.
func (h *HomeHandler) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.serverError(w, r, err, "")
}
