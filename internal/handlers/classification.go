package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/services"
	"github.com/diewo77/go-dealership/validation"
)

type ClassificationHandler struct {
	base
	classifications *services.ClassificationService
}

func NewClassificationHandler(d Deps, cls *services.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{base: newBase(d), classifications: cls}
}

func (h *ClassificationHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "", nil)
}

func (h *ClassificationHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, name string, errs validation.Errors) {
	h.render(w, r, status, "inventory/add-classification.html", map[string]any{
		"Title":  h.tr(r, "title_add_classification"),
		"Name":   name,
		"Errors": errs,
	})
}

// Add creates a classification. The new name shows up in the navigation on
// the next page.
func (h *ClassificationHandler) Add(w http.ResponseWriter, r *http.Request) {
	in := validation.ClassificationFromRequest(r)
	if errs := in.Validate(); !errs.Empty() {
		h.renderForm(w, r, http.StatusBadRequest, in.Name, errs)
		return
	}
	cls, err := h.classifications.Create(r.Context(), in.Name)
	if errors.Is(err, services.ErrDuplicate) {
		middleware.Flash(w, r, "classification_add_failed")
		h.renderForm(w, r, http.StatusBadRequest, in.Name, nil)
		return
	}
	if err != nil {
		h.log(r).WithError(err).Error("classification create failed")
		middleware.Flash(w, r, "classification_add_failed")
		h.renderForm(w, r, http.StatusInternalServerError, in.Name, nil)
		return
	}
	h.log(r).WithField("classification_id", cls.ID).Info("classification added")
	middleware.Flashf(w, r, "classification_added", map[string]any{"Name": cls.Name})
	h.redirect(w, r, "/inv/")
}
