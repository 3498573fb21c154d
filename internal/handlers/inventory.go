package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/httpx"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/services"
	"github.com/diewo77/go-dealership/validation"
)

// InventoryHandler serves the public vehicle pages and the staff
// inventory management routes.
type InventoryHandler struct {
	base
	inventory       *services.InventoryService
	classifications *services.ClassificationService
	favorites       *services.FavoriteService
}

func NewInventoryHandler(d Deps, inv *services.InventoryService, cls *services.ClassificationService, fav *services.FavoriteService) *InventoryHandler {
	return &InventoryHandler{base: newBase(d), inventory: inv, classifications: cls, favorites: fav}
}

// ByClassification lists the vehicles of one classification.
func (h *InventoryHandler) ByClassification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "classificationId")
	if !ok {
		h.notFound(w, r, http.StatusNotFound, "title_not_found", "classification_not_found")
		return
	}
	cls, err := h.classifications.ByID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(w, r, http.StatusNotFound, "title_not_found", "classification_not_found")
		return
	}
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	vehicles, err := h.inventory.ByClassification(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	h.render(w, r, http.StatusOK, "inventory/classification.html", map[string]any{
		"Title":    h.trf(r, "title_vehicles", map[string]any{"Name": cls.Name}),
		"Vehicles": vehicles,
	})
}

// Detail shows one vehicle.
func (h *InventoryHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "invId")
	if !ok {
		h.notFound(w, r, http.StatusBadRequest, "title_invalid_request", "vehicle_id_invalid")
		return
	}
	v, err := h.inventory.ByID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(w, r, http.StatusNotFound, "title_vehicle_not_found", "vehicle_not_found")
		return
	}
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	favorite := false
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		if favorite, err = h.favorites.Has(r.Context(), c.AccountID, v.ID); err != nil {
			h.log(r).WithError(err).Warn("favorite lookup failed")
		}
	}
	h.render(w, r, http.StatusOK, "inventory/detail.html", map[string]any{
		"Title":      strconv.Itoa(v.Year) + " " + v.Make + " " + v.Model,
		"Vehicle":    v,
		"IsFavorite": favorite,
	})
}

// Management is the staff landing page.
func (h *InventoryHandler) Management(w http.ResponseWriter, r *http.Request) {
	list, err := h.classifications.List(r.Context())
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	h.render(w, r, http.StatusOK, "inventory/management.html", map[string]any{
		"Title":           h.tr(r, "title_management"),
		"Classifications": list,
	})
}

// InventoryJSON returns the vehicles of a classification for the
// management table.
func (h *InventoryHandler) InventoryJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "classificationId")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_classification_id", nil)
		return
	}
	vehicles, err := h.inventory.ByClassification(r.Context(), id)
	if err != nil {
		h.log(r).WithError(err).Error("inventory listing failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if vehicles == nil {
		vehicles = []models.Inventory{}
	}
	httpx.JSON(w, http.StatusOK, vehicles)
}

func (h *InventoryHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, page, title string, form validation.InventoryInput, errs validation.Errors) {
	list, err := h.classifications.List(r.Context())
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	h.render(w, r, status, page, map[string]any{
		"Title":           title,
		"Form":            form,
		"Errors":          errs,
		"Classifications": list,
	})
}

func (h *InventoryHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "inventory/add-inventory.html", h.tr(r, "title_add_inventory"), validation.InventoryInput{}, nil)
}

func (h *InventoryHandler) exists(r *http.Request) validation.ClassificationExists {
	return func(id uint) bool { return h.classifications.Exists(r.Context(), id) }
}

// Add creates a vehicle. Invalid input goes back to the form as typed.
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	in := validation.InventoryFromRequest(r)
	v, errs := in.Validate(h.Now(), h.exists(r))
	if !errs.Empty() {
		h.renderForm(w, r, http.StatusBadRequest, "inventory/add-inventory.html", h.tr(r, "title_add_inventory"), in, errs)
		return
	}
	inv := inventoryOf(v)
	if err := h.inventory.Create(r.Context(), &inv); err != nil {
		h.log(r).WithError(err).Error("inventory create failed")
		middleware.Flash(w, r, "inventory_add_failed")
		h.renderForm(w, r, http.StatusInternalServerError, "inventory/add-inventory.html", h.tr(r, "title_add_inventory"), in, nil)
		return
	}
	h.log(r).WithField("inv_id", inv.ID).Info("vehicle added")
	middleware.Flashf(w, r, "inventory_added", map[string]any{"Make": inv.Make, "Model": inv.Model})
	h.redirect(w, r, "/inv/")
}

func (h *InventoryHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, "inventory/edit-inventory.html", editTitle(h, r, v.Make, v.Model), inputOf(v), nil)
}

func editTitle(h *InventoryHandler, r *http.Request, mk, model string) string {
	return h.trf(r, "title_edit_inventory", map[string]any{"Name": mk + " " + model})
}

// Update saves an edited vehicle. Failures go back to the edit form.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	in := validation.InventoryFromRequest(r)
	v, errs := in.Validate(h.Now(), h.exists(r))
	if v.ID == 0 {
		h.notFound(w, r, http.StatusBadRequest, "title_invalid_request", "vehicle_id_invalid")
		return
	}
	title := editTitle(h, r, in.Make, in.Model)
	if !errs.Empty() {
		h.renderForm(w, r, http.StatusBadRequest, "inventory/edit-inventory.html", title, in, errs)
		return
	}
	inv := inventoryOf(v)
	err := h.inventory.Update(r.Context(), &inv)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(w, r, http.StatusNotFound, "title_vehicle_not_found", "vehicle_not_found")
		return
	}
	if err != nil {
		h.log(r).WithError(err).Error("inventory update failed")
		middleware.Flash(w, r, "inventory_update_failed")
		h.renderForm(w, r, http.StatusInternalServerError, "inventory/edit-inventory.html", title, in, nil)
		return
	}
	middleware.Flashf(w, r, "inventory_updated", map[string]any{"Make": inv.Make, "Model": inv.Model})
	h.redirect(w, r, "/inv/")
}

func (h *InventoryHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "inventory/delete-confirm.html", map[string]any{
		"Title":   h.trf(r, "title_delete_inventory", map[string]any{"Name": v.Make + " " + v.Model}),
		"Vehicle": v,
	})
}

// Delete removes a vehicle and its favorites. It always lands on the
// management page; unknown vehicles only change the notice.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "invId")
	if !ok {
		id, ok = formID(r, "inv_id")
	}
	if !ok {
		middleware.Flash(w, r, "inventory_delete_failed")
		h.redirect(w, r, "/inv/")
		return
	}
	v, err := h.inventory.ByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			h.log(r).WithError(err).Error("inventory lookup failed")
		}
		middleware.Flash(w, r, "inventory_delete_failed")
		h.redirect(w, r, "/inv/")
		return
	}
	deleted, err := h.inventory.Delete(r.Context(), id)
	if err != nil {
		h.log(r).WithError(err).Error("inventory delete failed")
	}
	if err != nil || !deleted {
		middleware.Flash(w, r, "inventory_delete_failed")
		h.redirect(w, r, "/inv/")
		return
	}
	h.log(r).WithField("inv_id", id).Info("vehicle deleted")
	middleware.Flashf(w, r, "inventory_deleted", map[string]any{"Make": v.Make, "Model": v.Model})
	h.redirect(w, r, "/inv/")
}

// vehicle loads the vehicle named by the invId path value or writes the
// matching error page.
func (h *InventoryHandler) vehicle(w http.ResponseWriter, r *http.Request) (*models.Inventory, bool) {
	id, ok := pathID(r, "invId")
	if !ok {
		h.notFound(w, r, http.StatusBadRequest, "title_invalid_request", "vehicle_id_invalid")
		return nil, false
	}
	v, err := h.inventory.ByID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(w, r, http.StatusNotFound, "title_vehicle_not_found", "vehicle_not_found")
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err, "")
		return nil, false
	}
	return v, true
}

func formID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PostFormValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func inventoryOf(v validation.Vehicle) models.Inventory {
	return models.Inventory{
		ID:               v.ID,
		ClassificationID: v.ClassificationID,
		Make:             v.Make,
		Model:            v.Model,
		Year:             v.Year,
		Description:      v.Description,
		Image:            v.Image,
		Thumbnail:        v.Thumbnail,
		Price:            v.Price,
		Miles:            v.Miles,
		Color:            v.Color,
	}
}

func inputOf(v *models.Inventory) validation.InventoryInput {
	return validation.InventoryInput{
		ID:               idString(v.ID),
		ClassificationID: idString(v.ClassificationID),
		Make:             v.Make,
		Model:            v.Model,
		Year:             strconv.Itoa(v.Year),
		Description:      v.Description,
		Image:            v.Image,
		Thumbnail:        v.Thumbnail,
		Price:            strconv.FormatFloat(v.Price, 'f', -1, 64),
		Miles:            strconv.Itoa(v.Miles),
		Color:            v.Color,
	}
}
