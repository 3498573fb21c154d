package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/services"
)

const resourceFavorite = "favorite"

// FavoriteHandler manages saved vehicles. Routes sit behind the login gate.
type FavoriteHandler struct {
	base
	favorites *services.FavoriteService
	inventory *services.InventoryService
}

func NewFavoriteHandler(d Deps, fav *services.FavoriteService, inv *services.InventoryService) *FavoriteHandler {
	return &FavoriteHandler{base: newBase(d), favorites: fav, inventory: inv}
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	favs, err := h.favorites.List(r.Context(), claims.AccountID)
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	h.render(w, r, http.StatusOK, "account/favorites.html", map[string]any{
		"Title":     h.tr(r, "title_favorites"),
		"Favorites": favs,
	})
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, ok := pathID(r, "invId")
	if !ok {
		middleware.Flash(w, r, "vehicle_id_invalid")
		h.redirect(w, r, "/account/favorites")
		return
	}
	if err := h.Gate.Authorize(r.Context(), gate.ActionCreate, resourceFavorite, nil); err != nil {
		middleware.Flash(w, r, auth.MsgRoleForbidden)
		h.redirect(w, r, "/inv/detail/"+idString(id))
		return
	}
	v, err := h.inventory.ByID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		middleware.Flash(w, r, "vehicle_not_found")
		h.redirect(w, r, "/account/favorites")
		return
	}
	if err == nil {
		err = h.favorites.Add(r.Context(), claims.AccountID, id)
	}
	if err != nil {
		h.log(r).WithError(err).Error("favorite add failed")
		middleware.Flash(w, r, "favorite_failed")
		h.redirect(w, r, "/inv/detail/"+idString(id))
		return
	}
	middleware.Flashf(w, r, "favorite_added", map[string]any{"Make": v.Make, "Model": v.Model})
	h.redirect(w, r, "/inv/detail/"+idString(id))
}

// Remove drops a saved vehicle. Admins may name another owner through the
// account_id form field; everyone else can only touch their own favorites.
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, ok := pathID(r, "invId")
	if !ok {
		middleware.Flash(w, r, "vehicle_id_invalid")
		h.redirect(w, r, "/account/favorites")
		return
	}
	target := "/inv/detail/" + idString(id)
	if r.PostFormValue("return") == "favorites" {
		target = "/account/favorites"
	}
	owner := claims.AccountID
	if other, ok := formID(r, "account_id"); ok {
		owner = other
	}
	fav, err := h.favorites.Get(r.Context(), owner, id)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			h.log(r).WithError(err).Error("favorite lookup failed")
		}
		middleware.Flash(w, r, "favorite_failed")
		h.redirect(w, r, target)
		return
	}
	if err := h.Gate.Authorize(r.Context(), gate.ActionDelete, resourceFavorite, fav); err != nil {
		middleware.Flash(w, r, auth.MsgRoleForbidden)
		h.redirect(w, r, target)
		return
	}
	if _, err := h.favorites.Remove(r.Context(), owner, id); err != nil {
		h.log(r).WithError(err).Error("favorite remove failed")
		middleware.Flash(w, r, "favorite_failed")
		h.redirect(w, r, target)
		return
	}
	middleware.Flash(w, r, "favorite_removed")
	h.redirect(w, r, target)
}
