package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/internal/metrics"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/services"
	"github.com/diewo77/go-dealership/validation"
)

const resourceAccount = "account"

// AccountHandler serves login, registration and account management.
type AccountHandler struct {
	base
	accounts *services.AccountService
}

func NewAccountHandler(d Deps, accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{base: newBase(d), accounts: accounts}
}

func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "account/login.html", map[string]any{
		"Title":  h.tr(r, "title_login"),
		"Errors": validation.Errors(nil),
	})
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	in := validation.LoginFromRequest(r)
	if errs := in.Validate(); !errs.Empty() {
		h.Metrics.LoginAttempt(metrics.LoginInvalid)
		h.loginFailed(w, r, in.Email, errs)
		return
	}
	acc, err := h.accounts.Authenticate(r.Context(), in.Email, in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.Metrics.LoginAttempt(metrics.LoginFailure)
		middleware.Flash(w, r, "login_failed")
		h.loginFailed(w, r, in.Email, nil)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	if err := h.Auth.Login(w, identityOf(acc)); err != nil {
		h.serverError(w, r, err, "")
		return
	}
	h.Metrics.LoginAttempt(metrics.LoginSuccess)
	h.log(r).WithField("account_id", acc.ID).Info("login")
	h.redirect(w, r, "/account/")
}

func (h *AccountHandler) loginFailed(w http.ResponseWriter, r *http.Request, email string, errs validation.Errors) {
	h.render(w, r, http.StatusBadRequest, "account/login.html", map[string]any{
		"Title":  h.tr(r, "title_login"),
		"Email":  email,
		"Errors": errs,
	})
}

func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "account/register.html", map[string]any{
		"Title":  h.tr(r, "title_register"),
		"Form":   validation.RegisterInput{},
		"Errors": validation.Errors(nil),
	})
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := validation.RegisterFromRequest(r)
	if errs := in.Validate(); !errs.Empty() {
		h.registerFailed(w, r, http.StatusBadRequest, in, errs)
		return
	}
	acc, err := h.accounts.Register(r.Context(), in.FirstName, in.LastName, in.Email, in.Password)
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		middleware.Flash(w, r, "register_failed")
		h.registerFailed(w, r, http.StatusBadRequest, in, validation.Errors{{Field: "account_email", Message: "email_exists"}})
		return
	case errors.Is(err, services.ErrHashFailed):
		h.log(r).WithError(err).Error("password hashing failed")
		middleware.Flash(w, r, "register_hash_error")
		h.registerFailed(w, r, http.StatusInternalServerError, in, nil)
		return
	case err != nil:
		h.log(r).WithError(err).Error("registration failed")
		middleware.Flash(w, r, "register_failed")
		h.registerFailed(w, r, http.StatusInternalServerError, in, nil)
		return
	}
	h.Metrics.Registered()
	h.log(r).WithField("account_id", acc.ID).Info("account registered")
	middleware.Flashf(w, r, "register_success", map[string]any{"FirstName": acc.FirstName})
	h.render(w, r, http.StatusCreated, "account/login.html", map[string]any{
		"Title":  h.tr(r, "title_login"),
		"Email":  acc.Email,
		"Errors": validation.Errors(nil),
	})
}

// registerFailed shows the form again. The password is never echoed back.
func (h *AccountHandler) registerFailed(w http.ResponseWriter, r *http.Request, status int, in validation.RegisterInput, errs validation.Errors) {
	in.Password = ""
	h.render(w, r, status, "account/register.html", map[string]any{
		"Title":  h.tr(r, "title_register"),
		"Form":   in,
		"Errors": errs,
	})
}

// Management shows the caller's account page.
func (h *AccountHandler) Management(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	acc, err := h.accounts.ByID(r.Context(), claims.AccountID)
	if errors.Is(err, services.ErrNotFound) {
		h.Auth.Logout(w)
		middleware.Flash(w, r, "account_not_found")
		h.redirect(w, r, "/account/login")
		return
	}
	if err != nil {
		h.serverError(w, r, err, "")
		return
	}
	h.render(w, r, http.StatusOK, "account/management.html", map[string]any{
		"Title":   h.tr(r, "title_account"),
		"Profile": acc,
	})
}

// target loads the account named by id and checks the caller may act on it.
// On failure it has already flashed and redirected.
func (h *AccountHandler) target(w http.ResponseWriter, r *http.Request, id uint, action gate.Action) (*models.Account, bool) {
	acc, err := h.accounts.ByID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		middleware.Flash(w, r, "account_not_found")
		h.redirect(w, r, "/account/")
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err, "")
		return nil, false
	}
	if err := h.Gate.Authorize(r.Context(), action, resourceAccount, acc); err != nil {
		middleware.Flash(w, r, auth.MsgRoleForbidden)
		h.redirect(w, r, "/account/")
		return nil, false
	}
	return acc, true
}

func (h *AccountHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "accountId")
	if !ok {
		middleware.Flash(w, r, "account_not_found")
		h.redirect(w, r, "/account/")
		return
	}
	acc, ok := h.target(w, r, id, gate.ActionView)
	if !ok {
		return
	}
	h.renderUpdate(w, r, http.StatusOK, formOf(acc), nil, nil)
}

func (h *AccountHandler) renderUpdate(w http.ResponseWriter, r *http.Request, status int, form validation.AccountUpdateInput, errs, pwErrs validation.Errors) {
	h.render(w, r, status, "account/update.html", map[string]any{
		"Title":          h.tr(r, "title_update_account"),
		"Form":           form,
		"Errors":         errs,
		"PasswordErrors": pwErrs,
	})
}

// Update changes the identity fields and refreshes the caller's token when
// they edited their own account. The id comes from the path when routed as
// /account/update/{accountId}, otherwise from the account_id field.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.Flash(w, r, "account_update_failed")
		h.redirect(w, r, "/account/")
		return
	}
	in := validation.AccountUpdateFromRequest(r)
	if id, ok := pathID(r, "accountId"); ok {
		in.ID = id
	}
	errs := in.Validate()
	if in.ID == 0 {
		middleware.Flash(w, r, "account_not_found")
		h.redirect(w, r, "/account/")
		return
	}
	if _, ok := h.target(w, r, in.ID, gate.ActionUpdate); !ok {
		return
	}
	if !errs.Has("account_email") {
		taken, err := h.accounts.EmailTakenByOther(r.Context(), in.Email, in.ID)
		if err != nil {
			h.serverError(w, r, err, "")
			return
		}
		if taken {
			errs.Add("account_email", "email_in_use")
		}
	}
	if !errs.Empty() {
		h.renderUpdate(w, r, http.StatusBadRequest, in, errs, nil)
		return
	}
	acc, err := h.accounts.Update(r.Context(), in.ID, in.FirstName, in.LastName, in.Email)
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		h.renderUpdate(w, r, http.StatusBadRequest, in, validation.Errors{{Field: "account_email", Message: "email_in_use"}}, nil)
		return
	case errors.Is(err, services.ErrNotFound):
		middleware.Flash(w, r, "account_not_found")
		h.redirect(w, r, "/account/")
		return
	case err != nil:
		h.log(r).WithError(err).Error("account update failed")
		middleware.Flash(w, r, "account_update_failed")
		h.renderUpdate(w, r, http.StatusInternalServerError, in, nil, nil)
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.AccountID == acc.ID {
		id := identityOf(acc)
		// The role stays as issued until the next login.
		id.Type = claims.Type
		if err := h.Auth.Login(w, id); err != nil {
			h.serverError(w, r, err, "")
			return
		}
	}
	middleware.Flash(w, r, "account_updated")
	h.redirect(w, r, "/account/")
}

// UpdatePassword replaces the password. A blank submission changes nothing.
func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.Flash(w, r, "password_change_failed")
		h.redirect(w, r, "/account/")
		return
	}
	in := validation.PasswordChangeFromRequest(r)
	if in.ID == 0 {
		middleware.Flash(w, r, "account_not_found")
		h.redirect(w, r, "/account/")
		return
	}
	acc, ok := h.target(w, r, in.ID, gate.ActionUpdate)
	if !ok {
		return
	}
	if in.Blank() {
		middleware.Flash(w, r, "password_empty")
		h.redirect(w, r, "/account/update/"+idString(acc.ID))
		return
	}
	if errs := in.Validate(); !errs.Empty() {
		h.renderUpdate(w, r, http.StatusBadRequest, formOf(acc), nil, errs)
		return
	}
	if err := h.accounts.UpdatePassword(r.Context(), acc.ID, in.Password); err != nil {
		h.log(r).WithError(err).Error("password change failed")
		middleware.Flash(w, r, "password_change_failed")
		h.renderUpdate(w, r, http.StatusInternalServerError, formOf(acc), nil, nil)
		return
	}
	middleware.Flash(w, r, "password_changed")
	h.redirect(w, r, "/account/")
}

// Logout drops the token cookie and the session, then goes home.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.Logout(w)
	middleware.Destroy(w, r)
	h.redirect(w, r, "/")
}

func identityOf(acc *models.Account) auth.Identity {
	return auth.Identity{
		AccountID: acc.ID,
		FirstName: acc.FirstName,
		LastName:  acc.LastName,
		Email:     acc.Email,
		Type:      string(acc.Type),
	}
}

func formOf(acc *models.Account) validation.AccountUpdateInput {
	return validation.AccountUpdateInput{
		ID:        acc.ID,
		FirstName: acc.FirstName,
		LastName:  acc.LastName,
		Email:     acc.Email,
	}
}
