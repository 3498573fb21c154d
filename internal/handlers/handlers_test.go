package handlers_test

import (
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/i18n"
	"github.com/diewo77/go-dealership/internal/config"
	"github.com/diewo77/go-dealership/internal/db"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/policy"
	"github.com/diewo77/go-dealership/view"
)

// suvID is the seeded SUV classification.
const suvID = "4"

type env struct {
	t       *testing.T
	db      *gorm.DB
	authn   *auth.Authenticator
	cfg     *policy.RouterConfig
	handler http.Handler
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	log, _ := test.NewNullLogger()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	conn, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: dsn}, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(conn))

	authn := auth.NewAuthenticator(
		auth.NewTokenService("test-secret", time.Hour),
		auth.NewCookieCarrier(false, time.Hour),
		middleware.Flash,
	)
	cfg := policy.NewRouterConfig(conn, authn, nil, log)

	view.ResetForTests()
	view.SetBaseDir("../../templates")
	view.SetFlashResolver(middleware.Flashes)
	view.SetNavResolver(func(r *http.Request) any {
		list, _ := cfg.Classifications.List(r.Context())
		return list
	})
	view.SetCanProfileResolver(func(r *http.Request, resource, action string) bool {
		return cfg.AuthGate.CanProfile(r.Context(), gate.Action(action), resource)
	})

	mux := http.NewServeMux()
	hh, ah, ih, ch, fh := cfg.HomeHandler, cfg.AccountHandler, cfg.InventoryHandler, cfg.ClassificationHandler, cfg.FavoriteHandler
	staff := func(h http.HandlerFunc) http.Handler { return cfg.AuthGate.RequireEmployeeOrAdmin()(h) }
	login := func(h http.HandlerFunc) http.Handler { return authn.RequireLogin(h) }

	mux.HandleFunc("GET /{$}", hh.Index)
	mux.HandleFunc("GET /error/trigger", hh.TriggerError)
	mux.HandleFunc("GET /inv/type/{classificationId}", ih.ByClassification)
	mux.HandleFunc("GET /inv/detail/{invId}", ih.Detail)
	mux.HandleFunc("POST /account/login", ah.Login)
	mux.HandleFunc("POST /account/register", ah.Register)
	mux.HandleFunc("GET /account/logout", ah.Logout)
	mux.Handle("GET /account/{$}", login(ah.Management))
	mux.Handle("GET /account/update/{accountId}", login(ah.UpdateForm))
	mux.Handle("POST /account/update", login(ah.Update))
	mux.Handle("POST /account/update/{accountId}", login(ah.Update))
	mux.Handle("POST /account/update-password", login(ah.UpdatePassword))
	mux.Handle("GET /account/favorites", login(fh.List))
	mux.Handle("POST /inv/favorite/{invId}", login(fh.Add))
	mux.Handle("POST /inv/favorite/{invId}/delete", login(fh.Remove))
	mux.Handle("GET /inv/{$}", staff(ih.Management))
	mux.Handle("GET /inv/getInventory/{classificationId}", staff(ih.InventoryJSON))
	mux.Handle("POST /inv/add-inventory", staff(ih.Add))
	mux.Handle("POST /inv/update/", staff(ih.Update))
	mux.Handle("POST /inv/delete/{invId}", staff(ih.Delete))
	mux.Handle("POST /inv/add-classification", staff(ch.Add))
	mux.HandleFunc("/", hh.NotFound)

	var h http.Handler = authn.TokenGate(mux)
	h = middleware.Session(middleware.NewCookieStore("test-session-secret", false))(h)
	h = middleware.Prefs(h)
	return &env{t: t, db: conn, authn: authn, cfg: cfg, handler: h}
}

// client keeps cookies between requests like a browser.
type client struct {
	e       *env
	cookies map[string]*http.Cookie
}

func (e *env) client() *client { return &client{e: e, cookies: map[string]*http.Cookie{}} }

// as logs the client in with a token for acc.
func (e *env) as(acc *models.Account) *client {
	c := e.client()
	tok, err := e.authn.Tokens.Issue(auth.Identity{AccountID: acc.ID, FirstName: acc.FirstName, Email: acc.Email, Type: string(acc.Type)})
	require.NoError(e.t, err)
	c.cookies[auth.TokenCookieName] = &http.Cookie{Name: auth.TokenCookieName, Value: tok}
	return c
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.e.handler.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rr
}

func (c *client) get(path string) *httptest.ResponseRecorder { return c.do(http.MethodGet, path, nil) }

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form)
}

func (e *env) account(email string) *models.Account {
	var acc models.Account
	require.NoError(e.t, e.db.Where("email = ?", email).First(&acc).Error)
	return &acc
}

func (e *env) newClient(first, email string) *models.Account {
	acc, err := e.cfg.Accounts.Register(e.t.Context(), first, "Tester", email, "Secret#123")
	require.NoError(e.t, err)
	return acc
}

func msg(code string) string { return template.HTMLEscapeString(i18n.T("en", code)) }

func assertRedirect(t *testing.T, rr *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, location, rr.Header().Get("Location"))
}

func TestRegisterDuplicateEmailKeepsNames(t *testing.T) {
	e := setupEnv(t)
	rr := e.client().post("/account/register", url.Values{
		"account_firstname": {"Ana"},
		"account_lastname":  {"Lopez"},
		"account_email":     {db.SeedAdminEmail},
		"account_password":  {"Secret#123"},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, msg("register_failed"))
	assert.Contains(t, body, `value="Ana"`)
	assert.Contains(t, body, `value="Lopez"`)
	assert.NotContains(t, body, "Secret#123")
}

func TestRegisterSuccessRendersLogin(t *testing.T) {
	e := setupEnv(t)
	rr := e.client().post("/account/register", url.Values{
		"account_firstname": {"Ana"},
		"account_lastname":  {"Lopez"},
		"account_email":     {"Ana@Example.com"},
		"account_password":  {"Secret#123"},
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), template.HTMLEscapeString(i18n.Tf("en", "register_success", map[string]any{"FirstName": "Ana"})))

	acc := e.account("ana@example.com")
	assert.Equal(t, models.AccountClient, acc.Type)
	assert.True(t, auth.CheckPassword(acc.Password, "Secret#123"))
}

func TestRegisterValidationErrors(t *testing.T) {
	e := setupEnv(t)
	rr := e.client().post("/account/register", url.Values{
		"account_firstname": {"Ana"},
		"account_email":     {"nope"},
		"account_password":  {"weak"},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), msg("password_rules"))
	assert.Contains(t, rr.Body.String(), `value="Ana"`)
}

func TestRegisterHashFailureShowsGenericError(t *testing.T) {
	e := setupEnv(t)
	e.cfg.Accounts.Hash = func(string) (string, error) {
		return "", errors.New("crypto/bcrypt: cost exploded")
	}
	rr := e.client().post("/account/register", url.Values{
		"account_firstname": {"Ana"},
		"account_lastname":  {"Lopez"},
		"account_email":     {"ana@example.com"},
		"account_password":  {"Secret#123"},
	})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, msg("register_hash_error"))
	assert.Contains(t, body, `value="Ana"`)
	assert.NotContains(t, body, "bcrypt")
	assert.NotContains(t, body, "Secret#123")

	var n int64
	require.NoError(t, e.db.Model(&models.Account{}).Where("email = ?", "ana@example.com").Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	e := setupEnv(t)
	rr := e.client().post("/account/register", url.Values{
		"account_firstname": {"Ana"},
		"account_lastname":  {"Lopez"},
		"account_email":     {"ana@example.com"},
		"account_password":  {"Secret#1" + strings.Repeat("a", 80)},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), msg("password_too_long"))
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	e := setupEnv(t)
	wrongPassword := e.client().post("/account/login", url.Values{
		"account_email":    {db.SeedAdminEmail},
		"account_password": {"Wrong#Pass1"},
	})
	unknownEmail := e.client().post("/account/login", url.Values{
		"account_email":    {"ghost@example.com"},
		"account_password": {"Wrong#Pass1"},
	})
	for _, rr := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail} {
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), msg("login_failed"))
		for _, ck := range rr.Result().Cookies() {
			assert.NotEqual(t, auth.TokenCookieName, ck.Name)
		}
	}
	assert.Equal(t,
		strings.ReplaceAll(wrongPassword.Body.String(), db.SeedAdminEmail, ""),
		strings.ReplaceAll(unknownEmail.Body.String(), "ghost@example.com", ""))
}

func TestLoginSuccessSetsTokenCookie(t *testing.T) {
	e := setupEnv(t)
	c := e.client()
	rr := c.post("/account/login", url.Values{
		"account_email":    {db.SeedAdminEmail},
		"account_password": {db.SeedStaffPassword},
	})
	assertRedirect(t, rr, "/account/")
	ck, ok := c.cookies[auth.TokenCookieName]
	require.True(t, ok, "jwt cookie expected")
	assert.True(t, ck.HttpOnly)

	claims, err := e.authn.Tokens.Verify(ck.Value)
	require.NoError(t, err)
	assert.Equal(t, string(models.AccountAdmin), claims.Type)

	page := c.get("/account/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Admin")
}

func TestRoleGatedRoutes(t *testing.T) {
	e := setupEnv(t)
	anon := e.client().get("/inv/")
	assertRedirect(t, anon, "/account/login")

	clientAcc := e.newClient("Cleo", "cleo@example.com")
	forbidden := e.as(clientAcc).get("/inv/")
	assertRedirect(t, forbidden, "/")

	for _, email := range []string{db.SeedEmployeeEmail, db.SeedAdminEmail} {
		rr := e.as(e.account(email)).get("/inv/")
		assert.Equal(t, http.StatusOK, rr.Code, email)
		assert.Contains(t, rr.Body.String(), "classificationList")
	}
}

func TestRoleChangeAppliesAfterNextLogin(t *testing.T) {
	e := setupEnv(t)
	acc := e.newClient("Rita", "rita@example.com")
	c := e.as(acc)
	require.NoError(t, e.db.Model(&models.Account{}).Where("id = ?", acc.ID).Update("type", models.AccountEmployee).Error)

	assertRedirect(t, c.get("/inv/"), "/")

	fresh := e.client()
	assertRedirect(t, fresh.post("/account/login", url.Values{
		"account_email":    {"rita@example.com"},
		"account_password": {"Secret#123"},
	}), "/account/")
	assert.Equal(t, http.StatusOK, fresh.get("/inv/").Code)
}

func TestDeleteUnknownInventoryRedirectsWithNotice(t *testing.T) {
	e := setupEnv(t)
	c := e.as(e.account(db.SeedEmployeeEmail))
	assertRedirect(t, c.post("/inv/delete/9999", nil), "/inv/")

	page := c.get("/inv/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), msg("inventory_delete_failed"))
}

func TestDeleteInventoryRemovesFavorites(t *testing.T) {
	e := setupEnv(t)
	owner := e.newClient("Fay", "fay@example.com")
	require.NoError(t, e.cfg.Favorites.Add(t.Context(), owner.ID, 1))

	c := e.as(e.account(db.SeedAdminEmail))
	assertRedirect(t, c.post("/inv/delete/1", nil), "/inv/")

	var count int64
	e.db.Model(&models.Favorite{}).Where("inventory_id = ?", 1).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, http.StatusNotFound, c.get("/inv/detail/1").Code)
}

func inventoryForm() url.Values {
	return url.Values{
		"classification_id": {suvID},
		"inv_make":          {"Ford"},
		"inv_model":         {"Bronco"},
		"inv_year":          {"2024"},
		"inv_description":   {"Rugged and ready."},
		"inv_price":         {"39995"},
		"inv_miles":         {"120"},
		"inv_color":         {"Green"},
	}
}

func TestAddInventoryUsesPlaceholderImages(t *testing.T) {
	e := setupEnv(t)
	c := e.as(e.account(db.SeedEmployeeEmail))
	assertRedirect(t, c.post("/inv/add-inventory", inventoryForm()), "/inv/")

	var inv models.Inventory
	require.NoError(t, e.db.Where("model = ?", "Bronco").First(&inv).Error)
	assert.Equal(t, models.PlaceholderImage, inv.Image)
	assert.Equal(t, models.PlaceholderThumbnail, inv.Thumbnail)

	detail := c.get("/inv/detail/" + idOf(inv.ID))
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), models.PlaceholderImage)
	assert.Contains(t, detail.Body.String(), "$39,995.00")

	list := c.get("/inv/getInventory/" + suvID)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Equal(t, "application/json", list.Header().Get("Content-Type"))
	assert.Contains(t, list.Body.String(), `"inv_thumbnail":"`+models.PlaceholderThumbnail+`"`)
}

func TestAddInventoryInvalidKeepsInput(t *testing.T) {
	e := setupEnv(t)
	form := inventoryForm()
	form.Set("inv_year", "1800")
	rr := e.as(e.account(db.SeedEmployeeEmail)).post("/inv/add-inventory", form)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), msg("inv_year_invalid"))
	assert.Contains(t, rr.Body.String(), `value="Bronco"`)
}

func TestUpdateInventory(t *testing.T) {
	e := setupEnv(t)
	c := e.as(e.account(db.SeedAdminEmail))
	form := inventoryForm()
	form.Set("inv_id", "3")
	form.Set("inv_model", "Wrangler Rubicon")
	assertRedirect(t, c.post("/inv/update/", form), "/inv/")

	var inv models.Inventory
	require.NoError(t, e.db.First(&inv, 3).Error)
	assert.Equal(t, "Wrangler Rubicon", inv.Model)

	form.Set("inv_id", "9999")
	assert.Equal(t, http.StatusNotFound, c.post("/inv/update/", form).Code)

	form.Set("inv_id", "3")
	form.Set("inv_price", "-1")
	assert.Equal(t, http.StatusBadRequest, c.post("/inv/update/", form).Code)
}

func TestAddClassification(t *testing.T) {
	e := setupEnv(t)
	c := e.as(e.account(db.SeedEmployeeEmail))

	bad := c.post("/inv/add-classification", url.Values{"classification_name": {"SUV 2"}})
	require.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, bad.Body.String(), msg("classification_name_invalid"))

	dup := c.post("/inv/add-classification", url.Values{"classification_name": {"SUV"}})
	require.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Contains(t, dup.Body.String(), msg("classification_add_failed"))

	assertRedirect(t, c.post("/inv/add-classification", url.Values{"classification_name": {"Coupe"}}), "/inv/")
	home := c.get("/")
	require.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), ">Coupe</a>")
}

func TestPublicInventoryPages(t *testing.T) {
	e := setupEnv(t)
	c := e.client()

	list := c.get("/inv/type/" + suvID)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Wrangler")
	assert.Contains(t, list.Body.String(), "$28,045")

	assert.Equal(t, http.StatusNotFound, c.get("/inv/type/99").Code)

	invalid := c.get("/inv/detail/abc")
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Contains(t, invalid.Body.String(), msg("vehicle_id_invalid"))

	missing := c.get("/inv/detail/9999")
	require.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), msg("vehicle_not_found"))

	detail := c.get("/inv/detail/3")
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), "41,205")

	assert.Equal(t, http.StatusNotFound, c.get("/no/such/page").Code)
	assert.Equal(t, http.StatusInternalServerError, c.get("/error/trigger").Code)
}

func TestFavoritesOwnership(t *testing.T) {
	e := setupEnv(t)
	owner := e.newClient("Olga", "olga@example.com")
	other := e.newClient("Otto", "otto@example.com")
	oc := e.as(owner)

	assertRedirect(t, oc.post("/inv/favorite/2", nil), "/inv/detail/2")
	list := oc.get("/account/favorites")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Camaro")

	// Another client cannot remove it by naming the owner.
	steal := e.as(other).post("/inv/favorite/2/delete", url.Values{"account_id": {idOf(owner.ID)}})
	assertRedirect(t, steal, "/inv/detail/2")
	has, err := e.cfg.Favorites.Has(t.Context(), owner.ID, 2)
	require.NoError(t, err)
	assert.True(t, has)

	admin := e.as(e.account(db.SeedAdminEmail))
	assertRedirect(t, admin.post("/inv/favorite/2/delete", url.Values{
		"account_id": {idOf(owner.ID)},
		"return":     {"favorites"},
	}), "/account/favorites")
	has, err = e.cfg.Favorites.Has(t.Context(), owner.ID, 2)
	require.NoError(t, err)
	assert.False(t, has)

	assertRedirect(t, e.client().get("/account/favorites"), "/account/login")
}

func TestAccountUpdate(t *testing.T) {
	e := setupEnv(t)
	acc := e.newClient("Uma", "uma@example.com")
	c := e.as(acc)
	oldToken := c.cookies[auth.TokenCookieName].Value

	assertRedirect(t, c.post("/account/update", url.Values{
		"account_id":        {idOf(acc.ID)},
		"account_firstname": {"Umberta"},
		"account_lastname":  {"Tester"},
		"account_email":     {"uma@example.com"},
	}), "/account/")
	require.NotEqual(t, oldToken, c.cookies[auth.TokenCookieName].Value)
	claims, err := e.authn.Tokens.Verify(c.cookies[auth.TokenCookieName].Value)
	require.NoError(t, err)
	assert.Equal(t, "Umberta", claims.FirstName)
	assert.Equal(t, "Umberta", e.account("uma@example.com").FirstName)

	taken := c.post("/account/update", url.Values{
		"account_id":        {idOf(acc.ID)},
		"account_firstname": {"Umberta"},
		"account_lastname":  {"Tester"},
		"account_email":     {db.SeedAdminEmail},
	})
	require.Equal(t, http.StatusBadRequest, taken.Code)
	assert.Contains(t, taken.Body.String(), msg("email_in_use"))

	assertRedirect(t, c.post("/account/update/"+idOf(acc.ID), url.Values{
		"account_firstname": {"Uma"},
		"account_lastname":  {"Tester"},
		"account_email":     {"uma@example.com"},
	}), "/account/")
	assert.Equal(t, "Uma", e.account("uma@example.com").FirstName)

	admin := e.account(db.SeedAdminEmail)
	assertRedirect(t, c.get("/account/update/"+idOf(admin.ID)), "/account/")
	assert.Equal(t, http.StatusOK, c.get("/account/update/"+idOf(acc.ID)).Code)
}

func TestUpdatePassword(t *testing.T) {
	e := setupEnv(t)
	acc := e.newClient("Pia", "pia@example.com")
	c := e.as(acc)

	assertRedirect(t, c.post("/account/update-password", url.Values{"account_id": {idOf(acc.ID)}}), "/account/update/"+idOf(acc.ID))

	weak := c.post("/account/update-password", url.Values{"account_id": {idOf(acc.ID)}, "account_password": {"short"}})
	require.Equal(t, http.StatusBadRequest, weak.Code)
	assert.Contains(t, weak.Body.String(), msg("password_rules"))

	assertRedirect(t, c.post("/account/update-password", url.Values{
		"account_id":       {idOf(acc.ID)},
		"account_password": {"Changed#456"},
	}), "/account/")
	assert.True(t, auth.CheckPassword(e.account("pia@example.com").Password, "Changed#456"))
}

func TestLogoutClearsToken(t *testing.T) {
	e := setupEnv(t)
	c := e.as(e.newClient("Lou", "lou@example.com"))
	assertRedirect(t, c.get("/account/logout"), "/")
	_, ok := c.cookies[auth.TokenCookieName]
	assert.False(t, ok)
	assertRedirect(t, c.get("/account/"), "/account/login")
}

func idOf(id uint) string { return strconv.FormatUint(uint64(id), 10) }
