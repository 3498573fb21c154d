// Package view renders html/template pages wrapped in the shared layout.
package view

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/i18n"
	"github.com/diewo77/go-dealership/validation"
)

var (
	mu      sync.RWMutex
	root    string
	devMode bool
	pages   = map[string]*template.Template{}
	digests = map[string]string{}

	canProfileResolver func(*http.Request, string, string) bool
	navResolver        func(*http.Request) any
	flashResolver      func(http.ResponseWriter, *http.Request) []string
)

// partials are parsed with every page.
var partials = []string{
	"nav.html",
	"flashes.html",
	"errors.html",
	"classification-grid.html",
	"classification-select.html",
	"vehicle-detail.html",
	"inventory-form.html",
}

// SetDevMode disables the template and asset caches so edits show on reload.
func SetDevMode(on bool) { devMode = on }

// SetCanProfileResolver backs the can template func.
func SetCanProfileResolver(f func(*http.Request, string, string) bool) { canProfileResolver = f }

// SetNavResolver provides the classifications listed in the navigation.
// A nil f removes it.
func SetNavResolver(f func(*http.Request) any) { navResolver = f }

// SetFlashResolver provides the notices consumed when a page renders.
func SetFlashResolver(f func(http.ResponseWriter, *http.Request) []string) { flashResolver = f }

// SetBaseDir points the renderer at a templates directory. Static assets are
// looked up in the sibling static directory.
func SetBaseDir(dir string) {
	if dir == "" {
		return
	}
	mu.Lock()
	root = filepath.Clean(dir)
	mu.Unlock()
}

// ResetForTests drops cached templates and asset digests and forgets the
// templates directory.
func ResetForTests() {
	mu.Lock()
	defer mu.Unlock()
	root = ""
	pages = map[string]*template.Template{}
	digests = map[string]string{}
}

// templatesDir returns the configured directory or the first templates
// directory found from the working directory upward.
func templatesDir() string {
	mu.RLock()
	dir := root
	mu.RUnlock()
	if dir != "" {
		return dir
	}
	dir = "templates"
	for _, c := range []string{"templates", "../templates", "../../templates"} {
		if fi, err := os.Stat(c); err == nil && fi.IsDir() {
			dir = c
			break
		}
	}
	SetBaseDir(dir)
	return filepath.Clean(dir)
}

// Funcs returns the template helpers bound to the request language.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"tf":   func(code string, kv ...any) string { return i18n.Tf(lang, code, dict(kv...)) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			return canProfileResolver != nil && canProfileResolver(r, resource, action)
		},
		"year":   func() int { return time.Now().Year() },
		"asset":  asset,
		"usd":    USD,
		"price":  Price,
		"number": Number,
		"selected": func(a, b any) bool {
			return a != nil && b != nil && fmt.Sprint(a) == fmt.Sprint(b)
		},
		// fieldError returns the translated first error for field, or "".
		"fieldError": func(errs validation.Errors, field string) string {
			if code := errs.For(field); code != "" {
				return i18n.T(lang, code)
			}
			return ""
		},
		// {{ template "partial" (dict "Key" val) }}
		"dict": dict,
	}
}

func dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		if key, ok := values[i].(string); ok {
			m[key] = values[i+1]
		}
	}
	return m
}

// asset maps a path under static/ to its public URL with a content digest
// query for cache busting. Absolute URLs pass through and unreadable files
// get no digest.
func asset(rel string) string {
	if strings.Contains(rel, "//") {
		return rel
	}
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	url := "/static/" + rel
	if !devMode {
		mu.RLock()
		v, ok := digests[rel]
		mu.RUnlock()
		if ok {
			return v
		}
	}
	b, err := os.ReadFile(filepath.Join(filepath.Dir(templatesDir()), "static", filepath.FromSlash(rel)))
	if err == nil {
		url = fmt.Sprintf("%s?v=%08x", url, crc32.ChecksumIEEE(b))
	}
	mu.Lock()
	digests[rel] = url
	mu.Unlock()
	return url
}

// Render executes name with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes name into a buffer and writes it with status. On
// error nothing has been written, so the caller can still send a 500.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	inject(w, r, data)

	t, err := lookup(r, name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// inject adds the values every page expects unless the handler set them.
func inject(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	claims, loggedIn := auth.ClaimsFromContext(r.Context())
	if _, exists := data["IsLoggedIn"]; !exists {
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Account"]; !exists && loggedIn {
		data["Account"] = claims
	}
	if _, exists := data["Lang"]; !exists {
		data["Lang"] = i18n.LangFromContext(r.Context())
	}
	if _, exists := data["Nav"]; !exists && navResolver != nil {
		data["Nav"] = navResolver(r)
	}
	if _, exists := data["Flashes"]; !exists && flashResolver != nil {
		data["Flashes"] = flashResolver(w, r)
	}
}

// lookup returns a copy of the page parsed with the layout and partials,
// bound to the request funcs. Parsed pages are cached outside dev mode.
func lookup(r *http.Request, name string) (*template.Template, error) {
	funcs := Funcs(r)
	if !devMode {
		mu.RLock()
		t, ok := pages[name]
		mu.RUnlock()
		if ok {
			return bind(t, funcs)
		}
	}

	dir := templatesDir()
	page := filepath.Join(dir, filepath.FromSlash(name))
	if _, err := os.Stat(page); err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	files := []string{filepath.Join(dir, "layout.html"), page}
	for _, p := range partials {
		if fi, err := os.Stat(filepath.Join(dir, "partials", p)); err == nil && !fi.IsDir() {
			files = append(files, filepath.Join(dir, "partials", p))
		}
	}
	t, err := template.New("layout.html").Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if devMode {
		return t, nil
	}
	mu.Lock()
	pages[name] = t
	mu.Unlock()
	return bind(t, funcs)
}

func bind(t *template.Template, funcs template.FuncMap) (*template.Template, error) {
	c, err := t.Clone()
	if err != nil {
		return nil, err
	}
	return c.Funcs(funcs), nil
}
