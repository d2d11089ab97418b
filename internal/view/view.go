package view

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/feedback-app/internal/i18n"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

// detectBase locates the templates directory whether the process runs from
// the repo root or a package directory (tests).
func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// funcs returns the standard func map including i18n and simple helpers.
// The map captures the request language, so parsed templates are cached
// per language.
func funcs(lang string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
	}
}

// Render parses and executes a page template wrapped in layout.html.
// name is the page filename (e.g. "user_index.html"). Parsed templates are
// cached unless DEV=1, in which case every request re-reads from disk.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	once.Do(detectBase)
	if data == nil {
		data = map[string]any{}
	}
	lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
	key := lang + ":" + name
	devMode := os.Getenv("DEV") == "1"

	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.Execute(w, data)
		}
	}

	layoutPath := filepath.Join(baseDir, "layout.html")
	pagePath := filepath.Join(baseDir, name)
	t, err := template.New("layout.html").Funcs(funcs(lang)).ParseFiles(layoutPath, pagePath)
	if err != nil {
		return err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	return t.Execute(w, data)
}
