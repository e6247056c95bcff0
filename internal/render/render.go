// Package render はembedしたHTMLテンプレートでページを描画します
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static は /static/ 配下で配信する静的ファイルです
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.FileServer(http.FS(sub))
}

// Data はテンプレートに渡す値です
type Data map[string]any

// Field はフォームの入力欄1つ分です
type Field struct {
	Name  string
	Label string
	Type  string // text, email, password, textarea
	Value string
}

// Renderer はページ名ごとにレイアウトと部品を結合したテンプレートを保持します
type Renderer struct {
	pages map[string]*template.Template
}

// New はテンプレートをすべて解析します。構文エラーがあれば起動時に失敗します
func New() (*Renderer, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, p := range pages {
		name := strings.TrimSuffix(path.Base(p), ".html")
		if name == "base" {
			continue
		}
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/partials/*.html", p)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render はページを描画して書き込みます
// 途中で失敗しても中途半端なHTMLを送らないようバッファしてから書き込みます
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Data) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"timesince": timeSince,
	"add":       func(a, b int) int { return a + b },
}

// timeSince は経過時間を "3 hours" のような形式で返します
func timeSince(t time.Time) string {
	d := time.Since(t)
	units := []struct {
		name string
		d    time.Duration
	}{
		{"year", 365 * 24 * time.Hour},
		{"month", 30 * 24 * time.Hour},
		{"week", 7 * 24 * time.Hour},
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
	}
	for _, u := range units {
		if n := int(d / u.d); n > 0 {
			if n == 1 {
				return "1 " + u.name
			}
			return fmt.Sprintf("%d %ss", n, u.name)
		}
	}
	return "0 minutes"
}
