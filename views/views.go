// Package views provides default templates for a folio site. Sites with
// their own design pass their own folio.ViewFuncs instead.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("folio").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

type loginView struct {
	ShowError bool
	CSRF      string
}

type mediaView struct {
	Media []folio.Media
	CSRF  string
}

// Default returns the built-in templates.
func Default() folio.ViewFuncs {
	return folio.ViewFuncs{
		Home:  func(v folio.HomeView) templ.Component { return page("home", v) },
		Post:  func(v folio.ContentView) templ.Component { return page("post", v) },
		Page:  func(v folio.ContentView) templ.Component { return page("page", v) },
		Topic: func(v folio.TopicView) templ.Component { return page("topic", v) },
		Links: func(v folio.LinksView) templ.Component { return page("links", v) },
		AdminLogin: func(showError bool, csrf string) templ.Component {
			return page("admin_login", loginView{ShowError: showError, CSRF: csrf})
		},
		AdminDashboard: func(v folio.DashboardView) templ.Component { return page("admin_dashboard", v) },
		AdminForm:      func(v folio.FormView) templ.Component { return page("admin_form", v) },
		AdminMedia: func(media []folio.Media, csrf string) templ.Component {
			return page("admin_media", mediaView{Media: media, CSRF: csrf})
		},
		NotFound:    func() templ.Component { return page("not_found", nil) },
		ServerError: func() templ.Component { return page("server_error", nil) },
	}
}
