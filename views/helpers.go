package views

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
)

var funcs = template.FuncMap{
	"formatDate": folio.FormatDate,
	"topicURL": func(topic string) string {
		return "/topics/" + folio.NormalizeTopic(topic) + "/"
	},
	"websiteJSONLD": func(cfg folio.SiteConfig) template.JS {
		return template.JS(folio.WebsiteJsonLD(cfg))
	},
	"jsonLD": func(s string) template.JS {
		return template.JS(s)
	},
	"render":   renderComponent,
	"typeName": typeName,
	"mediaURL": folio.MediaURL,
	"isImage": func(m folio.Media) bool {
		return strings.HasPrefix(m.MimeType, "image/")
	},
	"dateInput": func(c folio.Content) string {
		if c.Date.IsZero() {
			return ""
		}
		return c.Date.UTC().Format(folio.FormDateLayout)
	},
}

// renderComponent inlines a templ component, such as a rendered body, into
// an html/template page.
func renderComponent(c templ.Component) (template.HTML, error) {
	if c == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// typeName returns the dashboard label of a content type.
func typeName(t folio.ContentType) string {
	switch t {
	case folio.TypePage:
		return "Page"
	case folio.TypeLink:
		return "Link"
	default:
		return "Post"
	}
}
