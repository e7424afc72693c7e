package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the home page, posts, topics, pages and the link log.
func (a *App) renderSitemap(c echo.Context, posts, pages []Content) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "links")},
	}
	seen := make(map[string]bool)
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "posts", p.Slug),
			LastMod: FormatDate(p.UpdatedAt),
		})
		if slug := NormalizeTopic(p.Topic); slug != "" && !seen[slug] {
			seen[slug] = true
			urls = append(urls, sitemapURL{Loc: BuildURL(base, "topics", slug)})
		}
	}
	for _, p := range pages {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, p.Slug),
			LastMod: FormatDate(p.UpdatedAt),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
