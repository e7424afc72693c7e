package folio

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/markdown"
)

const feedItems = 30

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// renderRSS writes the newest posts. Posts without an excerpt are described
// by the start of their rendered body.
func (a *App) renderRSS(c echo.Context, posts []Content) error {
	base := a.Config.URL
	if len(posts) > feedItems {
		posts = posts[:feedItems]
	}
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		desc := p.Excerpt
		if desc == "" {
			desc = markdown.Excerpt(a.Rendered.Render(p, p.Topic), descriptionRunes)
		}
		postURL := BuildURL(base, "posts", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: desc,
			Category:    p.Topic,
			PubDate:     p.Date.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	channel := rssChannel{
		Title:       a.Config.Name,
		Link:        base,
		Description: a.Config.Description,
		Items:       items,
	}
	if len(posts) > 0 {
		channel.LastBuildDate = posts[0].UpdatedAt.Format(time.RFC1123Z)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(rssXML{Version: "2.0", Channel: channel})
}
