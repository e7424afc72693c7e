package folio

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/markdown"
)

func init() {
	// Vault recordings; the platform table often lacks it.
	_ = mime.AddExtensionType(".m4a", "audio/mp4")
}

const (
	recentLinks      = 5
	descriptionRunes = 160
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Cache.List(TypePost)
	if err != nil {
		return err
	}
	links, err := a.Cache.List(TypeLink)
	if err != nil {
		return err
	}
	pages, err := a.Cache.List(TypePage)
	if err != nil {
		return err
	}
	topics, err := a.Store.ListTopics()
	if err != nil {
		return err
	}
	if len(links) > recentLinks {
		links = links[:recentLinks]
	}
	return Render(c, a.Views.Home(HomeView{
		Site: a.Config,
		Meta: PageMeta{
			Title:       a.Config.Name,
			Description: a.Config.Description,
			URL:         BuildURL(a.Config.URL),
			OGType:      "website",
		},
		Groups: GroupByTopic(posts, a.Config.PostsPerTopic, a.Config.DefaultTopic),
		Topics: topics,
		Links:  links,
		Pages:  pages,
	}))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Cache.Get(c.Param("slug"), TypePost)
	if err != nil {
		return a.notFoundOr(c, err)
	}
	return Render(c, a.Views.Post(a.contentView(post, post.Topic, "posts")))
}

func (a *App) handlePage(c echo.Context) error {
	page, err := a.Cache.Get(c.Param("page"), TypePage)
	if err != nil {
		return a.notFoundOr(c, err)
	}
	return Render(c, a.Views.Page(a.contentView(page, "", "")))
}

// contentView renders the body of c and builds its page metadata. Pages
// render without a topic.
func (a *App) contentView(c Content, topic, section string) ContentView {
	html := a.Rendered.Render(c, topic)
	desc := c.Excerpt
	if desc == "" {
		desc = markdown.Excerpt(html, descriptionRunes)
	}
	segments := []string{c.Slug}
	ogType := "website"
	if section != "" {
		segments = []string{section, c.Slug}
		ogType = "article"
	}
	v := ContentView{
		Site: a.Config,
		Meta: PageMeta{
			Title:       c.Title,
			Description: desc,
			URL:         BuildURL(a.Config.URL, segments...),
			OGType:      ogType,
			Image:       c.Cover,
		},
		Content: c,
		Body:    templ.Raw(html),
	}
	if c.Type == TypePost {
		v.JSONLD = ArticleJsonLD(c, a.Config)
	}
	return v
}

func (a *App) handleTopic(c echo.Context) error {
	slug := NormalizeTopic(c.Param("topic"))
	posts, err := a.Cache.ListByTopic(slug)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	label := posts[0].Topic
	return Render(c, a.Views.Topic(TopicView{
		Site: a.Config,
		Meta: PageMeta{
			Title:       label,
			Description: a.Config.Description,
			URL:         BuildURL(a.Config.URL, "topics", slug),
			OGType:      "website",
		},
		Topic: label,
		Posts: posts,
	}))
}

func (a *App) handleLinks(c echo.Context) error {
	links, err := a.Cache.List(TypeLink)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Links(LinksView{
		Site: a.Config,
		Meta: PageMeta{
			Title:       "Links",
			Description: a.Config.Description,
			URL:         BuildURL(a.Config.URL, "links"),
			OGType:      "website",
		},
		Links: links,
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.List(TypePost)
	if err != nil {
		return err
	}
	pages, err := a.Cache.List(TypePage)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts, pages)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.List(TypePost)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleLegacyMedia(c echo.Context) error {
	return serveFile(c, a.Config.ContentDir, c.Param("*"))
}

func (a *App) handleUploadedMedia(c echo.Context) error {
	return serveFile(c, a.Config.MediaDir, c.Param("*"))
}

// serveFile serves rel from root. c.File goes through http.ServeContent, so
// Range requests get 206 responses for audio seeking.
func serveFile(c echo.Context, root, rel string) error {
	if unescaped, err := url.PathUnescape(rel); err == nil {
		rel = unescaped
	}
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(clean, "\x00") {
		return echo.ErrNotFound
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return echo.ErrNotFound
	}
	return c.File(full)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	if p := filepath.Join(a.staticDir, "robots.txt"); fileExists(p) {
		return c.File(p)
	}
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: " +
		strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (a *App) notFoundOr(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return err
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && !isAPI(c) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		if !isAPI(c) {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
