package folio

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/net/html"

	"github.com/eringen/folio/markdown"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type listResponse struct {
	Posts      []Content  `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func queryInt(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// handleAPIListPosts serves GET /api/posts?topic=&limit=&page=&type=.
func (a *App) handleAPIListPosts(c echo.Context) error {
	typ := TypePost
	if t := ContentType(c.QueryParam("type")); t != "" {
		if !t.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Unknown type"})
		}
		typ = t
	}
	limit := queryInt(c, "limit", defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page := queryInt(c, "page", 1)

	items, total, err := a.Store.ListContentPage(typ, NormalizeTopic(c.QueryParam("topic")), limit, page)
	if err != nil {
		return err
	}
	if items == nil {
		items = []Content{}
	}
	return c.JSON(http.StatusOK, listResponse{
		Posts: items,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

type createRequest struct {
	Title   string      `json:"title" form:"title"`
	Slug    string      `json:"slug" form:"slug"`
	Content string      `json:"content" form:"content"`
	Excerpt string      `json:"excerpt" form:"excerpt"`
	Topic   string      `json:"topic" form:"topic"`
	Cover   string      `json:"cover" form:"cover"`
	URL     string      `json:"url" form:"url"`
	Type    ContentType `json:"type" form:"type"`
}

// handleAPICreatePost serves POST /api/posts. Title, slug and content are
// required; the date is the time of creation.
func (a *App) handleAPICreatePost(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Slug) == "" || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
	}
	if req.Type == "" {
		req.Type = TypePost
	}
	item := Content{
		Title:   strings.TrimSpace(req.Title),
		Slug:    strings.TrimSpace(req.Slug),
		Content: req.Content,
		Excerpt: strings.TrimSpace(req.Excerpt),
		Topic:   strings.TrimSpace(req.Topic),
		Cover:   strings.TrimSpace(req.Cover),
		URL:     strings.TrimSpace(req.URL),
		Type:    req.Type,
		Date:    time.Now().UTC(),
	}
	return a.createContent(c, item)
}

func (a *App) createContent(c echo.Context, item Content) error {
	if err := item.Validate(); err != nil {
		if fields := validationMessages(err); fields != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Validation failed", Fields: fields})
		}
		return err
	}
	exists, err := a.Store.SlugExists(item.Slug, item.Type, 0)
	if err != nil {
		return err
	}
	if exists {
		return c.JSON(http.StatusConflict, errorResponse{Error: "A " + string(item.Type) + " with this slug already exists"})
	}
	if err := a.Store.SaveContent(&item); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		}
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, item)
}

// handleAPIDeletePost serves DELETE /api/posts/:id for any content type.
func (a *App) handleAPIDeletePost(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid id"})
	}
	if err := a.Store.DeleteContent(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
		}
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
	Type     string `json:"type"`
}

// handleAPIMediaUpload serves POST /api/media/upload with a multipart file
// and an optional topic.
func (a *App) handleAPIMediaUpload(c echo.Context) error {
	file, _ := c.FormFile("file")
	m, err := a.saveUpload(file, c.FormValue("topic"))
	if err != nil {
		if isClientUploadError(err) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, uploadResponse{
		Success:  true,
		URL:      MediaURL(m),
		FileName: m.FileName,
		Path:     m.Path,
		Type:     m.MimeType,
	})
}

// handleBookmarkletRedirect sends the bookmarklet to the prefilled link form.
func handleBookmarkletRedirect(c echo.Context) error {
	q := url.Values{}
	q.Set("url", c.QueryParam("url"))
	q.Set("title", c.QueryParam("title"))
	if sel := c.QueryParam("selection"); sel != "" {
		q.Set("excerpt", markdown.PlainText(sel))
	}
	return c.Redirect(http.StatusSeeOther, "/admin/link/new/?"+q.Encode())
}

type bookmarkRequest struct {
	URL       string `json:"url" form:"url"`
	Title     string `json:"title" form:"title"`
	Excerpt   string `json:"excerpt" form:"excerpt"`
	Selection string `json:"selection" form:"selection"`
	Topic     string `json:"topic" form:"topic"`
}

// handleBookmarkletSave stores a link. The selected HTML becomes the
// Markdown body and the slug gets a time suffix so the same page can be
// saved twice.
func (a *App) handleBookmarkletSave(c echo.Context) error {
	var req bookmarkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
	}
	now := time.Now().UTC()
	body := strings.TrimSpace(req.Excerpt)
	if req.Selection != "" {
		converted, err := selectionMarkdown(req.Selection)
		if err != nil {
			c.Logger().Warnf("bookmarklet: convert selection: %v", err)
		} else if converted != "" {
			body = converted
		}
	}
	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" && req.Selection != "" {
		excerpt = markdown.Excerpt(req.Selection, descriptionRunes)
	}
	return a.createContent(c, Content{
		Title:   strings.TrimSpace(req.Title),
		Slug:    bookmarkSlug(req.Title, now),
		Content: body,
		Excerpt: excerpt,
		Topic:   strings.TrimSpace(req.Topic),
		URL:     strings.TrimSpace(req.URL),
		Type:    TypeLink,
		Date:    now,
	})
}

// bookmarkSlug appends the last six digits of the unix millis to the title slug.
func bookmarkSlug(title string, now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	suffix := ms[len(ms)-6:]
	base := Slugify(title)
	if base == "" {
		return "link-" + suffix
	}
	return base + "-" + suffix
}

func selectionMarkdown(selection string) (string, error) {
	doc, err := html.Parse(strings.NewReader(selection))
	if err != nil {
		return "", err
	}
	out, err := htmltomarkdown.ConvertNode(doc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
