// Package folio is a personal publishing engine built with Go, Echo and templ.
// It serves posts grouped by topic, standalone pages and a link log, with an
// admin dashboard, media uploads, a JSON API, RSS and a sitemap.
//
// Post bodies are rendered by the markdown package, which understands legacy
// vault embeds (![[file]]) and turns YouTube links into video placeholders.
// Users provide their own templ templates via the ViewFuncs struct.
package folio

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"

	"github.com/eringen/folio/markdown"
)

// HomeView is the data behind the home page.
type HomeView struct {
	Site   SiteConfig
	Meta   PageMeta
	Groups []TopicGroup
	Topics []string // distinct topic labels, for navigation
	Links  []Content
	Pages  []Content
}

// ContentView is the data behind a post or page.
type ContentView struct {
	Site    SiteConfig
	Meta    PageMeta
	Content Content
	Body    templ.Component
	JSONLD  string
}

// TopicView is the data behind a topic listing.
type TopicView struct {
	Site  SiteConfig
	Meta  PageMeta
	Topic string
	Posts []Content
}

// LinksView is the data behind the link log.
type LinksView struct {
	Site  SiteConfig
	Meta  PageMeta
	Links []Content
}

// DashboardView is the data behind the admin dashboard.
type DashboardView struct {
	Posts   []Content
	Pages   []Content
	Links   []Content
	Message string
	CSRF    string
}

// FormView is the data behind the admin edit form.
type FormView struct {
	Content Content
	Errors  map[string]string
	CSRF    string
}

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages.
type ViewFuncs struct {
	Home           func(v HomeView) templ.Component
	Post           func(v ContentView) templ.Component
	Page           func(v ContentView) templ.Component
	Topic          func(v TopicView) templ.Component
	Links          func(v LinksView) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(v DashboardView) templ.Component
	AdminForm      func(v FormView) templ.Component
	AdminMedia     func(media []Media, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central folio application. It wires together the store,
// caches, renderer, handlers, middleware, and user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *ContentCache
	Renderer *markdown.Renderer
	Rendered *RenderCache
	Views    ViewFuncs

	loginLimiter  *RateLimiter
	uploadLimiter *RateLimiter
	customRoutes  []func(*App)
	staticDir     string
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and registers middleware and routes without
// listening. Start calls it; tests drive a.Echo directly afterwards.
func (a *App) Setup() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("folio: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}

	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(LogLevel(a.Config.LogLevel))

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = store
	}

	a.Cache = NewContentCache(a.Store, a.Config.CacheTTL)
	if a.Renderer == nil {
		a.Renderer = markdown.New(a.Config.RendererOptions()...)
	}
	a.Rendered = NewRenderCache(a.Renderer, a.Config.RenderCacheSize)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.uploadLimiter = NewRateLimiter(30, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("folio: listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Hydration script ships with the binary; user assets fall through to staticDir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/hydrate.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Media
	e.GET("/content/posts/*", a.handleLegacyMedia)
	e.GET("/media/*", a.handleUploadedMedia)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/:slug/", a.handlePost)
	e.GET("/topics/:topic/", a.handleTopic)
	e.GET("/links/", a.handleLinks)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/media/", a.handleMediaList)
	e.POST("/admin/media/upload/", a.handleMediaUpload, a.uploadLimiter.Middleware)
	e.DELETE("/admin/media/:id/", a.handleMediaDelete)
	e.GET("/admin/:type/new/", a.handleAdminNew)
	e.GET("/admin/:type/:id/", a.handleAdminEdit)
	e.POST("/admin/:type/save/", a.handleAdminSave)
	e.DELETE("/admin/:type/:id/", a.handleAdminDelete)

	// JSON API
	api := e.Group("/api")
	api.GET("/posts", a.handleAPIListPosts)
	api.POST("/posts", a.handleAPICreatePost, a.requireAdminJSON)
	api.DELETE("/posts/:id", a.handleAPIDeletePost, a.requireAdminJSON)
	api.POST("/media/upload", a.handleAPIMediaUpload, a.requireAdminJSON, a.uploadLimiter.Middleware)
	api.GET("/bookmarklet", handleBookmarkletRedirect)
	api.POST("/bookmarklet", a.handleBookmarkletSave, a.requireAdminJSON)

	// Pages last so fixed routes win.
	e.GET("/:page/", a.handlePage)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	for _, l := range []*RateLimiter{a.loginLimiter, a.uploadLimiter} {
		if l != nil {
			l.Stop()
		}
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// LogLevel maps a config level name onto gommon's levels. Unknown names
// mean info.
func LogLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}
