package folio

import (
	"time"

	"github.com/eringen/folio/markdown"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "Folio")
	URL         string `mapstructure:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description"` // Site description for RSS and meta tags
	Author      string `mapstructure:"author"`      // Author name for JSON-LD

	Addr         string `mapstructure:"addr"`          // Listen address (default ":3000")
	DatabasePath string `mapstructure:"database_path"` // SQLite path (default "data/folio.db")
	LogLevel     string `mapstructure:"log_level"`     // debug, info, warn, error, off (default "info")

	AdminPassword string `mapstructure:"admin_password"` // Required: admin login password
	SessionSecret string `mapstructure:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true for HTTPS

	// ContentDir holds legacy vault media, served at /content/posts/.
	ContentDir string `mapstructure:"content_dir"`
	// MediaDir holds uploaded media, served at /media/.
	MediaDir string `mapstructure:"media_dir"`
	// MediaBaseURL prefixes vault embed paths in rendered HTML. Empty keeps
	// bare paths and leaves resolution to the hydration script.
	MediaBaseURL string `mapstructure:"media_base_url"`
	InlineMedia  bool   `mapstructure:"inline_media"`
	StrictImages bool   `mapstructure:"strict_images"`
	SanitizeHTML bool   `mapstructure:"sanitize_html"`

	PostsPerTopic   int           `mapstructure:"posts_per_topic"`   // Home page posts per topic (default 3)
	DefaultTopic    string        `mapstructure:"default_topic"`     // Heading for posts without a topic (default "Non classé")
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`         // Listing cache TTL (default 5min)
	RenderCacheSize int           `mapstructure:"render_cache_size"` // Rendered HTML entries kept (default 256)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Folio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content/posts"
	}
	if c.MediaDir == "" {
		c.MediaDir = "data/media"
	}
	if c.PostsPerTopic == 0 {
		c.PostsPerTopic = 3
	}
	if c.DefaultTopic == "" {
		c.DefaultTopic = "Non classé"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.RenderCacheSize == 0 {
		c.RenderCacheSize = 256
	}
}

// RendererOptions maps the media settings onto markdown options.
func (c SiteConfig) RendererOptions() []markdown.Option {
	return []markdown.Option{
		markdown.WithMediaBaseURL(c.MediaBaseURL),
		markdown.WithInlineMedia(c.InlineMedia),
		markdown.WithStrictImageEmbeds(c.StrictImages),
		markdown.WithSanitize(c.SanitizeHTML),
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithRenderer replaces the renderer built from SiteConfig.
func WithRenderer(r *markdown.Renderer) Option {
	return func(a *App) {
		a.Renderer = r
	}
}
