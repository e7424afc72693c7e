package folio

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const sessionName = "admin_session"

// contentSecurityPolicy allows the YouTube players and the mermaid bundle
// created by the hydration script.
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' https: data:; " +
	"media-src 'self' https:; " +
	"frame-src https://www.youtube-nocookie.com https://www.youtube.com; " +
	"font-src 'self'; connect-src 'self'"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return isStaticPath(c.Request().URL.Path)
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))

	e.Use(middleware.BodyLimit("12M"))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			return isStaticPath(c.Request().URL.Path)
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			k := classifyPath(c.Request().URL.Path)
			return k != pathPage && k != pathAdmin
		},
	}))

	e.Use(cacheControlMiddleware)
}

type pathKind int

const (
	pathPage  pathKind = iota // rendered HTML
	pathAsset                 // /public/, fingerprinted or embedded
	pathMedia                 // /media/ and legacy /content/
	pathFeed                  // sitemap, feed, robots, favicon
	pathAdmin
	pathAPI
)

func classifyPath(path string) pathKind {
	switch {
	case strings.HasPrefix(path, "/public/"):
		return pathAsset
	case strings.HasPrefix(path, "/media/"), strings.HasPrefix(path, "/content/"):
		return pathMedia
	case path == "/sitemap.xml", path == "/feed.xml", path == "/robots.txt", path == "/favicon.svg":
		return pathFeed
	case strings.HasPrefix(path, "/api/"):
		return pathAPI
	case strings.HasPrefix(path, "/admin"):
		return pathAdmin
	}
	return pathPage
}

// isStaticPath reports whether path is served from disk rather than rendered.
func isStaticPath(path string) bool {
	k := classifyPath(path)
	return k == pathAsset || k == pathMedia
}

var cacheControl = map[pathKind]string{
	pathPage:  "public, max-age=3600",
	pathAsset: "public, max-age=31536000, immutable",
	pathMedia: "public, max-age=86400",
	pathFeed:  "public, max-age=86400",
	pathAdmin: "no-store",
	pathAPI:   "no-store",
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", cacheControl[classifyPath(c.Request().URL.Path)])
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// requireAdminJSON rejects API calls without an admin session.
func (a *App) requireAdminJSON(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		}
		return next(c)
	}
}

// IsAdmin checks if the current session is authenticated.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func setAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
