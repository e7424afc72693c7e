package folio

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/eringen/folio/markdown"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// ErrDuplicateSlug is returned when a slug is already used within a type.
var ErrDuplicateSlug = errors.New("folio: slug already exists for this type")

// ContentCache is an in-memory cache of content listings with TTL.
type ContentCache struct {
	mu      sync.RWMutex
	lists   map[ContentType][]Content
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: s, ttl: ttl}
}

func (c *ContentCache) valid() bool {
	return c.lists != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.lists = nil
	c.mu.Unlock()
}

func (c *ContentCache) load() error {
	if c.valid() {
		return nil
	}
	lists := make(map[ContentType][]Content, 3)
	for _, typ := range []ContentType{TypePost, TypePage, TypeLink} {
		items, err := c.store.ListContent(typ)
		if err != nil {
			return err
		}
		lists[typ] = items
	}
	c.lists = lists
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns the cached listings after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *ContentCache) ensureLoaded() (map[ContentType][]Content, error) {
	c.mu.RLock()
	if c.valid() {
		lists := c.lists
		c.mu.RUnlock()
		return lists, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.lists, nil
}

// List returns every record of a type, newest first.
func (c *ContentCache) List(typ ContentType) ([]Content, error) {
	lists, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	return lists[typ], nil
}

// Get returns a single record by slug and type from the cache.
func (c *ContentCache) Get(slug string, typ ContentType) (Content, error) {
	items, err := c.List(typ)
	if err != nil {
		return Content{}, err
	}
	for _, item := range items {
		if item.Slug == slug {
			return item, nil
		}
	}
	return Content{}, ErrNotFound
}

// ListByTopic returns posts whose normalized topic equals topicSlug.
func (c *ContentCache) ListByTopic(topicSlug string) ([]Content, error) {
	posts, err := c.List(TypePost)
	if err != nil {
		return nil, err
	}
	var filtered []Content
	for _, p := range posts {
		if NormalizeTopic(p.Topic) == topicSlug {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

type renderKey struct {
	id      int64
	updated int64
	topic   string
}

// RenderCache memoizes rendered HTML keyed by record id, update time and
// topic. It is a small LRU; stale versions of an edited record age out.
type RenderCache struct {
	renderer *markdown.Renderer
	entries  *lru.Cache[renderKey, string]
}

// NewRenderCache wraps r with an LRU of at most max entries.
func NewRenderCache(r *markdown.Renderer, max int) *RenderCache {
	if max < 1 {
		max = 1
	}
	entries, err := lru.New[renderKey, string](max)
	if err != nil {
		panic(err) // only for a non-positive size
	}
	return &RenderCache{renderer: r, entries: entries}
}

// Render returns the HTML of c rendered with the given topic. Records
// without an id are rendered but not kept.
func (rc *RenderCache) Render(c Content, topic string) string {
	key := renderKey{id: c.ID, updated: c.UpdatedAt.UnixNano(), topic: topic}
	if html, ok := rc.entries.Get(key); ok {
		return html
	}
	html := rc.renderer.Render(c.Content, markdown.Context{Topic: topic})
	if c.ID != 0 {
		rc.entries.Add(key, html)
	}
	return html
}

// Len returns the number of memoized entries.
func (rc *RenderCache) Len() int {
	return rc.entries.Len()
}
