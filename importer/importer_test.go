package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio"
)

type memStore struct {
	items map[string]folio.Content
	next  int64
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]folio.Content)}
}

func (m *memStore) UpsertContent(c *folio.Content) error {
	key := string(c.Type) + "/" + c.Slug
	if old, ok := m.items[key]; ok {
		c.ID = old.ID
	} else {
		m.next++
		c.ID = m.next
	}
	m.items[key] = *c
	return nil
}

func (m *memStore) get(t *testing.T, typ folio.ContentType, slug string) folio.Content {
	t.Helper()
	c, ok := m.items[string(typ)+"/"+slug]
	require.True(t, ok, "missing %s %s", typ, slug)
	return c
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}

func write(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func vault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	posts := filepath.Join(root, "posts")
	write(t, filepath.Join(posts, "Voyages", "Col du Galibier.md"), `---
title: Le Galibier
date: 2023-07-14
excerpt: Une montée
cover: galibier.jpg
---
Départ à l'aube. ![[galibier.jpg]]

![[souffle.m4a]]

![[absent.png]]
`)
	write(t, filepath.Join(posts, "Voyages", "medias", "galibier.jpg"), "jpeg bytes")
	write(t, filepath.Join(posts, "Voyages", "medias", "souffle.m4a"), "audio bytes")
	write(t, filepath.Join(posts, "Voyages", "medias", "notes.md"), "not a post")
	write(t, filepath.Join(posts, "loose.md"), "No front matter here.\n")
	write(t, filepath.Join(posts, "readme.txt"), "ignored")
	write(t, filepath.Join(root, "pages", "about.md"), "---\ntitle: À propos\n---\nHello.\n")
	return root
}

func TestRunImportsPostsAndPages(t *testing.T) {
	root := vault(t)
	store := newMemStore()

	res, err := New(store, Options{
		PostsDir: filepath.Join(root, "posts"),
		PagesDir: filepath.Join(root, "pages"),
		Logger:   nopLogger{},
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Posts)
	assert.Equal(t, 1, res.Pages)
	assert.Zero(t, res.Media)

	post := store.get(t, folio.TypePost, "col-du-galibier")
	assert.Equal(t, "Le Galibier", post.Title)
	assert.Equal(t, "Voyages", post.Topic)
	assert.Equal(t, "Une montée", post.Excerpt)
	assert.Equal(t, "galibier.jpg", post.Cover)
	assert.True(t, time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC).Equal(post.Date), "date = %v", post.Date)
	assert.Contains(t, post.Content, "![[galibier.jpg]]")
	assert.NotContains(t, post.Content, "title:")

	loose := store.get(t, folio.TypePost, "loose")
	assert.Equal(t, "loose", loose.Title)
	assert.Equal(t, "", loose.Topic)
	assert.False(t, loose.Date.IsZero())

	about := store.get(t, folio.TypePage, "about")
	assert.Equal(t, "À propos", about.Title)
	assert.Equal(t, "", about.Topic)
}

func TestRunIsIdempotent(t *testing.T) {
	root := vault(t)
	store := newMemStore()
	im := New(store, Options{PostsDir: filepath.Join(root, "posts"), Logger: nopLogger{}})

	_, err := im.Run(context.Background())
	require.NoError(t, err)
	first := store.get(t, folio.TypePost, "col-du-galibier").ID

	_, err = im.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.items, 2)
	assert.Equal(t, first, store.get(t, folio.TypePost, "col-du-galibier").ID)
}

func TestRunRewritesEmbeds(t *testing.T) {
	root := vault(t)
	media := filepath.Join(root, "media")
	store := newMemStore()

	res, err := New(store, Options{
		PostsDir:      filepath.Join(root, "posts"),
		RewriteEmbeds: true,
		MediaDir:      media,
		Logger:        nopLogger{},
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Media)

	post := store.get(t, folio.TypePost, "col-du-galibier")
	assert.Contains(t, post.Content, "![galibier.jpg](/media/voyages/medias/galibier.jpg)")
	assert.Contains(t, post.Content, `<audio controls src="/media/voyages/medias/souffle.m4a"></audio>`)
	assert.Contains(t, post.Content, "![[absent.png]]", "missing files keep the vault form")

	data, err := os.ReadFile(filepath.Join(media, "voyages", "medias", "souffle.m4a"))
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))
}

func TestRewriteRequiresMediaDir(t *testing.T) {
	root := vault(t)
	_, err := New(newMemStore(), Options{
		PostsDir:      filepath.Join(root, "posts"),
		RewriteEmbeds: true,
		Logger:        nopLogger{},
	}).Run(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	root := vault(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(newMemStore(), Options{PostsDir: filepath.Join(root, "posts"), Logger: nopLogger{}}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMissingPagesDirIsNotFatal(t *testing.T) {
	res, err := New(newMemStore(), Options{PagesDir: filepath.Join(t.TempDir(), "nope"), Logger: nopLogger{}}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Pages)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   any
		want time.Time
		ok   bool
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-05 10:30", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), true},
		{"2024-01-05T10:30:00+02:00", time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"soon", time.Time{}, false},
		{nil, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		assert.Equal(t, tt.ok, ok, "parseDate(%v)", tt.in)
		assert.True(t, tt.want.Equal(got), "parseDate(%v) = %v, want %v", tt.in, got, tt.want)
	}
}
