// Package importer loads a markdown vault into the content store.
//
// Posts live in <posts>/<topic>/<slug>.md with YAML front matter (title,
// date, excerpt, cover). The directory holding a file is its topic; files at
// the root have none. Pages live flat in <pages>/<slug>.md. Media sit next to
// the posts in <topic>/medias/ and are left alone unless embeds are
// rewritten, in which case they are copied into the media directory and the
// ![[file]] references are replaced by standard markup.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio"
	"github.com/eringen/folio/markdown"
)

// Store is the part of folio.Store the importer writes to.
type Store interface {
	UpsertContent(c *folio.Content) error
}

// Logger receives progress messages. echo.Logger and gommon's *log.Logger
// both satisfy it.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Options configures an import run.
type Options struct {
	PostsDir string // vault posts root, one directory per topic
	PagesDir string // optional flat directory of pages

	// RewriteEmbeds replaces ![[file]] references whose file exists in the
	// vault with Markdown images or <audio> elements pointing at MediaURL.
	RewriteEmbeds bool
	MediaDir      string // destination for copied media
	MediaURL      string // public prefix of MediaDir (default "/media")

	Logger Logger
}

// Result counts what an import wrote.
type Result struct {
	Posts   int
	Pages   int
	Media   int
	Skipped []string
}

type frontMatter struct {
	Title   string `yaml:"title" json:"title" toml:"title"`
	Slug    string `yaml:"slug" json:"slug" toml:"slug"`
	Date    any    `yaml:"date" json:"date" toml:"date"`
	Excerpt string `yaml:"excerpt" json:"excerpt" toml:"excerpt"`
	Cover   string `yaml:"cover" json:"cover" toml:"cover"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), true
	case string:
		d = strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// Importer walks a vault and upserts its documents.
type Importer struct {
	store Store
	opts  Options
	log   Logger
}

// New returns an Importer writing to s.
func New(s Store, opts Options) *Importer {
	if opts.MediaURL == "" {
		opts.MediaURL = "/media"
	}
	l := opts.Logger
	if l == nil {
		l = log.New("import")
	}
	return &Importer{store: s, opts: opts, log: l}
}

// Run imports posts and then pages. Records are keyed by (slug, type), so
// running twice updates instead of duplicating.
func (im *Importer) Run(ctx context.Context) (Result, error) {
	var res Result
	if im.opts.PostsDir != "" {
		if err := im.importPosts(ctx, &res); err != nil {
			return res, err
		}
	}
	if im.opts.PagesDir != "" {
		if err := im.importPages(ctx, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (im *Importer) importPosts(ctx context.Context, res *Result) error {
	root := im.opts.PostsDir
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "medias" && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		topic := filepath.ToSlash(rel)
		if topic == "." {
			topic = ""
		}
		ok, err := im.importFile(p, topic, folio.TypePost, res)
		if err != nil {
			return err
		}
		if ok {
			res.Posts++
		}
		return nil
	})
}

func (im *Importer) importPages(ctx context.Context, res *Result) error {
	entries, err := os.ReadDir(im.opts.PagesDir)
	if errors.Is(err, fs.ErrNotExist) {
		im.log.Warnf("import: pages directory %s does not exist", im.opts.PagesDir)
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		ok, err := im.importFile(filepath.Join(im.opts.PagesDir, e.Name()), "", folio.TypePage, res)
		if err != nil {
			return err
		}
		if ok {
			res.Pages++
		}
	}
	return nil
}

// importFile parses and stores one document. It reports false when the file
// was skipped.
func (im *Importer) importFile(p, topic string, typ folio.ContentType, res *Result) (bool, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return false, err
	}
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		im.log.Warnf("import: %s: front matter: %v, importing as plain markdown", p, err)
		fm = frontMatter{}
		body = raw
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	slug := folio.Slugify(fm.Slug)
	if slug == "" {
		slug = folio.Slugify(base)
	}
	if slug == "" {
		res.Skipped = append(res.Skipped, p)
		im.log.Warnf("import: %s: no usable slug, skipped", p)
		return false, nil
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = base
	}
	date, ok := parseDate(fm.Date)
	if !ok {
		if info, err := os.Stat(p); err == nil {
			date = info.ModTime().UTC()
		}
	}

	content := string(body)
	if im.opts.RewriteEmbeds {
		content, err = im.rewriteEmbeds(content, topic, res)
		if err != nil {
			return false, fmt.Errorf("%s: %w", p, err)
		}
	}

	c := &folio.Content{
		Slug:    slug,
		Title:   title,
		Date:    date,
		Excerpt: strings.TrimSpace(fm.Excerpt),
		Content: content,
		Topic:   topic,
		Cover:   strings.TrimSpace(fm.Cover),
		Type:    typ,
	}
	if err := im.store.UpsertContent(c); err != nil {
		return false, fmt.Errorf("%s: %w", p, err)
	}
	im.log.Infof("import: %s %s (topic %q)", typ, slug, topic)
	return true, nil
}

var reEmbed = regexp.MustCompile(`!\[\[([^\[\]\n]+)\]\]`)

// rewriteEmbeds replaces embeds whose file exists under the topic's medias
// directory. Missing files and unknown kinds keep their ![[file]] form and
// are still handled by the renderer.
func (im *Importer) rewriteEmbeds(content, topic string, res *Result) (string, error) {
	var firstErr error
	out := reEmbed.ReplaceAllStringFunc(content, func(m string) string {
		if firstErr != nil {
			return m
		}
		name := strings.TrimSpace(reEmbed.FindStringSubmatch(m)[1])
		kind := markdown.ClassifyStrict(name)
		if kind == markdown.EmbedUnrecognized {
			return m
		}
		src := filepath.Join(im.opts.PostsDir, filepath.FromSlash(markdown.MediaPath(topic, name)))
		if _, err := os.Stat(src); err != nil {
			im.log.Warnf("import: embed %s not found at %s", name, src)
			return m
		}
		dest := markdown.MediaPath(folio.NormalizeTopic(topic), name)
		if err := im.copyMedia(src, dest); err != nil {
			firstErr = err
			return m
		}
		res.Media++
		u := strings.TrimRight(im.opts.MediaURL, "/") + "/" + escapePath(dest)
		if kind == markdown.EmbedAudio {
			return `<audio controls src="` + u + `"></audio>`
		}
		return "![" + name + "](" + u + ")"
	})
	return out, firstErr
}

func (im *Importer) copyMedia(src, rel string) error {
	if im.opts.MediaDir == "" {
		return errors.New("media directory is required to rewrite embeds")
	}
	dest := filepath.Join(im.opts.MediaDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// escapePath escapes each segment so file names with spaces stay valid in
// Markdown link destinations.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = folio.PathEscape(s)
	}
	return path.Join(parts...)
}
