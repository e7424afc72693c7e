// Package markdown renders stored post and page bodies to HTML.
//
// Bodies mix standard Markdown, raw HTML and legacy vault embeds
// (![[file]]). Media embeds and YouTube links become placeholder elements
// that the hydration script turns into real players on the client.
package markdown

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"go.abhg.dev/goldmark/mermaid"
)

// Context carries the per-call render state. An empty Topic means the
// content has no topic and media paths are built without one.
type Context struct {
	Topic string
}

// Renderer converts content to HTML. It is immutable after New and safe for
// concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cfg    config
}

type config struct {
	mediaBaseURL string
	inlineMedia  bool
	strictImages bool
	sanitize     bool
}

// Option configures a Renderer.
type Option func(*config)

// WithMediaBaseURL prefixes legacy vault media paths, e.g. "/content/posts".
func WithMediaBaseURL(base string) Option {
	return func(c *config) {
		c.mediaBaseURL = base
	}
}

// WithInlineMedia emits <audio> and <img> elements directly instead of
// placeholders whenever the resolved media URL is absolute.
func WithInlineMedia(v bool) Option {
	return func(c *config) {
		c.inlineMedia = v
	}
}

// WithStrictImageEmbeds restricts image embeds to known image extensions and
// extension-less names. Anything else is left as literal text.
func WithStrictImageEmbeds(v bool) Option {
	return func(c *config) {
		c.strictImages = v
	}
}

// WithSanitize runs the output through an allow-list policy that keeps the
// placeholder attributes.
func WithSanitize(v bool) Option {
	return func(c *config) {
		c.sanitize = v
	}
}

// New builds a Renderer.
func New(opts ...Option) *Renderer {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
		),
		goldmark.WithParserOptions(
			parser.WithInlineParsers(
				util.Prioritized(&embedParser{strictImages: cfg.strictImages}, 199),
			),
			parser.WithASTTransformers(
				util.Prioritized(&mermaid.Transformer{NoScript: true}, 100),
				util.Prioritized(youtubeTransformer{}, 200),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&nodeRenderer{cfg: cfg}, 100),
			),
		),
	)

	r := &Renderer{md: md, cfg: cfg}
	if cfg.sanitize {
		r.policy = sanitizePolicy()
	}
	return r
}

// RenderTo writes the HTML for content to w.
func (r *Renderer) RenderTo(w io.Writer, content string, ctx Context) error {
	pc := parser.NewContext()
	pc.Set(topicKey, ctx.Topic)

	if r.policy == nil {
		return r.md.Convert([]byte(content), w, parser.WithContext(pc))
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
		return err
	}
	_, err := w.Write(r.policy.SanitizeBytes(buf.Bytes()))
	return err
}

// Render returns the HTML for content.
func (r *Renderer) Render(content string, ctx Context) string {
	var buf bytes.Buffer
	// bytes.Buffer writes do not fail and the parser has no content errors.
	_ = r.RenderTo(&buf, content, ctx)
	return buf.String()
}

// Component returns a templ.Component that renders content as HTML.
func (r *Renderer) Component(content string, ctx Context) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return r.RenderTo(w, content, ctx)
	})
}
