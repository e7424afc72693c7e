package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"go.abhg.dev/goldmark/mermaid"
)

type nodeRenderer struct {
	cfg config
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
	reg.Register(mermaid.Kind, r.renderMermaid)
	reg.Register(KindMediaEmbed, r.renderMediaEmbed)
	reg.Register(KindYouTubeEmbed, r.renderYouTubeEmbed)
}

// renderFencedCode writes code fences as language-tagged blocks with a
// language badge. Highlighting happens client side.
func (r *nodeRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := n.Language(source)
	if len(lang) > 0 {
		escaped := util.EscapeHTML(lang)
		_, _ = w.WriteString(`<div class="code-block-wrapper"><span class="code-lang">`)
		_, _ = w.Write(escaped)
		_, _ = w.WriteString(`</span><pre class="code-block"><code class="language-`)
		_, _ = w.Write(escaped)
		_, _ = w.WriteString(`">`)
	} else {
		_, _ = w.WriteString(`<pre class="code-block"><code>`)
	}
	writeLines(w, source, n)
	_, _ = w.WriteString("</code></pre>")
	if len(lang) > 0 {
		_, _ = w.WriteString("</div>")
	}
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderMermaid(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="mermaid">`)
	writeLines(w, source, node)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func writeLines(w util.BufWriter, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
}

func (r *nodeRenderer) renderMediaEmbed(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MediaEmbed)
	src := resolveMedia(r.cfg.mediaBaseURL, n.Path)
	attr := util.EscapeHTML([]byte(src))

	if r.cfg.inlineMedia && (isAbsoluteURL(src) || strings.HasPrefix(src, "/")) {
		switch n.Embed {
		case EmbedAudio:
			_, _ = w.WriteString(`<audio controls preload="metadata" src="`)
			_, _ = w.Write(attr)
			_, _ = w.WriteString(`"></audio>`)
		case EmbedImage:
			_, _ = w.WriteString(`<img src="`)
			_, _ = w.Write(attr)
			_, _ = w.WriteString(`" alt="`)
			_, _ = w.Write(util.EscapeHTML([]byte(n.Target)))
			_, _ = w.WriteString(`" loading="lazy">`)
		}
		return ast.WalkSkipChildren, nil
	}

	switch n.Embed {
	case EmbedAudio:
		_, _ = w.WriteString(`<div data-audio-file="`)
	case EmbedImage:
		_, _ = w.WriteString(`<div data-image-file="`)
	}
	_, _ = w.Write(attr)
	_, _ = w.WriteString(`"></div>`)
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderYouTubeEmbed(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*YouTubeEmbed)
	if !entering {
		_, _ = w.WriteString("</div>")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div data-youtube-id="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.VideoID)))
	_, _ = w.WriteString(`">`)
	if !n.HasChildren() && len(n.Label) > 0 {
		_, _ = w.Write(util.EscapeHTML(n.Label))
	}
	return ast.WalkContinue, nil
}
