package markdown

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var reYouTube = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// YouTubeID extracts the 11-character video id from a YouTube URL.
func YouTubeID(url string) (string, bool) {
	m := reYouTube.FindStringSubmatch(url)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// KindYouTubeEmbed is the node kind of links rewritten into video embeds.
var KindYouTubeEmbed = ast.NewNodeKind("YouTubeEmbed")

// YouTubeEmbed replaces a link or autolink that points at a YouTube video.
// Link children are kept so the label survives until hydration.
type YouTubeEmbed struct {
	ast.BaseInline
	VideoID string
	URL     string
	// Label is set for autolinks, which carry no child nodes.
	Label []byte
}

// Kind implements ast.Node.
func (n *YouTubeEmbed) Kind() ast.NodeKind {
	return KindYouTubeEmbed
}

// Dump implements ast.Node.
func (n *YouTubeEmbed) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"VideoID": n.VideoID,
		"URL":     n.URL,
	}, nil)
}

// youtubeTransformer walks the finished link nodes and swaps matching ones
// for YouTubeEmbed nodes. Collection and replacement are separate passes so
// the tree is not mutated during the walk.
type youtubeTransformer struct{}

func (youtubeTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var links []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			links = append(links, n)
		case *ast.AutoLink:
			if n.AutoLinkType == ast.AutoLinkURL {
				links = append(links, n)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, n := range links {
		var dest string
		switch n := n.(type) {
		case *ast.Link:
			dest = string(n.Destination)
		case *ast.AutoLink:
			dest = string(n.URL(source))
		}
		id, ok := YouTubeID(dest)
		if !ok {
			continue
		}
		embed := &YouTubeEmbed{VideoID: id, URL: dest}
		if al, isAuto := n.(*ast.AutoLink); isAuto {
			embed.Label = al.Label(source)
		}
		for c := n.FirstChild(); c != nil; {
			next := c.NextSibling()
			embed.AppendChild(embed, c)
			c = next
		}
		n.Parent().ReplaceChild(n.Parent(), n, embed)
	}
}
