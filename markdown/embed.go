package markdown

import (
	"bytes"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// EmbedKind classifies the target of a vault embed.
type EmbedKind int

const (
	EmbedUnrecognized EmbedKind = iota
	EmbedAudio
	EmbedImage
)

func (k EmbedKind) String() string {
	switch k {
	case EmbedAudio:
		return "audio"
	case EmbedImage:
		return "image"
	default:
		return "unrecognized"
	}
}

var (
	audioExtensions = []string{".m4a"}
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}
)

// Classify returns the kind of media a vault embed target points at.
// Audio is checked first. Every other non-empty target is an image, which
// also covers extension-less files such as exported GIFs.
func Classify(target string) EmbedKind {
	return classify(target, false)
}

// ClassifyStrict is Classify limited to known image extensions and
// extension-less names.
func ClassifyStrict(target string) EmbedKind {
	return classify(target, true)
}

func classify(target string, strict bool) EmbedKind {
	target = strings.TrimSpace(target)
	switch {
	case target == "", strings.ContainsAny(target, "\n[]"):
		return EmbedUnrecognized
	case hasExtension(target, audioExtensions):
		return EmbedAudio
	case !strict:
		return EmbedImage
	case hasExtension(target, imageExtensions), path.Ext(target) == "":
		return EmbedImage
	default:
		return EmbedUnrecognized
	}
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// MediaPath builds the storage path of a vault embed: {topic}/medias/{file},
// or medias/{file} without a topic. Absolute http(s) URLs are returned as is.
func MediaPath(topic, filename string) string {
	filename = strings.TrimSpace(filename)
	if isAbsoluteURL(filename) {
		return filename
	}
	parts := make([]string, 0, 3)
	if t := strings.Trim(strings.TrimSpace(topic), "/"); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, "medias", filename)
	return strings.Join(parts, "/")
}

func isAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// resolveMedia applies the configured base URL to a media path.
func resolveMedia(base, p string) string {
	if base == "" || isAbsoluteURL(p) {
		return p
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

var topicKey = parser.NewContextKey()

// KindMediaEmbed is the node kind of vault media embeds.
var KindMediaEmbed = ast.NewNodeKind("MediaEmbed")

// MediaEmbed is a ![[file]] reference resolved against the render topic.
type MediaEmbed struct {
	ast.BaseInline
	Embed  EmbedKind
	Target string
	Path   string
}

// Kind implements ast.Node.
func (n *MediaEmbed) Kind() ast.NodeKind {
	return KindMediaEmbed
}

// Dump implements ast.Node.
func (n *MediaEmbed) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Embed":  n.Embed.String(),
		"Target": n.Target,
		"Path":   n.Path,
	}, nil)
}

var (
	embedOpen  = []byte("![[")
	embedClose = []byte("]]")
)

// embedParser recognizes ![[file]] ahead of the standard link parser.
type embedParser struct {
	strictImages bool
}

func (p *embedParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *embedParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, embedOpen) {
		return nil
	}
	end := bytes.Index(line[len(embedOpen):], embedClose)
	if end < 0 {
		return nil
	}
	target := string(line[len(embedOpen) : len(embedOpen)+end])
	kind := classify(target, p.strictImages)
	if kind == EmbedUnrecognized {
		return nil
	}
	block.Advance(len(embedOpen) + end + len(embedClose))

	topic, _ := pc.Get(topicKey).(string)
	target = strings.TrimSpace(target)
	return &MediaEmbed{
		Embed:  kind,
		Target: target,
		Path:   MediaPath(topic, target),
	}
}
