package markdown

import "github.com/microcosm-cc/bluemonday"

// sanitizePolicy starts from the user generated content policy and allows the
// markup the renderer itself produces: placeholders, code wrappers, footnotes
// and inline audio.
func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowElements("div", "span", "section", "sup", "audio", "source")
	p.AllowAttrs("class", "id", "role").Globally()
	p.AllowAttrs("controls", "preload", "src").OnElements("audio", "source")
	p.AllowAttrs("loading").OnElements("img")
	return p
}
