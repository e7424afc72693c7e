package folio

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// Slugify converts a title to a URL-safe slug: lowercase ASCII letters and
// digits joined by dashes, accents folded to their base letter. Input with
// nothing sluggable yields "".
func Slugify(s string) string {
	out, err := slug.Normalize(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return strings.Trim(out, "-")
}

// ValidSlug reports whether s is already in Slugify form.
func ValidSlug(s string) bool {
	return slug.IsValid(s)
}

// NormalizeTopic returns the URL and storage form of a topic label.
// "Voyages à vélo" becomes "voyages-a-velo".
func NormalizeTopic(topic string) string {
	return Slugify(topic)
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// GroupByTopic groups posts by topic in order of each topic's newest post,
// keeping at most perTopic posts per group. Posts without a topic go under
// fallback. perTopic <= 0 keeps every post.
func GroupByTopic(posts []Content, perTopic int, fallback string) []TopicGroup {
	var groups []TopicGroup
	index := make(map[string]int)
	for _, p := range posts {
		label := strings.TrimSpace(p.Topic)
		if label == "" {
			label = fallback
		}
		key := NormalizeTopic(label)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, TopicGroup{Topic: label, Slug: key})
		}
		if perTopic > 0 && len(groups[i].Posts) >= perTopic {
			continue
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	return groups
}

// FormatDate renders a content date for display.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

type ldPerson struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type ldWebPage struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

type ldWebSite struct {
	Context     string    `json:"@context"`
	Type        string    `json:"@type"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Author      *ldPerson `json:"author,omitempty"`
}

type ldArticle struct {
	Context       string    `json:"@context"`
	Type          string    `json:"@type"`
	Headline      string    `json:"headline"`
	Description   string    `json:"description,omitempty"`
	DatePublished string    `json:"datePublished,omitempty"`
	DateModified  string    `json:"dateModified,omitempty"`
	URL           string    `json:"url"`
	MainEntity    ldWebPage `json:"mainEntityOfPage"`
	Section       string    `json:"articleSection,omitempty"`
	Image         string    `json:"image,omitempty"`
	Author        *ldPerson `json:"author,omitempty"`
}

func ldAuthor(cfg SiteConfig) *ldPerson {
	if cfg.Author == "" {
		return nil
	}
	return &ldPerson{Type: "Person", Name: cfg.Author}
}

func ldTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func marshalLD(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WebsiteJsonLD returns the schema.org WebSite description of the site.
func WebsiteJsonLD(cfg SiteConfig) string {
	return marshalLD(ldWebSite{
		Context:     "https://schema.org",
		Type:        "WebSite",
		Name:        cfg.Name,
		URL:         BuildURL(cfg.URL),
		Description: cfg.Description,
		Author:      ldAuthor(cfg),
	})
}

// ArticleJsonLD returns the schema.org BlogPosting description of a post.
func ArticleJsonLD(post Content, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "posts", post.Slug)
	return marshalLD(ldArticle{
		Context:       "https://schema.org",
		Type:          "BlogPosting",
		Headline:      post.Title,
		Description:   post.Excerpt,
		DatePublished: ldTime(post.Date),
		DateModified:  ldTime(post.UpdatedAt),
		URL:           postURL,
		MainEntity:    ldWebPage{Type: "WebPage", ID: postURL},
		Section:       post.Topic,
		Image:         post.Cover,
		Author:        ldAuthor(cfg),
	})
}
