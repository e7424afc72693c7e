package folio

import "time"

// ContentType partitions content records. Slugs are unique per type.
type ContentType string

const (
	TypePost ContentType = "post"
	TypePage ContentType = "page"
	TypeLink ContentType = "link"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case TypePost, TypePage, TypeLink:
		return true
	}
	return false
}

// Content is a post, page or link stored in SQLite and rendered by templates.
type Content struct {
	ID        int64       `json:"id"`
	Slug      string      `json:"slug"`
	Title     string      `json:"title"`
	Date      time.Time   `json:"date"`
	Excerpt   string      `json:"excerpt,omitempty"`
	Content   string      `json:"content"`
	Topic     string      `json:"topic,omitempty"`
	Cover     string      `json:"cover,omitempty"`
	URL       string      `json:"url,omitempty"`
	Type      ContentType `json:"type"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Link returns the public path of the record.
func (c Content) Link() string {
	switch c.Type {
	case TypePage:
		return "/" + c.Slug + "/"
	case TypeLink:
		if c.URL != "" {
			return c.URL
		}
		return "/links/"
	default:
		return "/posts/" + c.Slug + "/"
	}
}

// TopicGroup is a topic heading with its most recent posts.
type TopicGroup struct {
	Topic string
	Slug  string
	Posts []Content
}

// Media is an uploaded file stored under {topic}/medias/.
type Media struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"fileName"`
	Path       string    `json:"path"`
	Topic      string    `json:"topic,omitempty"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
