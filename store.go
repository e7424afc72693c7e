package folio

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const contentColumns = `id, slug, title, date, excerpt, content, topic, cover, url, type, updated_at`

// Store wraps a SQLite database and provides CRUD operations for content
// records and uploaded media.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL with a busy timeout lets page renders read while the admin writes.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS contents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    topic TEXT NOT NULL DEFAULT '',
    topic_slug TEXT NOT NULL DEFAULT '',
    cover TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (slug, type)
);
CREATE INDEX IF NOT EXISTS idx_contents_type_date ON contents (type, date DESC);
CREATE INDEX IF NOT EXISTS idx_contents_topic ON contents (topic_slug, type);
CREATE TABLE IF NOT EXISTS media (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    topic TEXT NOT NULL DEFAULT '',
    mime_type TEXT NOT NULL,
    size INTEGER NOT NULL,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (Content, error) {
	var c Content
	var date, updated, typ string
	if err := row.Scan(&c.ID, &c.Slug, &c.Title, &date, &c.Excerpt, &c.Content,
		&c.Topic, &c.Cover, &c.URL, &typ, &updated); err != nil {
		return Content{}, err
	}
	c.Type = ContentType(typ)
	c.Date = parseTime(date)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

func scanContents(rows *sql.Rows) ([]Content, error) {
	defer rows.Close()
	var out []Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// GetContent returns the record with the given slug and type.
func (s *Store) GetContent(slug string, typ ContentType) (Content, error) {
	row := s.db.QueryRow(`SELECT `+contentColumns+` FROM contents WHERE slug = ? AND type = ?`, slug, string(typ))
	return scanContent(row)
}

// GetContentByID returns the record with the given id.
func (s *Store) GetContentByID(id int64) (Content, error) {
	row := s.db.QueryRow(`SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)
	return scanContent(row)
}

// ListContent returns every record of a type ordered by date descending.
func (s *Store) ListContent(typ ContentType) ([]Content, error) {
	rows, err := s.db.Query(`SELECT `+contentColumns+` FROM contents WHERE type = ? ORDER BY date DESC, id DESC`, string(typ))
	if err != nil {
		return nil, err
	}
	return scanContents(rows)
}

// ListContentPage returns one page of records of a type, optionally limited
// to a normalized topic, together with the total number of matches.
// Pages start at 1.
func (s *Store) ListContentPage(typ ContentType, topicSlug string, limit, page int) ([]Content, int, error) {
	if limit < 1 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	where := `type = ?`
	args := []any{string(typ)}
	if topicSlug != "" {
		where += ` AND topic_slug = ?`
		args = append(args, topicSlug)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM contents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.Query(`SELECT `+contentColumns+` FROM contents WHERE `+where+` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanContents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByTopic returns posts whose normalized topic equals topicSlug.
func (s *Store) ListByTopic(topicSlug string) ([]Content, error) {
	rows, err := s.db.Query(`SELECT `+contentColumns+` FROM contents WHERE type = ? AND topic_slug = ? ORDER BY date DESC, id DESC`,
		string(TypePost), topicSlug)
	if err != nil {
		return nil, err
	}
	return scanContents(rows)
}

// ListTopics returns the distinct post topics, one label per normalized
// topic, sorted by normalized form.
func (s *Store) ListTopics() ([]string, error) {
	rows, err := s.db.Query(`SELECT topic_slug, MIN(topic) FROM contents
WHERE type = ? AND topic_slug != '' GROUP BY topic_slug ORDER BY topic_slug`, string(TypePost))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []string
	for rows.Next() {
		var slug, label string
		if err := rows.Scan(&slug, &label); err != nil {
			return nil, err
		}
		topics = append(topics, label)
	}
	return topics, rows.Err()
}

// SlugExists reports whether another record of typ already uses slug.
func (s *Store) SlugExists(slug string, typ ContentType, exceptID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contents WHERE slug = ? AND type = ? AND id != ?`, slug, string(typ), exceptID).Scan(&n)
	return n > 0, err
}

// SaveContent inserts c when c.ID is zero and updates it otherwise.
// UpdatedAt is always refreshed; a zero Date defaults to now. A record never
// changes type: updating an id stored under another type is ErrNotFound.
func (s *Store) SaveContent(c *Content) error {
	now := time.Now().UTC()
	if c.Date.IsZero() {
		c.Date = now
	}
	c.UpdatedAt = now
	c.Slug = strings.TrimSpace(c.Slug)
	c.Topic = strings.TrimSpace(c.Topic)

	var err error
	if c.ID == 0 {
		var res sql.Result
		res, err = s.db.Exec(`INSERT INTO contents (slug, title, date, excerpt, content, topic, topic_slug, cover, url, type, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Slug, c.Title, formatTime(c.Date), c.Excerpt, c.Content, c.Topic, NormalizeTopic(c.Topic),
			c.Cover, c.URL, string(c.Type), formatTime(c.UpdatedAt))
		if err == nil {
			c.ID, err = res.LastInsertId()
		}
	} else {
		var res sql.Result
		res, err = s.db.Exec(`UPDATE contents SET slug = ?, title = ?, date = ?, excerpt = ?, content = ?, topic = ?,
topic_slug = ?, cover = ?, url = ?, updated_at = ? WHERE id = ? AND type = ?`,
			c.Slug, c.Title, formatTime(c.Date), c.Excerpt, c.Content, c.Topic, NormalizeTopic(c.Topic),
			c.Cover, c.URL, formatTime(c.UpdatedAt), c.ID, string(c.Type))
		if err == nil {
			err = requireAffected(res)
		}
	}
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateSlug
	}
	return err
}

// UpsertContent saves c keyed by (slug, type), keeping the existing id.
func (s *Store) UpsertContent(c *Content) error {
	existing, err := s.GetContent(c.Slug, c.Type)
	switch {
	case err == nil:
		c.ID = existing.ID
	case errors.Is(err, ErrNotFound):
		c.ID = 0
	default:
		return err
	}
	return s.SaveContent(c)
}

// DeleteContent removes a record by id.
func (s *Store) DeleteContent(id int64) error {
	res, err := s.db.Exec(`DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveMedia records an uploaded file.
func (s *Store) SaveMedia(m *Media) error {
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`INSERT INTO media (file_name, path, topic, mime_type, size, width, height, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FileName, m.Path, m.Topic, m.MimeType, m.Size, m.Width, m.Height, formatTime(m.UploadedAt))
	if err != nil {
		return fmt.Errorf("save media: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

const mediaColumns = `id, file_name, path, topic, mime_type, size, width, height, uploaded_at`

func scanMedia(row rowScanner) (Media, error) {
	var m Media
	var uploaded string
	if err := row.Scan(&m.ID, &m.FileName, &m.Path, &m.Topic, &m.MimeType, &m.Size, &m.Width, &m.Height, &uploaded); err != nil {
		return Media{}, err
	}
	m.UploadedAt = parseTime(uploaded)
	return m, nil
}

// GetMedia returns an uploaded file by id.
func (s *Store) GetMedia(id int64) (Media, error) {
	return scanMedia(s.db.QueryRow(`SELECT `+mediaColumns+` FROM media WHERE id = ?`, id))
}

// ListMedia returns uploaded files, newest first.
func (s *Store) ListMedia() ([]Media, error) {
	rows, err := s.db.Query(`SELECT ` + mediaColumns + ` FROM media ORDER BY uploaded_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMedia removes the record of an uploaded file.
func (s *Store) DeleteMedia(id int64) error {
	res, err := s.db.Exec(`DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
