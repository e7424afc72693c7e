package folio

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "test_folio.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC)
}

func TestNewStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetContent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	post := Content{
		Slug:    "test-post",
		Title:   "Test Post",
		Date:    day(15),
		Excerpt: "A test post summary",
		Content: "# Test Content\n\n![[voice.m4a]]",
		Topic:   "Voyages à vélo",
		Type:    TypePost,
	}

	if err := s.SaveContent(&post); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("SaveContent should assign an id")
	}

	got, err := s.GetContent("test-post", TypePost)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}

	if got.ID != post.ID {
		t.Errorf("ID = %d, want %d", got.ID, post.ID)
	}
	if got.Title != post.Title {
		t.Errorf("Title = %q, want %q", got.Title, post.Title)
	}
	if !got.Date.Equal(post.Date) {
		t.Errorf("Date = %v, want %v", got.Date, post.Date)
	}
	if got.Content != post.Content {
		t.Errorf("Content = %q, want %q", got.Content, post.Content)
	}
	if got.Topic != "Voyages à vélo" {
		t.Errorf("Topic = %q, want %q", got.Topic, "Voyages à vélo")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
	if got.Link() != "/posts/test-post/" {
		t.Errorf("Link = %q, want %q", got.Link(), "/posts/test-post/")
	}

	byID, err := s.GetContentByID(post.ID)
	if err != nil {
		t.Fatalf("GetContentByID failed: %v", err)
	}
	if byID.Slug != "test-post" {
		t.Errorf("Slug = %q, want %q", byID.Slug, "test-post")
	}
}

func TestSaveContentUpdate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	post := Content{Slug: "update-test", Title: "Original Title", Date: day(1), Content: "c", Type: TypePost}
	if err := s.SaveContent(&post); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	first := post.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	post.Title = "Updated Title"
	if err := s.SaveContent(&post); err != nil {
		t.Fatalf("SaveContent update failed: %v", err)
	}

	got, err := s.GetContent("update-test", TypePost)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
	}
	if !got.UpdatedAt.After(first) {
		t.Errorf("UpdatedAt = %v, should be after %v", got.UpdatedAt, first)
	}
}

func TestSaveContentUpdateMissing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	c := Content{ID: 42, Slug: "ghost", Title: "Ghost", Content: "c", Type: TypePost}
	if err := s.SaveContent(&c); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveContentKeepsType(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	post := Content{Slug: "typed", Title: "Typed", Content: "c", Type: TypePost}
	if err := s.SaveContent(&post); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	post.Type = TypePage
	if err := s.SaveContent(&post); !errors.Is(err, ErrNotFound) {
		t.Errorf("updating under another type: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetContent("typed", TypePost); err != nil {
		t.Errorf("post should still exist: %v", err)
	}
}

func TestSaveContentDuplicateSlug(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := Content{Slug: "same", Title: "A", Content: "a", Type: TypePost}
	if err := s.SaveContent(&a); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	b := Content{Slug: "same", Title: "B", Content: "b", Type: TypePost}
	if err := s.SaveContent(&b); !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	// Slugs are unique per type.
	page := Content{Slug: "same", Title: "Page", Content: "p", Type: TypePage}
	if err := s.SaveContent(&page); err != nil {
		t.Errorf("a page may share a post slug, got %v", err)
	}

	exists, err := s.SlugExists("same", TypePost, 0)
	if err != nil || !exists {
		t.Errorf("SlugExists = %v, %v; want true, nil", exists, err)
	}
	exists, err = s.SlugExists("same", TypePost, a.ID)
	if err != nil || exists {
		t.Errorf("SlugExists excluding itself = %v, %v; want false, nil", exists, err)
	}
}

func TestGetContentNotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetContent("nonexistent", TypePost)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListContent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	items := []Content{
		{Slug: "post-1", Title: "Post 1", Date: day(1), Content: "c1", Type: TypePost},
		{Slug: "post-3", Title: "Post 3", Date: day(3), Content: "c3", Type: TypePost},
		{Slug: "post-2", Title: "Post 2", Date: day(2), Content: "c2", Type: TypePost},
		{Slug: "about", Title: "About", Date: day(4), Content: "me", Type: TypePage},
	}
	for i := range items {
		if err := s.SaveContent(&items[i]); err != nil {
			t.Fatalf("SaveContent failed: %v", err)
		}
	}

	got, err := s.ListContent(TypePost)
	if err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListContent count = %d, want 3", len(got))
	}
	want := []string{"post-3", "post-2", "post-1"}
	for i, slug := range want {
		if got[i].Slug != slug {
			t.Errorf("ListContent[%d] = %q, want %q", i, got[i].Slug, slug)
		}
	}
}

func TestListContentPage(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	for i := 1; i <= 5; i++ {
		topic := "Go"
		if i%2 == 0 {
			topic = "Vélo"
		}
		c := Content{Slug: "p" + string(rune('0'+i)), Title: "P", Date: day(i), Content: "c", Topic: topic, Type: TypePost}
		if err := s.SaveContent(&c); err != nil {
			t.Fatalf("SaveContent failed: %v", err)
		}
	}

	items, total, err := s.ListContentPage(TypePost, "", 2, 2)
	if err != nil {
		t.Fatalf("ListContentPage failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].Slug != "p3" || items[1].Slug != "p2" {
		t.Errorf("page 2 = %v, want [p3 p2]", slugs(items))
	}

	items, total, err = s.ListContentPage(TypePost, "velo", 10, 1)
	if err != nil {
		t.Fatalf("ListContentPage failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("topic velo = %v (total %d), want 2 items", slugs(items), total)
	}

	items, _, err = s.ListContentPage(TypePost, "", 10, 9)
	if err != nil {
		t.Fatalf("ListContentPage failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("out of range page should be empty, got %v", slugs(items))
	}
}

func TestListByTopicAndTopics(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	items := []Content{
		{Slug: "a", Title: "A", Date: day(1), Content: "c", Topic: "Voyages à vélo", Type: TypePost},
		{Slug: "b", Title: "B", Date: day(2), Content: "c", Topic: "Cuisine", Type: TypePost},
		{Slug: "c", Title: "C", Date: day(3), Content: "c", Topic: "Voyages à vélo", Type: TypePost},
		{Slug: "d", Title: "D", Date: day(4), Content: "c", Type: TypePost},
		{Slug: "e", Title: "E", Date: day(5), URL: "https://go.dev", Topic: "Liens", Type: TypeLink},
		{Slug: "f", Title: "F", Date: day(0), Content: "c", Topic: "voyages a velo", Type: TypePost},
	}
	for i := range items {
		if err := s.SaveContent(&items[i]); err != nil {
			t.Fatalf("SaveContent failed: %v", err)
		}
	}

	got, err := s.ListByTopic("voyages-a-velo")
	if err != nil {
		t.Fatalf("ListByTopic failed: %v", err)
	}
	if len(got) != 3 || got[0].Slug != "c" || got[1].Slug != "a" || got[2].Slug != "f" {
		t.Errorf("ListByTopic = %v, want [c a f]", slugs(got))
	}

	topics, err := s.ListTopics()
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	want := []string{"Cuisine", "Voyages à vélo"}
	if len(topics) != len(want) {
		t.Fatalf("ListTopics = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("ListTopics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestUpsertContent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	c := Content{Slug: "imported", Title: "First", Content: "one", Type: TypePost}
	if err := s.UpsertContent(&c); err != nil {
		t.Fatalf("UpsertContent failed: %v", err)
	}
	id := c.ID

	again := Content{Slug: "imported", Title: "Second", Content: "two", Type: TypePost}
	if err := s.UpsertContent(&again); err != nil {
		t.Fatalf("UpsertContent failed: %v", err)
	}
	if again.ID != id {
		t.Errorf("ID = %d, want %d", again.ID, id)
	}

	all, err := s.ListContent(TypePost)
	if err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}
	if len(all) != 1 || all[0].Title != "Second" {
		t.Errorf("ListContent = %v, want one record titled Second", slugs(all))
	}
}

func TestDeleteContent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	c := Content{Slug: "to-delete", Title: "To Delete", Content: "c", Type: TypePost}
	if err := s.SaveContent(&c); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	if err := s.DeleteContent(c.ID); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	if _, err := s.GetContent("to-delete", TypePost); !errors.Is(err, ErrNotFound) {
		t.Errorf("content should not exist after delete, got err: %v", err)
	}
	if err := s.DeleteContent(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should return ErrNotFound, got %v", err)
	}
}

func TestMediaLifecycle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	first := Media{FileName: "1_a.jpg", Path: "go/medias/1_a.jpg", Topic: "go", MimeType: "image/jpeg", Size: 10, Width: 800, Height: 600,
		UploadedAt: day(1)}
	second := Media{FileName: "2_b.m4a", Path: "medias/2_b.m4a", MimeType: "audio/mp4", Size: 20, UploadedAt: day(2)}
	for _, m := range []*Media{&first, &second} {
		if err := s.SaveMedia(m); err != nil {
			t.Fatalf("SaveMedia failed: %v", err)
		}
	}

	got, err := s.GetMedia(first.ID)
	if err != nil {
		t.Fatalf("GetMedia failed: %v", err)
	}
	if got.Path != first.Path || got.Width != 800 || got.Height != 600 {
		t.Errorf("GetMedia = %+v, want %+v", got, first)
	}

	list, err := s.ListMedia()
	if err != nil {
		t.Fatalf("ListMedia failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("ListMedia should return newest first, got %+v", list)
	}

	dup := Media{FileName: "x", Path: first.Path, MimeType: "image/jpeg"}
	if err := s.SaveMedia(&dup); err == nil {
		t.Error("SaveMedia should reject a duplicate path")
	}

	if err := s.DeleteMedia(first.ID); err != nil {
		t.Fatalf("DeleteMedia failed: %v", err)
	}
	if _, err := s.GetMedia(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func slugs(items []Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Slug
	}
	return out
}
