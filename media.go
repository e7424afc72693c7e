package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/folio/markdown"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	mediaURLPath  = "/media/"
)

var (
	errNoFile           = errors.New("no file provided")
	errTooLarge         = errors.New("file too large (max 10MB)")
	errUnsupportedMedia = errors.New("only images and audio are accepted")
)

// reencoded lists the formats that are resized and stored as JPEG. GIFs keep
// their animation and SVGs are not raster, so both are stored as uploaded.
var reencoded = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// processImage decodes an image from src, resizes it to maxImageWidth when
// wider, and encodes it as JPEG.
func processImage(src io.Reader) (data []byte, width, height int, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// mediaFileName returns {unix millis}_{random}.{ext}, unique enough that
// uploads never overwrite each other.
func mediaFileName(ext string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + random + ext
}

// detectMediaType trusts the sniffed type over the client header, except for
// formats the sniffer does not know.
func detectMediaType(head []byte, header, name string) string {
	sniffed := http.DetectContentType(head)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	switch {
	case strings.HasPrefix(sniffed, "image/"), strings.HasPrefix(sniffed, "audio/"):
		return sniffed
	case strings.EqualFold(filepath.Ext(name), ".m4a"), strings.EqualFold(filepath.Ext(name), ".svg"):
		if t := strings.TrimSpace(header); strings.HasPrefix(t, "image/") || strings.HasPrefix(t, "audio/") {
			return t
		}
		if strings.EqualFold(filepath.Ext(name), ".m4a") {
			return "audio/mp4"
		}
		return "image/svg+xml"
	case sniffed == "video/mp4" && strings.HasPrefix(header, "audio/"):
		return header
	}
	return sniffed
}

// saveUpload validates, processes and stores an uploaded file under
// {normalized topic}/medias/ in MediaDir.
func (a *App) saveUpload(file *multipart.FileHeader, topic string) (Media, error) {
	if file == nil {
		return Media{}, errNoFile
	}
	if file.Size > maxUploadSize {
		return Media{}, errTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return Media{}, err
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return Media{}, err
	}
	if len(raw) > maxUploadSize {
		return Media{}, errTooLarge
	}

	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	mimeType := detectMediaType(head, file.Header.Get("Content-Type"), file.Filename)
	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "audio/") {
		return Media{}, errUnsupportedMedia
	}

	m := Media{
		Topic:    NormalizeTopic(topic),
		MimeType: mimeType,
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	data := raw
	if reencoded[mimeType] {
		data, m.Width, m.Height, err = processImage(bytes.NewReader(raw))
		if err != nil {
			return Media{}, fmt.Errorf("%w: %v", errUnsupportedMedia, err)
		}
		m.MimeType = "image/jpeg"
		ext = ".jpg"
	}
	if ext == "" {
		ext = ".bin"
	}

	m.FileName = mediaFileName(ext, time.Now())
	m.Path = markdown.MediaPath(m.Topic, m.FileName)
	m.Size = int64(len(data))

	dest := filepath.Join(a.Config.MediaDir, filepath.FromSlash(m.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Media{}, fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return Media{}, fmt.Errorf("write media: %w", err)
	}
	if err := a.Store.SaveMedia(&m); err != nil {
		_ = os.Remove(dest)
		return Media{}, err
	}
	return m, nil
}

// MediaURL returns the public URL of an uploaded file.
func MediaURL(m Media) string {
	return path.Join(mediaURLPath, m.Path)
}

func isClientUploadError(err error) bool {
	return errors.Is(err, errNoFile) || errors.Is(err, errTooLarge) || errors.Is(err, errUnsupportedMedia)
}

func (a *App) handleMediaUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	file, _ := c.FormFile("file")
	if _, err := a.saveUpload(file, c.FormValue("topic")); err != nil {
		if isClientUploadError(err) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return a.renderMediaList(c)
}

func (a *App) handleMediaDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id, ok := idParam(c)
	if !ok {
		return c.String(http.StatusBadRequest, "Media id required")
	}
	m, err := a.Store.GetMedia(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderMediaList(c)
		}
		return err
	}
	if err := os.Remove(filepath.Join(a.Config.MediaDir, filepath.FromSlash(m.Path))); err != nil && !os.IsNotExist(err) {
		c.Logger().Warnf("media: remove %s: %v", m.Path, err)
	}
	if err := a.Store.DeleteMedia(id); err != nil {
		return err
	}
	return a.renderMediaList(c)
}

func (a *App) handleMediaList(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderMediaList(c)
}

func (a *App) renderMediaList(c echo.Context) error {
	media, err := a.Store.ListMedia()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminMedia(media, CsrfToken(c)))
}
