package vendsite

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/views"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an image from src, shrinks it to maxImageWidth when
// wider, and encodes it as JPEG.
func processImage(src io.Reader, originalName string) (Media, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Media{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := max(h*maxImageWidth/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Media{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	base := content.Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return Media{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC(),
	}, buf.Bytes(), nil
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.Config.StaticDir, uploadsSubdir)
}

// uniqueFilename appends a counter until the name is free on disk and in
// the store.
func (a *App) uniqueFilename(c echo.Context, name string) (string, error) {
	base := strings.TrimSuffix(name, ".jpg")
	candidate := name
	for i := 2; ; i++ {
		_, statErr := os.Stat(filepath.Join(a.uploadsDir(), candidate))
		exists, err := a.Store.MediaExists(c.Request().Context(), candidate)
		if err != nil {
			return "", err
		}
		if statErr != nil && !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, i)
	}
}

func (a *App) handleMediaUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	m, data, err := processImage(io.LimitReader(src, maxUploadSize), file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	if m.Filename, err = a.uniqueFilename(c, m.Filename); err != nil {
		return err
	}

	if err := os.MkdirAll(a.uploadsDir(), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.uploadsDir(), m.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Store.SaveMedia(c.Request().Context(), m); err != nil {
		return err
	}
	a.Logger.Info("media uploaded", logging.String("filename", m.Filename), logging.Int("size", m.Size))
	return a.renderMediaList(c)
}

func (a *App) handleMediaDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return c.String(http.StatusBadRequest, "Filename required")
	}
	if err := os.Remove(filepath.Join(a.uploadsDir(), filename)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := a.Store.DeleteMedia(c.Request().Context(), filename); err != nil {
		return err
	}
	return a.renderMediaList(c)
}

func (a *App) handleMediaList(c echo.Context) error {
	return a.renderMediaList(c)
}

func (a *App) renderMediaList(c echo.Context) error {
	media, err := a.Store.ListMedia(c.Request().Context())
	if err != nil {
		return err
	}
	files := make([]views.MediaFile, 0, len(media))
	for _, m := range media {
		files = append(files, views.MediaFile{
			Filename:   m.Filename,
			URL:        "/public/" + uploadsSubdir + "/" + m.Filename,
			Width:      m.Width,
			Height:     m.Height,
			Size:       m.Size,
			UploadedAt: m.UploadedAt,
		})
	}
	return Render(c, a.Views.AdminMedia(files, CsrfToken(c)))
}
