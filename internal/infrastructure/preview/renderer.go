// Package preview renders the first page of an uploaded document as a
// PNG for the review screen, using mupdf for PDFs and the standard image
// decoders otherwise.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Renderer implements port.PreviewRenderer.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a preview renderer.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderFirstPage renders the first page of the document as PNG bytes.
func (r *Renderer) RenderFirstPage(ctx context.Context, filename string, content []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var img image.Image
	var err error

	switch ext {
	case ".pdf":
		img, err = r.firstPDFPage(content)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(content))
	case ".png":
		img, err = png.Decode(bytes.NewReader(content))
	default:
		return nil, fmt.Errorf("unsupported file type for preview: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	r.logger.Debug("Rendered document preview",
		zap.String("filename", filename),
		zap.Int("preview_size", buf.Len()))

	return buf.Bytes(), nil
}

// firstPDFPage rasterizes page 0 of a PDF held in memory.
func (r *Renderer) firstPDFPage(content []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize first page: %w", err)
	}
	return img, nil
}
