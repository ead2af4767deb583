package port

import "context"

// PreviewRenderer renders the first page of an uploaded document as a PNG
// shown on the review screen. Rendering is presentation only; no fields
// are read out of the document locally.
type PreviewRenderer interface {
	RenderFirstPage(ctx context.Context, filename string, content []byte) ([]byte, error)
}
