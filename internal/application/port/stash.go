package port

import (
	"context"
	"errors"

	"github.com/facturio/invoice-console/internal/domain/entity"
)

// ErrNoStash is returned by Get when a session has no pending extraction.
var ErrNoStash = errors.New("no stashed extraction for session")

// StashedExtraction is what the upload screen hands to the review screen:
// the extraction payload, the name of the uploaded file, and an optional
// rendered first-page preview.
type StashedExtraction struct {
	Extraction   entity.ExtractedData `json:"extraction"`
	OriginalText string               `json:"original_text,omitempty"`
	Filename     string               `json:"filename"`
	FilePath     string               `json:"file_path,omitempty"`
	PreviewPNG   []byte               `json:"preview_png,omitempty"`
}

// ExtractionStash holds at most one pending extraction per session. It is
// written once by the upload flow, read by the review flow and cleared
// after a successful save.
type ExtractionStash interface {
	// Put stores the pending extraction for a session, replacing any
	// previous one
	Put(ctx context.Context, sessionID string, stashed StashedExtraction) error

	// Get retrieves the pending extraction, or ErrNoStash when the
	// session has nothing to review
	Get(ctx context.Context, sessionID string) (*StashedExtraction, error)

	// Clear removes the pending extraction for a session
	Clear(ctx context.Context, sessionID string) error
}
