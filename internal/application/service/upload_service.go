package service

import (
	"context"
	"fmt"

	"github.com/facturio/invoice-console/internal/application/port"
	"github.com/facturio/invoice-console/internal/domain/upload"
	"github.com/facturio/invoice-console/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// UnsupportedFileError is a client-side rejection of the selected file.
// No request reaches the backend when this is returned.
type UnsupportedFileError struct {
	ContentType string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type %q: upload a PDF or an image (JPEG, PNG)", e.ContentType)
}

// UploadResult is what a completed upload hands to the review screen.
type UploadResult struct {
	Stashed port.StashedExtraction
	State   upload.State
}

// UploadService drives the upload flow: client-side file validation,
// the single backend request, and stashing the extraction for review.
type UploadService interface {
	// Upload runs one upload interaction for a session. The returned
	// state reflects where the flow ended: Succeeded, Failed (request
	// error) or FileSelected (client-side rejection).
	Upload(ctx context.Context, sessionID, filename, contentType string, content []byte) (*UploadResult, error)
}

type uploadServiceImpl struct {
	backend      port.BackendClient
	stash        port.ExtractionStash
	preview      port.PreviewRenderer
	allowedTypes map[string]bool
	logger       Logger
}

// NewUploadService creates a new UploadService. allowedTypes is the MIME
// allow-list checked before any network call.
func NewUploadService(
	backend port.BackendClient,
	stash port.ExtractionStash,
	preview port.PreviewRenderer,
	allowedTypes []string,
	logger Logger,
) UploadService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &uploadServiceImpl{
		backend:      backend,
		stash:        stash,
		preview:      preview,
		allowedTypes: allowed,
		logger:       logger,
	}
}

// Upload runs one upload interaction for a session.
func (s *uploadServiceImpl) Upload(ctx context.Context, sessionID, filename, contentType string, content []byte) (*UploadResult, error) {
	filename = utils.SanitizeFilename(filename)

	flow := upload.NewFlow()
	if err := flow.Fire(upload.TriggerSelect); err != nil {
		return nil, err
	}

	if !s.allowedTypes[contentType] {
		// Rejection keeps the flow at the selected file; nothing is sent
		if err := flow.Fire(upload.TriggerFail); err != nil {
			return nil, err
		}
		s.logger.Info("Rejected upload before sending",
			"session_id", sessionID,
			"filename", filename,
			"content_type", contentType)
		return &UploadResult{State: flow.State()}, &UnsupportedFileError{ContentType: contentType}
	}

	if err := flow.Fire(upload.TriggerSubmit); err != nil {
		return nil, err
	}

	resp, err := s.backend.UploadInvoice(ctx, filename, content)
	if err != nil {
		if ferr := flow.Fire(upload.TriggerFail); ferr != nil {
			return nil, ferr
		}
		s.logger.Error("Upload request failed",
			"session_id", sessionID,
			"filename", filename,
			"error", err)
		return &UploadResult{State: flow.State()}, err
	}

	if err := flow.Fire(upload.TriggerComplete); err != nil {
		return nil, err
	}

	stashed := port.StashedExtraction{
		Extraction:   resp.ExtractedData,
		OriginalText: resp.ExtractedText,
		Filename:     filename,
		FilePath:     resp.Invoice.File,
	}

	// Preview failures never fail the upload; the review screen simply
	// renders without an image
	if s.preview != nil {
		if png, perr := s.preview.RenderFirstPage(ctx, filename, content); perr != nil {
			s.logger.Warn("Preview rendering failed",
				"filename", filename,
				"error", perr)
		} else {
			stashed.PreviewPNG = png
		}
	}

	if err := s.stash.Put(ctx, sessionID, stashed); err != nil {
		return nil, fmt.Errorf("failed to stash extraction: %w", err)
	}

	s.logger.Info("Upload succeeded",
		"session_id", sessionID,
		"filename", filename,
		"confidence", resp.ExtractedData.ConfidenceScore)

	return &UploadResult{Stashed: stashed, State: flow.State()}, nil
}
