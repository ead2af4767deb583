package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/facturio/invoice-console/internal/application/port"
	"github.com/facturio/invoice-console/internal/domain/entity"
	"github.com/facturio/invoice-console/pkg/utils"
)

// CorrectionForm carries the editable invoice fields submitted from the
// edit screen.
type CorrectionForm struct {
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	SupplierName  string
	TotalAmount   *float64
	TaxAmount     *float64
}

// FieldErrors maps form field names to validation messages. A non-empty
// map means the submission never reached the backend.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid form fields: %s", strings.Join(fields, ", "))
}

// Validate applies the form rules: invoice number and supplier name are
// required, total amount is required and non-negative, tax amount is
// optional but non-negative when present.
func (f CorrectionForm) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.InvoiceNumber) == "" {
		errs["invoice_number"] = "invoice number is required"
	}
	if strings.TrimSpace(f.SupplierName) == "" {
		errs["supplier_name"] = "supplier name is required"
	}
	if f.TotalAmount == nil {
		errs["total_amount"] = "total amount is required"
	} else if *f.TotalAmount < 0 {
		errs["total_amount"] = "total amount must not be negative"
	}
	if f.TaxAmount != nil && *f.TaxAmount < 0 {
		errs["tax_amount"] = "tax amount must not be negative"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ReviewService covers both review entry points: correcting an existing
// invoice, and reviewing a just-uploaded extraction held in the stash.
type ReviewService interface {
	// GetInvoice loads an invoice for the detail and edit screens
	GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error)

	// SubmitCorrection validates the form and sends the corrected
	// fields with confidence forced to 1.0. A FieldErrors return means
	// no request was made.
	SubmitCorrection(ctx context.Context, id int64, form CorrectionForm) error

	// Draft returns the stashed extraction for a session, or
	// port.ErrNoStash when there is nothing to review
	Draft(ctx context.Context, sessionID string) (*port.StashedExtraction, error)

	// SaveDraft persists the stashed extraction as a new invoice and
	// clears the stash on success. On failure the stash is untouched so
	// the user can retry.
	SaveDraft(ctx context.Context, sessionID string) (*entity.SaveInvoiceResponse, error)

	// DiscardDraft abandons the pending review
	DiscardDraft(ctx context.Context, sessionID string) error
}

type reviewServiceImpl struct {
	backend port.BackendClient
	stash   port.ExtractionStash
	logger  Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(backend port.BackendClient, stash port.ExtractionStash, logger Logger) ReviewService {
	return &reviewServiceImpl{
		backend: backend,
		stash:   stash,
		logger:  logger,
	}
}

// GetInvoice loads an invoice by identifier.
func (s *reviewServiceImpl) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	return s.backend.GetInvoice(ctx, id)
}

// SubmitCorrection validates and submits manually corrected fields.
func (s *reviewServiceImpl) SubmitCorrection(ctx context.Context, id int64, form CorrectionForm) error {
	if errs := form.Validate(); errs != nil {
		return errs
	}

	corrected := entity.ExtractedData{
		InvoiceNumber: form.InvoiceNumber,
		InvoiceDate:   form.InvoiceDate,
		DueDate:       form.DueDate,
		SupplierName:  form.SupplierName,
		TotalAmount:   form.TotalAmount,
		TaxAmount:     form.TaxAmount,
		// Manual correction implies full trust
		ConfidenceScore: 1.0,
	}

	if _, err := s.backend.ValidateInvoice(ctx, id, corrected); err != nil {
		s.logger.Error("Validation submit failed",
			"invoice_id", id,
			"error", err)
		return err
	}

	s.logger.Info("Invoice corrected and validated", "invoice_id", id)
	return nil
}

// Draft returns the stashed extraction for a session.
func (s *reviewServiceImpl) Draft(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
	return s.stash.Get(ctx, sessionID)
}

// SaveDraft composes and persists the save payload from the stash.
func (s *reviewServiceImpl) SaveDraft(ctx context.Context, sessionID string) (*entity.SaveInvoiceResponse, error) {
	stashed, err := s.stash.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req := entity.SaveInvoiceRequest{
		Supplier: stashed.Extraction.Supplier,
		Invoice: entity.InvoiceFields{
			InvoiceNumber: stashed.Extraction.InvoiceNumber,
			Date:          stashed.Extraction.InvoiceDate,
			DueDate:       stashed.Extraction.DueDate,
			TotalAmount:   stashed.Extraction.TotalAmount,
			TaxAmount:     stashed.Extraction.TaxAmount,
		},
		Items:              stashed.Extraction.Items,
		OriginalExtraction: stashed.Extraction,
		FilePath:           stashed.FilePath,
	}
	if req.Supplier == nil && stashed.Extraction.SupplierName != "" {
		req.Supplier = &entity.Supplier{Name: stashed.Extraction.SupplierName}
	}
	if req.Supplier != nil && req.Supplier.Siret != "" {
		supplier := *req.Supplier
		supplier.Siret = utils.NormalizeSiret(supplier.Siret)
		if err := utils.ValidateSiret(supplier.Siret); err != nil {
			// A malformed extracted SIRET is dropped rather than saved
			s.logger.Warn("Dropping malformed siret",
				"session_id", sessionID,
				"siret", req.Supplier.Siret)
			supplier.Siret = ""
		}
		req.Supplier = &supplier
	}
	if req.FilePath == "" {
		req.FilePath = stashed.Filename
	}

	resp, err := s.backend.SaveInvoice(ctx, req)
	if err != nil {
		// Keep the stash so the user can retry the save
		s.logger.Error("Save failed, keeping draft",
			"session_id", sessionID,
			"error", err)
		return nil, err
	}

	if err := s.stash.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear stash after save",
			"session_id", sessionID,
			"error", err)
	}

	s.logger.Info("Draft saved as invoice",
		"session_id", sessionID,
		"invoice_id", resp.InvoiceID)
	return resp, nil
}

// DiscardDraft abandons the pending review.
func (s *reviewServiceImpl) DiscardDraft(ctx context.Context, sessionID string) error {
	return s.stash.Clear(ctx, sessionID)
}
