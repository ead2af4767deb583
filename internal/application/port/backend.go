package port

import (
	"context"

	"github.com/facturio/invoice-console/internal/domain/entity"
)

// BackendClient defines the invoice extraction API operations. One method
// per backend endpoint; no retries, no caching, one request per call.
type BackendClient interface {
	// ListInvoices fetches the full invoice collection
	ListInvoices(ctx context.Context) ([]entity.Invoice, error)

	// GetInvoice fetches a single invoice by identifier
	GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error)

	// UploadInvoice submits a document for extraction
	UploadInvoice(ctx context.Context, filename string, content []byte) (*entity.UploadResponse, error)

	// ValidateInvoice sends manually corrected fields for an existing invoice
	ValidateInvoice(ctx context.Context, id int64, corrected entity.ExtractedData) (*entity.Ack, error)

	// SaveInvoice persists a reviewed extraction as a new invoice
	SaveInvoice(ctx context.Context, req entity.SaveInvoiceRequest) (*entity.SaveInvoiceResponse, error)

	// TrainModel triggers a training run; fire-and-forget for callers
	TrainModel(ctx context.Context) (*entity.Ack, error)

	// GetModelStats fetches a read-only model snapshot
	GetModelStats(ctx context.Context) (*entity.ModelStats, error)
}
