package entity

// Invoice is a stored invoice as reported by the extraction backend.
// The backend is the single source of truth; the console never mutates
// an Invoice locally, it only mirrors the last fetched snapshot.
type Invoice struct {
	ID               int64         `json:"id"`
	File             string        `json:"file"`
	OriginalFilename string        `json:"original_filename"`
	Status           InvoiceStatus `json:"status"`
	Supplier         *int64        `json:"supplier,omitempty"`
	SupplierName     string        `json:"supplier_name,omitempty"`
	InvoiceNumber    string        `json:"invoice_number,omitempty"`
	InvoiceDate      string        `json:"invoice_date,omitempty"`
	DueDate          string        `json:"due_date,omitempty"`
	TotalAmount      *float64      `json:"total_amount,omitempty"`
	TaxAmount        *float64      `json:"tax_amount,omitempty"`
	ConfidenceScore  float64       `json:"confidence_score"`
	CreatedAt        string        `json:"created_at,omitempty"`
	UpdatedAt        string        `json:"updated_at,omitempty"`
	Items            []InvoiceItem `json:"items,omitempty"`
}

// Supplier is referenced by invoices but owned by the backend.
type Supplier struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Siret     string `json:"siret,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// InvoiceItem is a single line of an invoice. Amounts are trusted as
// reported; the console does not recompute total_price.
type InvoiceItem struct {
	ID          int64   `json:"id,omitempty"`
	Invoice     int64   `json:"invoice,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	TaxRate     float64 `json:"tax_rate"`
}

// ExtractedData is the transient field set produced by an upload. It only
// lives in the session stash between the upload and review screens.
type ExtractedData struct {
	InvoiceNumber   string        `json:"invoice_number,omitempty"`
	InvoiceDate     string        `json:"invoice_date,omitempty"`
	DueDate         string        `json:"due_date,omitempty"`
	TotalAmount     *float64      `json:"total_amount,omitempty"`
	TaxAmount       *float64      `json:"tax_amount,omitempty"`
	SupplierName    string        `json:"supplier_name,omitempty"`
	Supplier        *Supplier     `json:"supplier,omitempty"`
	Items           []InvoiceItem `json:"items,omitempty"`
	ConfidenceScore float64       `json:"confidence_score"`
}

// UploadResponse is the backend's answer to a document upload.
type UploadResponse struct {
	Invoice       Invoice       `json:"invoice"`
	ExtractedText string        `json:"extracted_text"`
	ExtractedData ExtractedData `json:"extracted_data"`
}

// SaveInvoiceRequest persists a reviewed extraction as a new invoice.
// The original extraction is echoed back so the backend can pair it with
// the corrected fields as a training sample.
type SaveInvoiceRequest struct {
	Supplier           *Supplier     `json:"supplier"`
	Invoice            InvoiceFields `json:"invoice"`
	Items              []InvoiceItem `json:"items"`
	OriginalExtraction ExtractedData `json:"original_extraction"`
	FilePath           string        `json:"file_path"`
}

// InvoiceFields is the invoice block of a SaveInvoiceRequest.
type InvoiceFields struct {
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	Date          string   `json:"date,omitempty"`
	DueDate       string   `json:"due_date,omitempty"`
	TotalAmount   *float64 `json:"total_amount,omitempty"`
	TaxAmount     *float64 `json:"tax_amount,omitempty"`
}

// SaveInvoiceResponse acknowledges a save.
type SaveInvoiceResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	InvoiceID int64  `json:"invoice_id"`
}

// Ack is the generic status/message acknowledgement returned by the
// validate and train-model endpoints.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ModelStats is a read-only snapshot of the backend extraction model.
type ModelStats struct {
	ModelName       string  `json:"model_name"`
	Version         string  `json:"version"`
	Accuracy        float64 `json:"accuracy"`
	TrainingSamples int     `json:"training_samples"`
	PendingSamples  int     `json:"pending_samples"`
	LastTrainedAt   string  `json:"last_trained_at,omitempty"`
}
