// Package backend implements the HTTP client for the invoice extraction
// API. It is a thin request/response wrapper: every method issues exactly
// one request and surfaces failures through the error taxonomy in
// errors.go, leaving retry decisions to the user.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/facturio/invoice-console/internal/domain/entity"
)

// Config holds backend client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements port.BackendClient over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// errorBody is the error envelope the backend uses on failure responses.
// Older deployments use "error", newer ones "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient creates a new backend API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// ListInvoices fetches the full invoice collection in one request.
func (c *Client) ListInvoices(ctx context.Context) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	if err := c.getJSON(ctx, "list invoices", "/api/invoices/", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoice fetches a single invoice by identifier.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	var invoice entity.Invoice
	path := fmt.Sprintf("/api/invoices/%d/", id)
	if err := c.getJSON(ctx, "get invoice", path, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// UploadInvoice submits a document as a multipart "file" part and returns
// the extraction response.
func (c *Client) UploadInvoice(ctx context.Context, filename string, content []byte) (*entity.UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/invoices/upload/", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("Uploading invoice document",
		zap.String("filename", filename),
		zap.Int("size", len(content)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "upload invoice", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, &ValidationError{Message: readErrorMessage(resp.Body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Op: "upload invoice", StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var uploadResp entity.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &uploadResp, nil
}

// ValidateInvoice sends corrected fields for an existing invoice. The
// caller is expected to have forced the confidence score to 1.0; the
// client sends the payload as given.
func (c *Client) ValidateInvoice(ctx context.Context, id int64, corrected entity.ExtractedData) (*entity.Ack, error) {
	payload := map[string]entity.ExtractedData{"corrected_data": corrected}
	path := fmt.Sprintf("/api/invoices/%d/validate/", id)

	var ack entity.Ack
	if err := c.postJSON(ctx, "validate invoice", path, payload, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// SaveInvoice persists a reviewed extraction as a new invoice.
func (c *Client) SaveInvoice(ctx context.Context, req entity.SaveInvoiceRequest) (*entity.SaveInvoiceResponse, error) {
	var saveResp entity.SaveInvoiceResponse
	if err := c.postJSON(ctx, "save invoice", "/api/save-invoice/", req, &saveResp); err != nil {
		return nil, err
	}
	return &saveResp, nil
}

// TrainModel triggers a backend training run.
func (c *Client) TrainModel(ctx context.Context) (*entity.Ack, error) {
	var ack entity.Ack
	if err := c.postJSON(ctx, "train model", "/api/train-model/", struct{}{}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GetModelStats fetches a read-only snapshot of the extraction model.
func (c *Client) GetModelStats(ctx context.Context) (*entity.ModelStats, error) {
	var stats entity.ModelStats
	if err := c.getJSON(ctx, "get model stats", "/api/model-stats/", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// getJSON issues a GET request and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(op, req, out)
}

// postJSON issues a POST request with a JSON body and decodes a 2xx JSON
// response into out.
func (c *Client) postJSON(ctx context.Context, op, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("op", op),
			zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Op: op, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readErrorMessage pulls the server-provided message out of an error
// response body, if there is one.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var envelope errorBody
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}
