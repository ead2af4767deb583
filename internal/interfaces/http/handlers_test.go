package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/invoice-console/internal/application/port"
	"github.com/facturio/invoice-console/internal/application/service"
	"github.com/facturio/invoice-console/internal/domain/entity"
	"github.com/facturio/invoice-console/internal/domain/upload"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockUploadService struct {
	uploadFunc func(ctx context.Context, sessionID, filename, contentType string, content []byte) (*service.UploadResult, error)
}

func (m *mockUploadService) Upload(ctx context.Context, sessionID, filename, contentType string, content []byte) (*service.UploadResult, error) {
	return m.uploadFunc(ctx, sessionID, filename, contentType, content)
}

type mockReviewService struct {
	getInvoiceFunc       func(ctx context.Context, id int64) (*entity.Invoice, error)
	submitCorrectionFunc func(ctx context.Context, id int64, form service.CorrectionForm) error
	draftFunc            func(ctx context.Context, sessionID string) (*port.StashedExtraction, error)
	saveDraftFunc        func(ctx context.Context, sessionID string) (*entity.SaveInvoiceResponse, error)
	discardDraftFunc     func(ctx context.Context, sessionID string) error
}

func (m *mockReviewService) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	return m.getInvoiceFunc(ctx, id)
}

func (m *mockReviewService) SubmitCorrection(ctx context.Context, id int64, form service.CorrectionForm) error {
	return m.submitCorrectionFunc(ctx, id, form)
}

func (m *mockReviewService) Draft(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
	return m.draftFunc(ctx, sessionID)
}

func (m *mockReviewService) SaveDraft(ctx context.Context, sessionID string) (*entity.SaveInvoiceResponse, error) {
	return m.saveDraftFunc(ctx, sessionID)
}

func (m *mockReviewService) DiscardDraft(ctx context.Context, sessionID string) error {
	return m.discardDraftFunc(ctx, sessionID)
}

type mockDashboardService struct {
	overviewFunc   func(ctx context.Context) (*service.Overview, error)
	listFunc       func(ctx context.Context, query service.ListQuery) (*service.InvoicePage, error)
	trainModelFunc func(ctx context.Context) (*entity.Ack, error)
}

func (m *mockDashboardService) Overview(ctx context.Context) (*service.Overview, error) {
	return m.overviewFunc(ctx)
}

func (m *mockDashboardService) List(ctx context.Context, query service.ListQuery) (*service.InvoicePage, error) {
	return m.listFunc(ctx, query)
}

func (m *mockDashboardService) TrainModel(ctx context.Context) (*entity.Ack, error) {
	return m.trainModelFunc(ctx)
}

type mockExportService struct {
	buildRegisterFunc func(ctx context.Context) ([]byte, error)
}

func (m *mockExportService) BuildRegister(ctx context.Context) ([]byte, error) {
	return m.buildRegisterFunc(ctx)
}

func float64Ptr(v float64) *float64 { return &v }

func newTestServer(uploads *mockUploadService, reviews *mockReviewService, dashboards *mockDashboardService, exports *mockExportService) *Server {
	if uploads == nil {
		uploads = &mockUploadService{}
	}
	if reviews == nil {
		reviews = &mockReviewService{}
	}
	if dashboards == nil {
		dashboards = &mockDashboardService{
			overviewFunc: func(ctx context.Context) (*service.Overview, error) {
				return &service.Overview{}, nil
			},
			listFunc: func(ctx context.Context, query service.ListQuery) (*service.InvoicePage, error) {
				return &service.InvoicePage{Page: 1, PageCount: 1}, nil
			},
		}
	}
	if exports == nil {
		exports = &mockExportService{}
	}
	return NewServer(DefaultServerConfig(), uploads, reviews, dashboards, exports, nopLogger{})
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestIndexRedirectsToDashboard(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestDashboardRendersStats(t *testing.T) {
	dashboards := &mockDashboardService{
		overviewFunc: func(ctx context.Context) (*service.Overview, error) {
			return &service.Overview{
				Stats: service.Stats{Total: 3, Validated: 1, Open: 2, AverageConfidence: 0.8},
				Recent: []entity.Invoice{
					{ID: 7, InvoiceNumber: "INV-7", SupplierName: "Acme", Status: entity.StatusValidated, ConfidenceScore: 0.92},
				},
				ModelStats: &entity.ModelStats{ModelName: "extractor", Version: "3", Accuracy: 0.91},
			}, nil
		},
	}
	server := newTestServer(nil, nil, dashboards, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "INV-7")
	assert.Contains(t, body, "Acme")
	assert.Contains(t, body, "extractor")
	assert.Contains(t, body, "92%")
}

func TestListInvoicesPassesQuery(t *testing.T) {
	var captured service.ListQuery
	dashboards := &mockDashboardService{
		listFunc: func(ctx context.Context, query service.ListQuery) (*service.InvoicePage, error) {
			captured = query
			return &service.InvoicePage{
				Invoices: []entity.Invoice{{ID: 1, InvoiceNumber: "INV-1", TotalAmount: float64Ptr(120.5)}},
				Total:    1, Page: 2, PageCount: 3,
			}, nil
		},
	}
	server := newTestServer(nil, nil, dashboards, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices?q=acme&sort=amount&order=desc&page=2", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", captured.Filter)
	assert.Equal(t, "amount", captured.SortBy)
	assert.True(t, captured.Desc)
	assert.Equal(t, 2, captured.Page)
	assert.Contains(t, w.Body.String(), "INV-1")
}

func multipartUpload(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestUploadRedirectsToReview(t *testing.T) {
	var gotFilename, gotContentType string
	uploads := &mockUploadService{
		uploadFunc: func(ctx context.Context, sessionID, filename, contentType string, content []byte) (*service.UploadResult, error) {
			gotFilename = filename
			gotContentType = contentType
			assert.NotEmpty(t, sessionID)
			return &service.UploadResult{State: upload.StateSucceeded}, nil
		},
	}
	server := newTestServer(uploads, nil, nil, nil)

	body, contentType := multipartUpload(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/upload", body)
	req.Header.Set("Content-Type", contentType)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/invoices/review", w.Header().Get("Location"))
	assert.Equal(t, "invoice.pdf", gotFilename)
	assert.Equal(t, "application/pdf", gotContentType)
}

func TestUploadRejectedFileRendersError(t *testing.T) {
	uploads := &mockUploadService{
		uploadFunc: func(ctx context.Context, sessionID, filename, contentType string, content []byte) (*service.UploadResult, error) {
			return nil, &service.UnsupportedFileError{ContentType: contentType}
		},
	}
	server := newTestServer(uploads, nil, nil, nil)

	body, contentType := multipartUpload(t, "notes.txt", "text/plain", []byte("hello"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/upload", body)
	req.Header.Set("Content-Type", contentType)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestUploadWithoutFileRendersError(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "select a file")
}

func TestReviewDraftWithoutStashRedirectsToUpload(t *testing.T) {
	reviews := &mockReviewService{
		draftFunc: func(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
			return nil, port.ErrNoStash
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/review", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/invoices/upload", w.Header().Get("Location"))
}

func TestReviewDraftRendersExtraction(t *testing.T) {
	reviews := &mockReviewService{
		draftFunc: func(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
			return &port.StashedExtraction{
				Filename: "march.pdf",
				Extraction: entity.ExtractedData{
					InvoiceNumber:   "INV-42",
					SupplierName:    "Acme",
					TotalAmount:     float64Ptr(250),
					ConfidenceScore: 0.65,
				},
				PreviewPNG: []byte{0x89, 0x50},
			}, nil
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/review", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "march.pdf")
	assert.Contains(t, body, "INV-42")
	assert.Contains(t, body, "confidence-caution")
	assert.Contains(t, body, "/invoices/review/preview")
}

func TestSaveDraftRedirectsToDashboard(t *testing.T) {
	reviews := &mockReviewService{
		saveDraftFunc: func(ctx context.Context, sessionID string) (*entity.SaveInvoiceResponse, error) {
			return &entity.SaveInvoiceResponse{Status: "success", Message: "invoice created"}, nil
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/review", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/dashboard"))
	assert.Contains(t, location, url.QueryEscape("invoice created"))
}

func TestDraftPreviewServesPNG(t *testing.T) {
	reviews := &mockReviewService{
		draftFunc: func(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
			return &port.StashedExtraction{PreviewPNG: []byte{0x89, 0x50, 0x4e, 0x47}}, nil
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/review/preview", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestDraftPreviewMissingReturns404(t *testing.T) {
	reviews := &mockReviewService{
		draftFunc: func(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
			return nil, port.ErrNoStash
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/review/preview", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitCorrectionRedirectsToDetail(t *testing.T) {
	var captured service.CorrectionForm
	reviews := &mockReviewService{
		submitCorrectionFunc: func(ctx context.Context, id int64, form service.CorrectionForm) error {
			assert.Equal(t, int64(9), id)
			captured = form
			return nil
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	form := url.Values{}
	form.Set("invoice_number", "INV-9")
	form.Set("supplier_name", "Acme")
	form.Set("total_amount", "130,50")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/9/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/invoices/9"))
	assert.Equal(t, "INV-9", captured.InvoiceNumber)
	require.NotNil(t, captured.TotalAmount)
	assert.Equal(t, 130.50, *captured.TotalAmount)
}

func TestSubmitCorrectionFieldErrorsRerender(t *testing.T) {
	reviews := &mockReviewService{
		submitCorrectionFunc: func(ctx context.Context, id int64, form service.CorrectionForm) error {
			return service.FieldErrors{"invoice_number": "invoice number is required"}
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	form := url.Values{}
	form.Set("supplier_name", "Acme")
	form.Set("total_amount", "100")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/9/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "invoice number is required")
	assert.Contains(t, body, "Acme")
}

func TestSubmitCorrectionBadAmountNoServiceCall(t *testing.T) {
	called := false
	reviews := &mockReviewService{
		submitCorrectionFunc: func(ctx context.Context, id int64, form service.CorrectionForm) error {
			called = true
			return nil
		},
	}
	server := newTestServer(nil, reviews, nil, nil)

	form := url.Values{}
	form.Set("invoice_number", "INV-9")
	form.Set("total_amount", "not-a-number")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/9/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "must be a number")
	assert.False(t, called)
}

func TestInvoiceDetailInvalidIDRedirects(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/abc", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/invoices?error="))
}

func TestExportRegisterServesAttachment(t *testing.T) {
	exports := &mockExportService{
		buildRegisterFunc: func(ctx context.Context) ([]byte, error) {
			return []byte("PK"), nil
		},
	}
	server := newTestServer(nil, nil, nil, exports)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/export", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
}

func TestTrainModelRedirectsWithNotice(t *testing.T) {
	dashboards := &mockDashboardService{
		trainModelFunc: func(ctx context.Context) (*entity.Ack, error) {
			return &entity.Ack{Status: "success", Message: "training started"}, nil
		},
	}
	server := newTestServer(nil, nil, dashboards, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/train-model", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), url.QueryEscape("training started"))
}

func TestUploadSetsSessionCookie(t *testing.T) {
	uploads := &mockUploadService{
		uploadFunc: func(ctx context.Context, sessionID, filename, contentType string, content []byte) (*service.UploadResult, error) {
			return &service.UploadResult{State: upload.StateSucceeded}, nil
		},
	}
	server := newTestServer(uploads, nil, nil, nil)

	body, contentType := multipartUpload(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/upload", body)
	req.Header.Set("Content-Type", contentType)
	server.Router().ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			found = true
		}
	}
	assert.True(t, found)
}
