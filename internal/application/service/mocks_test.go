package service

import (
	"context"

	"github.com/facturio/invoice-console/internal/application/port"
	"github.com/facturio/invoice-console/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockBackend struct {
	listFunc     func(ctx context.Context) ([]entity.Invoice, error)
	getFunc      func(ctx context.Context, id int64) (*entity.Invoice, error)
	uploadFunc   func(ctx context.Context, filename string, content []byte) (*entity.UploadResponse, error)
	validateFunc func(ctx context.Context, id int64, corrected entity.ExtractedData) (*entity.Ack, error)
	saveFunc     func(ctx context.Context, req entity.SaveInvoiceRequest) (*entity.SaveInvoiceResponse, error)
	trainFunc    func(ctx context.Context) (*entity.Ack, error)
	statsFunc    func(ctx context.Context) (*entity.ModelStats, error)

	uploadCalls   int
	validateCalls int
	saveCalls     int
}

func (m *mockBackend) ListInvoices(ctx context.Context) ([]entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockBackend) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &entity.Invoice{ID: id}, nil
}

func (m *mockBackend) UploadInvoice(ctx context.Context, filename string, content []byte) (*entity.UploadResponse, error) {
	m.uploadCalls++
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, filename, content)
	}
	return &entity.UploadResponse{}, nil
}

func (m *mockBackend) ValidateInvoice(ctx context.Context, id int64, corrected entity.ExtractedData) (*entity.Ack, error) {
	m.validateCalls++
	if m.validateFunc != nil {
		return m.validateFunc(ctx, id, corrected)
	}
	return &entity.Ack{Status: "success"}, nil
}

func (m *mockBackend) SaveInvoice(ctx context.Context, req entity.SaveInvoiceRequest) (*entity.SaveInvoiceResponse, error) {
	m.saveCalls++
	if m.saveFunc != nil {
		return m.saveFunc(ctx, req)
	}
	return &entity.SaveInvoiceResponse{Status: "success"}, nil
}

func (m *mockBackend) TrainModel(ctx context.Context) (*entity.Ack, error) {
	if m.trainFunc != nil {
		return m.trainFunc(ctx)
	}
	return &entity.Ack{Status: "success"}, nil
}

func (m *mockBackend) GetModelStats(ctx context.Context) (*entity.ModelStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &entity.ModelStats{ModelName: "invoice-extractor"}, nil
}

// mockStash is an in-memory port.ExtractionStash
type mockStash struct {
	records map[string]port.StashedExtraction
	putErr  error
}

func newMockStash() *mockStash {
	return &mockStash{records: make(map[string]port.StashedExtraction)}
}

func (m *mockStash) Put(ctx context.Context, sessionID string, stashed port.StashedExtraction) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.records[sessionID] = stashed
	return nil
}

func (m *mockStash) Get(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
	stashed, ok := m.records[sessionID]
	if !ok {
		return nil, port.ErrNoStash
	}
	return &stashed, nil
}

func (m *mockStash) Clear(ctx context.Context, sessionID string) error {
	delete(m.records, sessionID)
	return nil
}

type mockPreview struct {
	renderFunc func(ctx context.Context, filename string, content []byte) ([]byte, error)
}

func (m *mockPreview) RenderFirstPage(ctx context.Context, filename string, content []byte) ([]byte, error) {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, filename, content)
	}
	return []byte("png"), nil
}
