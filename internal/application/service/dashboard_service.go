package service

import (
	"context"
	"sort"
	"strings"

	"github.com/facturio/invoice-console/internal/application/port"
	"github.com/facturio/invoice-console/internal/domain/entity"
)

// Stats are the dashboard aggregates computed client-side over one
// fetched collection.
type Stats struct {
	Total             int
	Validated         int
	Open              int // pending or processing
	Errored           int
	AverageConfidence float64
}

// Overview is everything the dashboard screen renders.
type Overview struct {
	Stats      Stats
	Recent     []entity.Invoice
	ModelStats *entity.ModelStats
}

// ListQuery controls client-side filtering, sorting and paging of the
// fetched collection. There is no pagination contract with the backend.
type ListQuery struct {
	Filter   string
	SortBy   string // number, supplier, date, amount, status, confidence
	Desc     bool
	Page     int
	PageSize int
}

// InvoicePage is one client-side page of the filtered collection.
type InvoicePage struct {
	Invoices  []entity.Invoice
	Total     int // invoices matching the filter, before paging
	Page      int
	PageCount int
}

const (
	defaultPageSize = 20
	recentCount     = 5
)

// DashboardService backs the list and dashboard screens.
type DashboardService interface {
	// Overview fetches the collection once and computes the dashboard
	// aggregates plus the most recent invoices
	Overview(ctx context.Context) (*Overview, error)

	// List fetches the collection once and applies the query client-side
	List(ctx context.Context, query ListQuery) (*InvoicePage, error)

	// TrainModel triggers a backend training run
	TrainModel(ctx context.Context) (*entity.Ack, error)
}

type dashboardServiceImpl struct {
	backend port.BackendClient
	logger  Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(backend port.BackendClient, logger Logger) DashboardService {
	return &dashboardServiceImpl{backend: backend, logger: logger}
}

// ComputeStats aggregates one fetched collection. The average confidence
// of an empty collection is 0.
func ComputeStats(invoices []entity.Invoice) Stats {
	stats := Stats{Total: len(invoices)}

	var confidenceSum float64
	for _, inv := range invoices {
		switch {
		case inv.Status == entity.StatusValidated:
			stats.Validated++
		case inv.Status.IsOpen():
			stats.Open++
		case inv.Status == entity.StatusError:
			stats.Errored++
		}
		confidenceSum += inv.ConfidenceScore
	}

	if stats.Total > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.Total)
	}
	return stats
}

// Overview fetches the collection and aggregates it for the dashboard.
func (s *dashboardServiceImpl) Overview(ctx context.Context) (*Overview, error) {
	invoices, err := s.backend.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	sortInvoices(invoices, "date", true)

	recent := invoices
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}

	overview := &Overview{
		Stats:  ComputeStats(invoices),
		Recent: recent,
	}

	// Model stats are decoration; the dashboard still renders without them
	stats, err := s.backend.GetModelStats(ctx)
	if err != nil {
		s.logger.Warn("Model stats unavailable", "error", err)
	} else {
		overview.ModelStats = stats
	}

	return overview, nil
}

// List fetches the collection and applies filter, sort and paging.
func (s *dashboardServiceImpl) List(ctx context.Context, query ListQuery) (*InvoicePage, error) {
	invoices, err := s.backend.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	filtered := filterInvoices(invoices, query.Filter)
	sortInvoices(filtered, query.SortBy, query.Desc)

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	total := len(filtered)
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &InvoicePage{
		Invoices:  filtered[start:end],
		Total:     total,
		Page:      page,
		PageCount: pageCount,
	}, nil
}

// TrainModel triggers a backend training run.
func (s *dashboardServiceImpl) TrainModel(ctx context.Context) (*entity.Ack, error) {
	ack, err := s.backend.TrainModel(ctx)
	if err != nil {
		s.logger.Error("Training trigger failed", "error", err)
		return nil, err
	}
	s.logger.Info("Training triggered", "message", ack.Message)
	return ack, nil
}

// filterInvoices applies a case-insensitive free-text filter over the
// invoice number, supplier name and original filename.
func filterInvoices(invoices []entity.Invoice, filter string) []entity.Invoice {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return invoices
	}

	filtered := make([]entity.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		haystack := strings.ToLower(inv.InvoiceNumber + " " + inv.SupplierName + " " + inv.OriginalFilename)
		if strings.Contains(haystack, filter) {
			filtered = append(filtered, inv)
		}
	}
	return filtered
}

// sortInvoices orders the collection by the given key. The zero key
// sorts by creation date.
func sortInvoices(invoices []entity.Invoice, sortBy string, desc bool) {
	less := func(a, b entity.Invoice) bool { return a.CreatedAt < b.CreatedAt }

	switch sortBy {
	case "number":
		less = func(a, b entity.Invoice) bool { return a.InvoiceNumber < b.InvoiceNumber }
	case "supplier":
		less = func(a, b entity.Invoice) bool { return a.SupplierName < b.SupplierName }
	case "amount":
		less = func(a, b entity.Invoice) bool { return amountOf(a) < amountOf(b) }
	case "status":
		less = func(a, b entity.Invoice) bool { return a.Status < b.Status }
	case "confidence":
		less = func(a, b entity.Invoice) bool { return a.ConfidenceScore < b.ConfidenceScore }
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		if desc {
			return less(invoices[j], invoices[i])
		}
		return less(invoices[i], invoices[j])
	})
}

func amountOf(inv entity.Invoice) float64 {
	if inv.TotalAmount == nil {
		return 0
	}
	return *inv.TotalAmount
}
