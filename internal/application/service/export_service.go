package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/facturio/invoice-console/internal/application/port"
)

const registerSheet = "Invoices"

// ExportService builds an .xlsx register of the fetched invoice
// collection for download from the list screen.
type ExportService interface {
	BuildRegister(ctx context.Context) ([]byte, error)
}

type exportServiceImpl struct {
	backend port.BackendClient
	logger  Logger
}

// NewExportService creates a new ExportService
func NewExportService(backend port.BackendClient, logger Logger) ExportService {
	return &exportServiceImpl{backend: backend, logger: logger}
}

// BuildRegister fetches the collection once and renders it as a
// spreadsheet: one row per invoice plus a summary block of the same
// aggregates the dashboard shows.
func (s *exportServiceImpl) BuildRegister(ctx context.Context) ([]byte, error) {
	invoices, err := s.backend.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(registerSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"ID", "Invoice number", "Supplier", "Date", "Total amount", "Tax amount", "Status", "Confidence", "File"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		s.setCell(f, cell, header)
	}

	for row, inv := range invoices {
		values := []interface{}{
			inv.ID,
			inv.InvoiceNumber,
			inv.SupplierName,
			inv.InvoiceDate,
			amountOrEmpty(inv.TotalAmount),
			amountOrEmpty(inv.TaxAmount),
			inv.Status.Label(),
			inv.ConfidenceScore,
			inv.OriginalFilename,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			s.setCell(f, cell, value)
		}
	}

	stats := ComputeStats(invoices)
	summaryRow := len(invoices) + 3
	summary := [][2]interface{}{
		{"Total invoices", stats.Total},
		{"Validated", stats.Validated},
		{"Awaiting / in progress", stats.Open},
		{"Errors", stats.Errored},
		{"Average confidence", stats.AverageConfidence},
	}
	for i, pair := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		s.setCell(f, labelCell, pair[0])
		s.setCell(f, valueCell, pair[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	s.logger.Info("Built invoice register", "invoices", len(invoices))
	return buf.Bytes(), nil
}

func (s *exportServiceImpl) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(registerSheet, cell, value); err != nil {
		s.logger.Warn("Failed to set cell value",
			"cell", cell,
			"error", err)
	}
}

func amountOrEmpty(amount *float64) interface{} {
	if amount == nil {
		return ""
	}
	return *amount
}
