package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/facturio/invoice-console/internal/application/port"
	"github.com/facturio/invoice-console/internal/application/service"
	"github.com/facturio/invoice-console/internal/infrastructure/backend"
)

const sessionCookie = "stash_session"

// Handlers contains all HTTP request handlers
type Handlers struct {
	uploadService    service.UploadService
	reviewService    service.ReviewService
	dashboardService service.DashboardService
	exportService    service.ExportService
	logger           Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	uploadService service.UploadService,
	reviewService service.ReviewService,
	dashboardService service.DashboardService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		uploadService:    uploadService,
		reviewService:    reviewService,
		dashboardService: dashboardService,
		exportService:    exportService,
		logger:           logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// Index handles GET / by redirecting to the dashboard
func (h *Handlers) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/dashboard")
}

// Dashboard handles GET /dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	overview, err := h.dashboardService.Overview(c.Request.Context())
	if err != nil {
		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"Error": backend.UserMessage(err),
		})
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Stats":      overview.Stats,
		"Recent":     overview.Recent,
		"ModelStats": overview.ModelStats,
		"Notice":     c.Query("notice"),
		"Error":      c.Query("error"),
	})
}

// TrainModel handles POST /train-model
func (h *Handlers) TrainModel(c *gin.Context) {
	ack, err := h.dashboardService.TrainModel(c.Request.Context())
	if err != nil {
		h.redirectWithError(c, "/dashboard", backend.UserMessage(err))
		return
	}
	h.redirectWithNotice(c, "/dashboard", ack.Message)
}

// ListInvoices handles GET /invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	query := service.ListQuery{
		Filter: c.Query("q"),
		SortBy: c.Query("sort"),
		Desc:   c.Query("order") == "desc",
		Page:   intQuery(c, "page", 1),
	}

	page, err := h.dashboardService.List(c.Request.Context(), query)
	if err != nil {
		c.HTML(http.StatusOK, "invoices.html", gin.H{
			"Error": backend.UserMessage(err),
			"Query": query,
		})
		return
	}

	c.HTML(http.StatusOK, "invoices.html", gin.H{
		"Page":   page,
		"Query":  query,
		"Notice": c.Query("notice"),
	})
}

// ExportRegister handles GET /invoices/export
func (h *Handlers) ExportRegister(c *gin.Context) {
	data, err := h.exportService.BuildRegister(c.Request.Context())
	if err != nil {
		h.redirectWithError(c, "/invoices", backend.UserMessage(err))
		return
	}

	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// UploadForm handles GET /invoices/upload
func (h *Handlers) UploadForm(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", gin.H{
		"Error": c.Query("error"),
	})
}

// Upload handles POST /invoices/upload
func (h *Handlers) Upload(c *gin.Context) {
	sessionID := h.ensureSession(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.HTML(http.StatusBadRequest, "upload.html", gin.H{
			"Error": "select a file to upload",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.HTML(http.StatusBadRequest, "upload.html", gin.H{
			"Error": "the selected file could not be read",
		})
		return
	}
	defer file.Close()

	content := make([]byte, fileHeader.Size)
	if _, err := io.ReadFull(file, content); err != nil {
		c.HTML(http.StatusBadRequest, "upload.html", gin.H{
			"Error": "the selected file could not be read",
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")

	_, err = h.uploadService.Upload(c.Request.Context(), sessionID, fileHeader.Filename, contentType, content)
	if err != nil {
		var unsupported *service.UnsupportedFileError
		if errors.As(err, &unsupported) {
			c.HTML(http.StatusUnprocessableEntity, "upload.html", gin.H{
				"Error": unsupported.Error(),
			})
			return
		}

		c.HTML(http.StatusOK, "upload.html", gin.H{
			"Error": backend.UserMessage(err),
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/invoices/review")
}

// ReviewDraft handles GET /invoices/review
func (h *Handlers) ReviewDraft(c *gin.Context) {
	sessionID := h.ensureSession(c)

	draft, err := h.reviewService.Draft(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, port.ErrNoStash) {
			// Nothing to review
			c.Redirect(http.StatusFound, "/invoices/upload")
			return
		}
		h.redirectWithError(c, "/invoices/upload", backend.UserMessage(err))
		return
	}

	c.HTML(http.StatusOK, "review.html", gin.H{
		"Draft":      draft,
		"HasPreview": len(draft.PreviewPNG) > 0,
		"Error":      c.Query("error"),
	})
}

// SaveDraft handles POST /invoices/review
func (h *Handlers) SaveDraft(c *gin.Context) {
	sessionID := h.ensureSession(c)

	resp, err := h.reviewService.SaveDraft(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, port.ErrNoStash) {
			c.Redirect(http.StatusFound, "/invoices/upload")
			return
		}
		// The stash is preserved so the user can retry
		h.redirectWithError(c, "/invoices/review", backend.UserMessage(err))
		return
	}

	notice := resp.Message
	if notice == "" {
		notice = "invoice saved"
	}
	h.redirectWithNotice(c, "/dashboard", notice)
}

// DiscardDraft handles POST /invoices/review/discard
func (h *Handlers) DiscardDraft(c *gin.Context) {
	sessionID := h.ensureSession(c)

	if err := h.reviewService.DiscardDraft(c.Request.Context(), sessionID); err != nil {
		h.logger.Error("Failed to discard draft", "error", err)
	}
	c.Redirect(http.StatusSeeOther, "/invoices/upload")
}

// DraftPreview handles GET /invoices/review/preview
func (h *Handlers) DraftPreview(c *gin.Context) {
	sessionID := h.ensureSession(c)

	draft, err := h.reviewService.Draft(c.Request.Context(), sessionID)
	if err != nil || len(draft.PreviewPNG) == 0 {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/png", draft.PreviewPNG)
}

// InvoiceDetail handles GET /invoices/:id
func (h *Handlers) InvoiceDetail(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.reviewService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.redirectWithError(c, "/invoices", backend.UserMessage(err))
		return
	}

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"Invoice": invoice,
		"Notice":  c.Query("notice"),
	})
}

// EditForm handles GET /invoices/:id/edit
func (h *Handlers) EditForm(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.reviewService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.redirectWithError(c, "/invoices", backend.UserMessage(err))
		return
	}

	c.HTML(http.StatusOK, "edit.html", gin.H{
		"InvoiceID":   invoice.ID,
		"Invoice":     invoice,
		"FieldErrors": service.FieldErrors{},
		"Form": service.CorrectionForm{
			InvoiceNumber: invoice.InvoiceNumber,
			InvoiceDate:   invoice.InvoiceDate,
			DueDate:       invoice.DueDate,
			SupplierName:  invoice.SupplierName,
			TotalAmount:   invoice.TotalAmount,
			TaxAmount:     invoice.TaxAmount,
		},
	})
}

// SubmitCorrection handles POST /invoices/:id/edit
func (h *Handlers) SubmitCorrection(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	form, parseErrs := correctionFormFromRequest(c)
	if len(parseErrs) > 0 {
		h.renderEditErrors(c, id, form, parseErrs)
		return
	}

	err := h.reviewService.SubmitCorrection(c.Request.Context(), id, form)
	if err != nil {
		var fieldErrs service.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.renderEditErrors(c, id, form, fieldErrs)
			return
		}

		c.HTML(http.StatusOK, "edit.html", gin.H{
			"InvoiceID":   id,
			"Form":        form,
			"FieldErrors": service.FieldErrors{},
			"Error":       backend.UserMessage(err),
		})
		return
	}

	h.redirectWithNotice(c, fmt.Sprintf("/invoices/%d", id), "invoice updated and validated")
}

// correctionFormFromRequest builds the form from POST fields. Amounts
// that fail to parse are reported as field errors before validation.
func correctionFormFromRequest(c *gin.Context) (service.CorrectionForm, service.FieldErrors) {
	form := service.CorrectionForm{
		InvoiceNumber: strings.TrimSpace(c.PostForm("invoice_number")),
		InvoiceDate:   strings.TrimSpace(c.PostForm("invoice_date")),
		DueDate:       strings.TrimSpace(c.PostForm("due_date")),
		SupplierName:  strings.TrimSpace(c.PostForm("supplier_name")),
	}

	errs := service.FieldErrors{}
	form.TotalAmount = parseAmount(c.PostForm("total_amount"), "total_amount", errs)
	form.TaxAmount = parseAmount(c.PostForm("tax_amount"), "tax_amount", errs)

	if len(errs) == 0 {
		return form, nil
	}
	return form, errs
}

func parseAmount(raw, field string, errs service.FieldErrors) *float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs[field] = "must be a number"
		return nil
	}
	return &value
}

func (h *Handlers) renderEditErrors(c *gin.Context, id int64, form service.CorrectionForm, fieldErrs service.FieldErrors) {
	c.HTML(http.StatusUnprocessableEntity, "edit.html", gin.H{
		"InvoiceID":   id,
		"Form":        form,
		"FieldErrors": fieldErrs,
	})
}

// invoiceID parses the :id route parameter, rendering a redirect on
// malformed input.
func (h *Handlers) invoiceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.redirectWithError(c, "/invoices", "invalid invoice identifier")
		return 0, false
	}
	return id, true
}

// ensureSession returns the stash session ID, minting a cookie when the
// browser does not have one yet.
func (h *Handlers) ensureSession(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
		return id
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a time-derived ID rather than failing the request
		return fmt.Sprintf("s-%d", time.Now().UnixNano())
	}
	id := hex.EncodeToString(buf)

	c.SetCookie(sessionCookie, id, int((24 * time.Hour).Seconds()), "/", "", false, true)
	return id
}

func (h *Handlers) redirectWithNotice(c *gin.Context, to, notice string) {
	c.Redirect(http.StatusSeeOther, to+"?notice="+url.QueryEscape(notice))
}

func (h *Handlers) redirectWithError(c *gin.Context, to, message string) {
	c.Redirect(http.StatusSeeOther, to+"?error="+url.QueryEscape(message))
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
