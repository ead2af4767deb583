package entity

// InvoiceStatus is the processing status reported by the backend. The
// console displays whatever it receives; it never enforces the pending →
// processing → processed/error → validated progression.
type InvoiceStatus string

const (
	StatusPending    InvoiceStatus = "pending"
	StatusProcessing InvoiceStatus = "processing"
	StatusProcessed  InvoiceStatus = "processed"
	StatusError      InvoiceStatus = "error"
	StatusValidated  InvoiceStatus = "validated"
)

var statusLabels = map[InvoiceStatus]string{
	StatusPending:    "awaiting",
	StatusProcessing: "in progress",
	StatusProcessed:  "processed",
	StatusError:      "error",
	StatusValidated:  "validated",
}

// String returns the raw status value.
func (s InvoiceStatus) String() string {
	return string(s)
}

// Label returns the display label for the status. Unknown statuses pass
// through unchanged so a backend addition never renders as empty text.
func (s InvoiceStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsOpen reports whether the invoice is still being worked on by the
// backend (counted together on the dashboard).
func (s InvoiceStatus) IsOpen() bool {
	return s == StatusPending || s == StatusProcessing
}

// ConfidenceSeverity classifies a confidence score for display.
type ConfidenceSeverity string

const (
	SeverityGood    ConfidenceSeverity = "good"
	SeverityCaution ConfidenceSeverity = "caution"
	SeverityPoor    ConfidenceSeverity = "poor"
)

// SeverityForConfidence maps a [0,1] confidence score to a severity band.
func SeverityForConfidence(score float64) ConfidenceSeverity {
	switch {
	case score >= 0.8:
		return SeverityGood
	case score >= 0.5:
		return SeverityCaution
	default:
		return SeverityPoor
	}
}
