package models

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportKind names the report families the platform can render.
type ExportKind string

const (
	// ExportKindModeration covers document review outcomes.
	ExportKindModeration ExportKind = "MODERATION"
	// ExportKindUsers covers the account listing.
	ExportKindUsers ExportKind = "USERS"
)
