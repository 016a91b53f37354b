// Package pdf renders printable invoice documents.
package pdf

import "context"

// InvoiceDocument carries the already formatted strings for one invoice.
// Formatting (money, dates) happens in the caller so the renderer stays
// locale-free.
type InvoiceDocument struct {
	OrganizationName    string
	OrganizationAddress string
	OrganizationEmail   string

	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Status        string

	Lines []InvoiceLine

	Subtotal string
	Tax      string
	Total    string
}

// InvoiceLine is one billed position.
type InvoiceLine struct {
	Description string
	Amount      string
}

// Renderer produces the PDF bytes for an invoice document.
type Renderer interface {
	RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}

// NoOpRenderer returns an empty document. Used in tests.
type NoOpRenderer struct{}

func (NoOpRenderer) RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	return nil, nil
}
