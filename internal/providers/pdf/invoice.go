package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type marotoRenderer struct{}

// New returns the maroto-backed invoice renderer.
func New() Renderer {
	return &marotoRenderer{}
}

func (r *marotoRenderer) RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice number: "+doc.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+doc.IssueDate, props.Text{Top: 4}),
			text.New("Date due: "+doc.DueDate, props.Text{Top: 8}),
			text.New("Status: "+doc.Status, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(doc.OrganizationName, props.Text{Top: 5}),
			text.New(doc.OrganizationAddress, props.Text{Top: 9}),
			text.New(doc.OrganizationEmail, props.Text{Top: 17}),
		),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(9, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range doc.Lines {
		m.AddRow(10,
			text.NewCol(9, line.Description, props.Text{Size: 9}),
			text.NewCol(3, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, doc.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Tax", props.Text{Size: 9}),
		text.NewCol(3, doc.Tax, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, doc.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	pdfDoc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return pdfDoc.GetBytes(), nil
}
