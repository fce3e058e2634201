// Package pdf implementa la representación imprimible del auto de medición.
//
// Layout de la página A4 apaisada:
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│  HEADER: Obra + código  │  AUTO DE MEDICIÓN N° + período          │
//	│  ──────────────────────────────────────────────────────────────  │
//	│  TABLA: Ref | Capítulo | Descripción | Ud | Cant | P.Unit |       │
//	│         Importe | %Ant | %Act | Cant.Medida | Importe período     │
//	│  ──────────────────────────────────────────────────────────────  │
//	│  RESUMEN: acumulados, período, anticipo, retención, A FACTURAR    │
//	└──────────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tu-usuario/obra-pro/internal/application/measurement"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// moneda con separadores es-ES; única etapa donde el decimal se redondea.
var moneyPrinter = message.NewPrinter(language.Spanish)

// Ensure CertificateRenderer implements measurement.Renderer.
var _ measurement.Renderer = (*CertificateRenderer)(nil)

// CertificateRenderer genera el PDF del auto usando Maroto v2.
type CertificateRenderer struct{}

// NewCertificateRenderer construye el renderer.
func NewCertificateRenderer() *CertificateRenderer { return &CertificateRenderer{} }

// ContentType devuelve el MIME type del PDF.
func (g *CertificateRenderer) ContentType() string { return "application/pdf" }

// Render genera el PDF y devuelve sus bytes.
func (g *CertificateRenderer) Render(doc *measurement.TabularDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(fmt.Sprintf("Auto de Medición N° %d", doc.Certificate.Number), true).
		WithAuthor(doc.Obra.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(doc) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// headerRow: obra (izq) y número + período del auto (der).
func headerRow(doc *measurement.TabularDocument) core.Row {
	c := doc.Certificate
	title := fmt.Sprintf("AUTO DE MEDICIÓN N° %d", c.Number)
	if c.Final {
		title += " (FINAL)"
	}
	return row.New(16).Add(
		col.New(7).Add(
			text.New(doc.Obra.Name, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("Obra: "+doc.Obra.Code+"   |   Cliente: "+nonEmpty(doc.Obra.Client, "—"), props.Text{
				Size: 8, Top: 8, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Período: "+c.Period+"   |   Estado: "+c.Status, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de mediciones.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Ref.", 1, align.Left),
		h("Descripción", 3, align.Left),
		h("Ud", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("P. Unit.", 1, align.Right),
		h("Importe", 1, align.Right),
		h("% Ant.", 1, align.Center),
		h("% Act.", 1, align.Center),
		h("Cant. medida", 1, align.Right),
		h("Importe período", 1, align.Right),
	)
}

// tableRows: una fila por línea persistida del auto.
func tableRows(doc *measurement.TabularDocument) []core.Row {
	result := make([]core.Row, 0, len(doc.Rows))
	for _, r := range doc.Rows {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{
				Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1,
			}))
		}
		result = append(result, row.New(6).Add(
			cell(r.Code, 1, align.Left),
			cell(r.Description+"  ("+r.Chapter+")", 3, align.Left),
			cell(r.Unit, 1, align.Center),
			cell(r.Quantity.StringFixed(2), 1, align.Right),
			cell(formatMoney(r.UnitPrice), 1, align.Right),
			cell(formatMoney(r.LineTotal), 1, align.Right),
			cell(r.PreviousPct.StringFixed(0)+"%", 1, align.Center),
			cell(r.CurrentPct.StringFixed(0)+"%", 1, align.Center),
			cell(r.MeasuredQty.StringFixed(2), 1, align.Right),
			cell(formatMoney(r.PeriodValue), 1, align.Right),
		))
	}
	return result
}

// summaryRow: bloque de los cinco totales alineado a la derecha.
func summaryRow(doc *measurement.TabularDocument) core.Row {
	c := doc.Certificate
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2, Top: top,
		})
	}
	value := func(d decimal.Decimal, top float64) core.Component {
		return text.New(formatMoney(d), props.Text{Size: 8, Align: align.Right, Right: 1, Top: top})
	}
	grandLabel := text.New("IMPORTE A FACTURAR:", props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 26,
	})
	grandValue := text.New(formatMoney(c.AmountToInvoice), props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 26,
	})

	return row.New(34).Add(
		col.New(4), // espacio izquierdo
		col.New(4).Add(
			label("Acumulado anterior:", 1),
			label("Acumulado actual:", 6),
			label("Importe del período:", 11),
			label("Deducción anticipo:", 16),
			label("Retención:", 21),
			grandLabel,
		),
		col.New(4).Add(
			value(c.PreviousAccumulated, 1),
			value(c.CurrentAccumulated, 6),
			value(c.PeriodValue, 11),
			value(c.AdvanceDeduction, 16),
			value(c.Retention, 21),
			grandValue,
		),
	)
}

// formatMoney formatea un importe con separadores de miles es-ES.
func formatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return moneyPrinter.Sprintf("%.2f", f)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
