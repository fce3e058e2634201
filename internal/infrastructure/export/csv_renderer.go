// Package export implementa los renderers tabulares del auto de medición
// (CSV y XML). El PDF vive en internal/infrastructure/pdf.
//
// Los renderers no recalculan nada: reciben el TabularDocument ya armado y
// solo formatean. El redondeo a 2 decimales ocurre aquí y solo aquí.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/tu-usuario/obra-pro/internal/application/measurement"
)

// Ensure CSVRenderer implements measurement.Renderer.
var _ measurement.Renderer = (*CSVRenderer)(nil)

// CSVRenderer exporta el documento tabular como CSV: una fila por línea del
// auto y un bloque final con los cinco totales.
type CSVRenderer struct{}

// NewCSVRenderer construye el renderer.
func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

// ContentType devuelve el MIME type del CSV.
func (r *CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

// Render serializa el documento.
func (r *CSVRenderer) Render(doc *measurement.TabularDocument) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	meta := [][]string{
		{"obra", doc.Obra.Code, doc.Obra.Name},
		{"auto", strconv.Itoa(doc.Certificate.Number), doc.Certificate.Period, doc.Certificate.Status},
		{},
	}
	header := []string{
		"referencia", "capitulo", "descripcion", "unidad",
		"cantidad", "precio_unitario", "importe_partida",
		"pct_anterior", "pct_actual", "cantidad_medida", "importe_periodo",
	}
	if err := writeAll(w, append(meta, header)); err != nil {
		return nil, err
	}

	for _, row := range doc.Rows {
		rec := []string{
			row.Code, row.Chapter, row.Description, row.Unit,
			row.Quantity.StringFixed(2), row.UnitPrice.StringFixed(2), row.LineTotal.StringFixed(2),
			row.PreviousPct.StringFixed(2), row.CurrentPct.StringFixed(2),
			row.MeasuredQty.StringFixed(2), row.PeriodValue.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("csv: escribir línea: %w", err)
		}
	}

	c := doc.Certificate
	summary := [][]string{
		{},
		{"acumulado_anterior", c.PreviousAccumulated.StringFixed(2)},
		{"acumulado_actual", c.CurrentAccumulated.StringFixed(2)},
		{"importe_periodo", c.PeriodValue.StringFixed(2)},
		{"deduccion_anticipo", c.AdvanceDeduction.StringFixed(2)},
		{"retencion", c.Retention.StringFixed(2)},
		{"importe_a_facturar", c.AmountToInvoice.StringFixed(2)},
	}
	if err := writeAll(w, summary); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAll(w *csv.Writer, records [][]string) error {
	for _, rec := range records {
		if len(rec) == 0 {
			// csv.Writer no emite filas vacías; separador visual del bloque
			if err := w.Write([]string{""}); err != nil {
				return fmt.Errorf("csv: escribir separador: %w", err)
			}
			continue
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("csv: escribir registro: %w", err)
		}
	}
	return nil
}
