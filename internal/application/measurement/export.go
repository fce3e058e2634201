package measurement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

// Formatos de exportación soportados.
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
	FormatXML = "xml"
)

// ExportRow es una fila del documento tabular: una línea persistida del auto
// unida con los datos contratados de su partida.
type ExportRow struct {
	Code        string
	Chapter     string
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	PreviousPct decimal.Decimal
	CurrentPct  decimal.Decimal
	MeasuredQty decimal.Decimal
	PeriodValue decimal.Decimal
}

// TabularDocument es la representación neutra del auto para exportar: una
// fila por línea persistida más el bloque resumen con los cinco totales.
// Los renderers (PDF, CSV, XML) no recalculan nada.
type TabularDocument struct {
	Obra        *entity.Obra
	Certificate *entity.Certificate
	Rows        []ExportRow
}

// Exporter arma el documento tabular de un auto emitido (o posterior) y lo
// entrega al renderer del formato pedido. Solo lectura: no toca el ledger.
type Exporter struct {
	certRepo   repository.CertificateRepository
	budgetRepo repository.BudgetLineItemRepository
	obraRepo   repository.ObraRepository
	renderers  map[string]Renderer
}

// NewExporter construye el exportador con los renderers disponibles por formato.
func NewExporter(
	certRepo repository.CertificateRepository,
	budgetRepo repository.BudgetLineItemRepository,
	obraRepo repository.ObraRepository,
	renderers map[string]Renderer,
) *Exporter {
	return &Exporter{certRepo: certRepo, budgetRepo: budgetRepo, obraRepo: obraRepo, renderers: renderers}
}

// BuildDocument arma el documento tabular del auto. Un borrador no se
// exporta: sus números aún pueden cambiar.
func (e *Exporter) BuildDocument(ctx context.Context, certificateID string) (*TabularDocument, error) {
	cert, err := e.certRepo.GetByID(ctx, certificateID)
	if err != nil {
		return nil, fmt.Errorf("%w: leer auto: %v", domain.ErrUnavailable, err)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: auto %s", domain.ErrNotFound, certificateID)
	}
	if cert.IsDraft() {
		return nil, fmt.Errorf("%w: un borrador no se exporta", domain.ErrPreconditionFailed)
	}
	obra, err := e.obraRepo.GetByID(ctx, cert.ObraID)
	if err != nil {
		return nil, fmt.Errorf("%w: leer obra: %v", domain.ErrUnavailable, err)
	}
	if obra == nil {
		return nil, fmt.Errorf("%w: obra %s", domain.ErrNotFound, cert.ObraID)
	}
	entries, err := e.certRepo.GetLineEntries(ctx, certificateID)
	if err != nil {
		return nil, fmt.Errorf("%w: leer líneas: %v", domain.ErrUnavailable, err)
	}

	ids := make([]string, len(entries))
	for i, en := range entries {
		ids[i] = en.LineItemID
	}
	items, err := e.budgetRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: registro presupuestal: %v", domain.ErrUnavailable, err)
	}
	itemsByID := make(map[string]*entity.BudgetLineItem, len(items))
	for _, it := range items {
		itemsByID[it.ID] = it
	}

	doc := &TabularDocument{Obra: obra, Certificate: cert, Rows: make([]ExportRow, 0, len(entries))}
	for _, en := range entries {
		it, ok := itemsByID[en.LineItemID]
		if !ok {
			return nil, fmt.Errorf("%w: partida %s del auto no existe en el registro", domain.ErrNotFound, en.LineItemID)
		}
		doc.Rows = append(doc.Rows, ExportRow{
			Code:        it.Code,
			Chapter:     it.Chapter,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.TotalPrice(),
			PreviousPct: en.PreviousPct,
			CurrentPct:  en.CurrentPct,
			MeasuredQty: en.MeasuredQty,
			PeriodValue: en.PeriodValue,
		})
	}
	return doc, nil
}

// Export arma el documento y lo renderiza en el formato pedido. Devuelve los
// bytes y el content type.
func (e *Exporter) Export(ctx context.Context, certificateID, format string) ([]byte, string, error) {
	r, ok := e.renderers[format]
	if !ok {
		return nil, "", fmt.Errorf("%w: formato de exportación %q no soportado", domain.ErrValidation, format)
	}
	doc, err := e.BuildDocument(ctx, certificateID)
	if err != nil {
		return nil, "", err
	}
	out, err := r.Render(doc)
	if err != nil {
		return nil, "", fmt.Errorf("renderizar %s: %w", format, err)
	}
	return out, r.ContentType(), nil
}
