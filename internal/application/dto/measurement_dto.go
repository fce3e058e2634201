package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/valuation"
)

// CreateDraftRequest body para POST /api/obras/:obraId/certificates/draft.
type CreateDraftRequest struct {
	Period string `json:"period"` // mes "2006-01"
}

// SaveCertificateRequest body para POST /api/obras/:obraId/certificates.
// El borrador completo viaja en cada guardado: el conjunto de líneas se
// reemplaza en bloque (last-writer-wins documentado en el caso de uso).
type SaveCertificateRequest struct {
	Draft        measurement.Draft `json:"draft"`
	TargetStatus string            `json:"target_status,omitempty"` // draft (default) o issued
}

// RecalculateRequest body para POST /api/certificates/recalculate.
type RecalculateRequest struct {
	Draft measurement.Draft `json:"draft"`
}

// BulkPercentageRequest body para POST /api/certificates/bulk-percentage.
type BulkPercentageRequest struct {
	Draft      measurement.Draft `json:"draft"`
	Chapter    string            `json:"chapter"`
	Percentage decimal.Decimal   `json:"percentage"`
}

// BulkPercentageResponse borrador con las líneas del capítulo recortadas a
// [previo,100] más el resumen recalculado.
type BulkPercentageResponse struct {
	Draft   measurement.Draft `json:"draft"`
	Summary SummaryResponse   `json:"summary"`
}

// SummaryResponse los cinco totales derivados del auto.
type SummaryResponse struct {
	PreviousAccumulated decimal.Decimal `json:"previous_accumulated"`
	CurrentAccumulated  decimal.Decimal `json:"current_accumulated"`
	PeriodValue         decimal.Decimal `json:"period_value"`
	AdvanceDeduction    decimal.Decimal `json:"advance_deduction"`
	Retention           decimal.Decimal `json:"retention"`
	AmountToInvoice     decimal.Decimal `json:"amount_to_invoice"`
}

// CertificateResponse cabecera del auto en respuestas.
type CertificateResponse struct {
	ID        string          `json:"id"`
	ObraID    string          `json:"obra_id"`
	Number    int             `json:"number"`
	Period    string          `json:"period"`
	Status    string          `json:"status"`
	Final     bool            `json:"final"`
	Notes     string          `json:"notes,omitempty"`
	Summary   SummaryResponse `json:"summary"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CertificateLineResponse línea persistida del auto.
type CertificateLineResponse struct {
	LineItemID    string          `json:"line_item_id"`
	PreviousPct   decimal.Decimal `json:"previous_pct"`
	CurrentPct    decimal.Decimal `json:"current_pct"`
	MeasuredQty   decimal.Decimal `json:"measured_qty"`
	PreviousValue decimal.Decimal `json:"previous_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PeriodValue   decimal.Decimal `json:"period_value"`
}

// CertificateDetailResponse auto con sus líneas para GET /api/certificates/:id.
type CertificateDetailResponse struct {
	CertificateResponse
	Lines []CertificateLineResponse `json:"lines"`
}

// FromSummary convierte el resumen del motor a DTO.
func FromSummary(s valuation.Summary) SummaryResponse {
	return SummaryResponse{
		PreviousAccumulated: s.PreviousAccumulated,
		CurrentAccumulated:  s.CurrentAccumulated,
		PeriodValue:         s.PeriodValue,
		AdvanceDeduction:    s.AdvanceDeduction,
		Retention:           s.Retention,
		AmountToInvoice:     s.AmountToInvoice,
	}
}

// FromCertificate convierte la entidad a DTO de cabecera.
func FromCertificate(c *entity.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:     c.ID,
		ObraID: c.ObraID,
		Number: c.Number,
		Period: c.Period,
		Status: c.Status,
		Final:  c.Final,
		Notes:  c.Notes,
		Summary: SummaryResponse{
			PreviousAccumulated: c.PreviousAccumulated,
			CurrentAccumulated:  c.CurrentAccumulated,
			PeriodValue:         c.PeriodValue,
			AdvanceDeduction:    c.AdvanceDeduction,
			Retention:           c.Retention,
			AmountToInvoice:     c.AmountToInvoice,
		},
		UpdatedAt: c.UpdatedAt,
	}
}

// FromLineEntries convierte las líneas persistidas a DTO.
func FromLineEntries(entries []*entity.CertificateLineEntry) []CertificateLineResponse {
	out := make([]CertificateLineResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, CertificateLineResponse{
			LineItemID:    e.LineItemID,
			PreviousPct:   e.PreviousPct,
			CurrentPct:    e.CurrentPct,
			MeasuredQty:   e.MeasuredQty,
			PreviousValue: e.PreviousValue,
			CurrentValue:  e.CurrentValue,
			PeriodValue:   e.PeriodValue,
		})
	}
	return out
}
