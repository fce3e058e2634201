package measurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
	"github.com/tu-usuario/obra-pro/internal/domain/valuation"
)

var pctHundred = decimal.NewFromInt(100)

// Defaults son las tasas contractuales por defecto cuando la obra no las
// define: recuperación de anticipo 0%, retención 5%.
type Defaults struct {
	AdvanceRecoveryRate decimal.Decimal
	RetentionRate       decimal.Decimal
}

// LifecycleManager es el dueño del ciclo de vida del auto de medición:
// draft → issued → approved → paid, sin retrocesos. Toda la validación de
// reglas de negocio vive aquí; el motor de valoración es matemática pura y el
// repo nunca recibe datos fuera de invariante.
//
// Concurrencia: la edición simultánea del mismo borrador es last-writer-wins
// sobre el conjunto completo de líneas (cada Save reemplaza el bloque entero).
// Es un flujo de operador único y se acepta; el token UpdatedAt convierte el
// guardado desfasado en ErrConflict en lugar de pisar silenciosamente.
type LifecycleManager struct {
	txRunner   TxRunner
	certRepo   repository.CertificateRepository
	budgetRepo repository.BudgetLineItemRepository
	obraRepo   repository.ObraRepository
	resolver   *Resolver
	defaults   Defaults
}

// NewLifecycleManager construye el gestor.
func NewLifecycleManager(
	txRunner TxRunner,
	certRepo repository.CertificateRepository,
	budgetRepo repository.BudgetLineItemRepository,
	obraRepo repository.ObraRepository,
	defaults Defaults,
) *LifecycleManager {
	return &LifecycleManager{
		txRunner:   txRunner,
		certRepo:   certRepo,
		budgetRepo: budgetRepo,
		obraRepo:   obraRepo,
		resolver:   NewResolver(certRepo),
		defaults:   defaults,
	}
}

// CreateDraft arma un borrador para la obra: partidas facturables del
// registro, siguiente consecutivo y porcentaje previo resuelto por partida,
// con el porcentaje actual sembrado igual al previo (delta cero de partida).
// No persiste nada; el primer Save materializa el auto y reserva el número.
func (m *LifecycleManager) CreateDraft(ctx context.Context, obraID, period string) (*Draft, error) {
	if _, err := m.mustGetObra(ctx, obraID); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	lines, err := m.budgetRepo.ListEligible(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%w: registro presupuestal: %v", domain.ErrUnavailable, err)
	}
	certs, err := m.certRepo.ListByObra(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%w: listar autos: %v", domain.ErrUnavailable, err)
	}

	number := NextNumber(certs)
	lineIDs := make([]string, len(lines))
	for i, l := range lines {
		lineIDs[i] = l.ID
	}
	previous, err := m.resolver.PreviousPercentages(ctx, certs, number, lineIDs)
	if err != nil {
		return nil, err
	}

	draft := &Draft{
		ID:     uuid.New().String(),
		ObraID: obraID,
		Number: number,
		Period: period,
		Lines:  make([]DraftLine, 0, len(lines)),
	}
	for _, l := range lines {
		prev := previous[l.ID]
		draft.Lines = append(draft.Lines, DraftLine{
			LineItemID:  l.ID,
			Code:        l.Code,
			Chapter:     l.Chapter,
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			PreviousPct: prev,
			CurrentPct:  prev,
		})
	}
	return draft, nil
}

// ApplyBulkPercentage fija el porcentaje actual de todas las líneas del
// capítulo a clamp(pct, previo, 100). Permite "pintar" el avance de una zona
// completa manteniendo la monotonía por partida; valores fuera de rango se
// recortan en silencio, nunca fallan.
//
// Todo el clamping vive aquí y en Save: da igual por qué punto de entrada
// (edición por línea, masiva o API) lleguen los datos.
func (m *LifecycleManager) ApplyBulkPercentage(draft *Draft, chapter string, pct decimal.Decimal) {
	for i := range draft.Lines {
		if draft.Lines[i].Chapter != chapter {
			continue
		}
		draft.Lines[i].CurrentPct = clampPct(pct, draft.Lines[i].PreviousPct)
	}
}

// Recalculate ejecuta el motor de valoración sobre el borrador y devuelve el
// resumen sin persistir nada: es la vista previa en vivo durante la edición.
func (m *LifecycleManager) Recalculate(ctx context.Context, draft *Draft) (valuation.Summary, error) {
	obra, err := m.mustGetObra(ctx, draft.ObraID)
	if err != nil {
		return valuation.Summary{}, err
	}
	if err := m.validateLines(draft.Lines); err != nil {
		return valuation.Summary{}, err
	}
	advance, retention := obra.Rates(m.defaults.AdvanceRecoveryRate, m.defaults.RetentionRate)
	summary, _, err := valuation.Compute(toEngineInput(draft.Lines), advance, retention)
	return summary, err
}

// Save valida invariantes, corre el motor y persiste el auto con sus líneas
// en una sola transacción: upsert de la cabecera (el insert reserva el
// consecutivo; perder esa carrera es ErrConflict), reemplazo en bloque de las
// líneas (podando las 0%→0%) y, solo si targetStatus no es draft, escritura
// del avance acumulado de cada partida en el registro presupuestal.
// Si cualquier paso falla no queda estado parcial visible.
//
// El consecutivo y los porcentajes previos son campos derivados: aquí se
// recalculan siempre contra lo persistido y los del borrador entrante se
// descartan. Un cliente no puede saltarse la numeración ni rebajar el previo
// de una partida para facturar de más; si su porcentaje actual queda por
// debajo del previo real, el guardado se rechaza con ErrValidation.
//
// Emitir exige PeriodValue > 0: un auto que no factura nada no se emite.
// Editar un auto ya emitido es ErrPreconditionFailed.
func (m *LifecycleManager) Save(ctx context.Context, draft *Draft, targetStatus string) (*entity.Certificate, error) {
	if targetStatus == "" {
		targetStatus = entity.CertificateStatusDraft
	}
	if targetStatus != entity.CertificateStatusDraft && targetStatus != entity.CertificateStatusIssued {
		return nil, fmt.Errorf("%w: estado destino de guardado inválido: %s", domain.ErrValidation, targetStatus)
	}
	if err := validatePeriod(draft.Period); err != nil {
		return nil, err
	}
	obra, err := m.mustGetObra(ctx, draft.ObraID)
	if err != nil {
		return nil, err
	}

	// Reedición: el auto persistido debe seguir en borrador.
	existing, err := m.certRepo.GetByID(ctx, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: leer auto: %v", domain.ErrUnavailable, err)
	}
	if existing != nil && !existing.IsDraft() {
		return nil, fmt.Errorf("%w: el auto %d ya fue emitido", domain.ErrPreconditionFailed, existing.Number)
	}

	certs, err := m.certRepo.ListByObra(ctx, draft.ObraID)
	if err != nil {
		return nil, fmt.Errorf("%w: listar autos: %v", domain.ErrUnavailable, err)
	}
	number := NextNumber(certs)
	if existing != nil {
		number = existing.Number
	}
	lineIDs := make([]string, len(draft.Lines))
	for i, l := range draft.Lines {
		lineIDs[i] = l.LineItemID
	}
	previous, err := m.resolver.PreviousPercentages(ctx, certs, number, lineIDs)
	if err != nil {
		return nil, err
	}
	for i := range draft.Lines {
		draft.Lines[i].PreviousPct = previous[draft.Lines[i].LineItemID]
	}
	draft.Number = number

	if err := m.validateLines(draft.Lines); err != nil {
		return nil, err
	}
	advance, retention := obra.Rates(m.defaults.AdvanceRecoveryRate, m.defaults.RetentionRate)
	summary, results, err := valuation.Compute(toEngineInput(draft.Lines), advance, retention)
	if err != nil {
		return nil, err
	}
	if targetStatus == entity.CertificateStatusIssued && !summary.PeriodValue.IsPositive() {
		return nil, fmt.Errorf("%w: no se emite un auto con valor de período %s", domain.ErrValidation, summary.PeriodValue)
	}

	now := time.Now()
	cert := &entity.Certificate{
		ID:                  draft.ID,
		ObraID:              draft.ObraID,
		Number:              number,
		Period:              draft.Period,
		Status:              targetStatus,
		Final:               draft.Final,
		Notes:               draft.Notes,
		PreviousAccumulated: summary.PreviousAccumulated,
		CurrentAccumulated:  summary.CurrentAccumulated,
		PeriodValue:         summary.PeriodValue,
		AdvanceDeduction:    summary.AdvanceDeduction,
		Retention:           summary.Retention,
		AmountToInvoice:     summary.AmountToInvoice,
		UpdatedAt:           draft.UpdatedAt,
	}

	resultsByLine := make(map[string]valuation.LineResult, len(results))
	for _, r := range results {
		resultsByLine[r.LineItemID] = r
	}
	entries := make([]*entity.CertificateLineEntry, 0, len(draft.Lines))
	updates := make([]repository.ProgressUpdate, 0, len(draft.Lines))
	for _, l := range draft.Lines {
		r := resultsByLine[l.LineItemID]
		entry := &entity.CertificateLineEntry{
			CertificateID: cert.ID,
			LineItemID:    l.LineItemID,
			PreviousPct:   l.PreviousPct,
			CurrentPct:    l.CurrentPct,
			MeasuredQty:   r.MeasuredQty,
			PreviousValue: r.PreviousValue,
			CurrentValue:  r.CurrentValue,
			PeriodValue:   r.PeriodValue,
		}
		if entry.IsEmpty() {
			continue
		}
		entries = append(entries, entry)
		updates = append(updates, repository.ProgressUpdate{
			LineItemID:  l.LineItemID,
			ExecutedPct: l.CurrentPct,
			ExecutedQty: r.MeasuredQty,
		})
	}

	err = m.txRunner.Run(ctx, func(
		certRepo repository.CertificateRepository,
		budgetRepo repository.BudgetLineItemRepository,
	) error {
		if existing == nil {
			cert.CreatedAt = now
			if err := certRepo.Insert(ctx, cert); err != nil {
				return err
			}
		} else {
			cert.CreatedAt = existing.CreatedAt
			if err := certRepo.Update(ctx, cert); err != nil {
				return err
			}
		}
		if err := certRepo.ReplaceLineEntries(ctx, cert.ID, entries); err != nil {
			return err
		}
		if targetStatus != entity.CertificateStatusDraft {
			if err := budgetRepo.WriteBackProgress(ctx, cert.ObraID, updates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// Approve avanza un auto emitido a aprobado.
func (m *LifecycleManager) Approve(ctx context.Context, certificateID string) (*entity.Certificate, error) {
	return m.advance(ctx, certificateID, entity.CertificateStatusApproved)
}

// Pay avanza un auto aprobado a pagado.
func (m *LifecycleManager) Pay(ctx context.Context, certificateID string) (*entity.Certificate, error) {
	return m.advance(ctx, certificateID, entity.CertificateStatusPaid)
}

func (m *LifecycleManager) advance(ctx context.Context, certificateID, next string) (*entity.Certificate, error) {
	cert, err := m.mustGetCertificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if !cert.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: transición %s → %s no permitida", domain.ErrPreconditionFailed, cert.Status, next)
	}
	if err := m.certRepo.UpdateStatus(ctx, certificateID, next); err != nil {
		return nil, fmt.Errorf("%w: actualizar estado: %v", domain.ErrUnavailable, err)
	}
	cert.Status = next
	return cert, nil
}

// Delete elimina un borrador con sus líneas. Los borradores nunca escribieron
// en el registro presupuestal, así que no hay nada que compensar allí.
func (m *LifecycleManager) Delete(ctx context.Context, certificateID string) error {
	cert, err := m.mustGetCertificate(ctx, certificateID)
	if err != nil {
		return err
	}
	if !cert.IsDraft() {
		return fmt.Errorf("%w: solo se elimina un auto en borrador (estado actual: %s)", domain.ErrPreconditionFailed, cert.Status)
	}
	if err := m.certRepo.Delete(ctx, certificateID); err != nil {
		return fmt.Errorf("%w: eliminar auto: %v", domain.ErrUnavailable, err)
	}
	return nil
}

// Get devuelve un auto con sus líneas.
func (m *LifecycleManager) Get(ctx context.Context, certificateID string) (*entity.Certificate, []*entity.CertificateLineEntry, error) {
	cert, err := m.mustGetCertificate(ctx, certificateID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := m.certRepo.GetLineEntries(ctx, certificateID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: leer líneas: %v", domain.ErrUnavailable, err)
	}
	return cert, entries, nil
}

// List devuelve los autos de la obra ordenados por consecutivo.
func (m *LifecycleManager) List(ctx context.Context, obraID string) ([]*entity.Certificate, error) {
	if _, err := m.mustGetObra(ctx, obraID); err != nil {
		return nil, err
	}
	certs, err := m.certRepo.ListByObra(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%w: listar autos: %v", domain.ErrUnavailable, err)
	}
	return certs, nil
}

// EditDraft recarga un auto en borrador como Draft editable, resolviendo de
// nuevo los porcentajes previos (el consecutivo ya asignado se conserva y el
// auto en edición no se ve a sí mismo como historia).
func (m *LifecycleManager) EditDraft(ctx context.Context, certificateID string) (*Draft, error) {
	cert, entries, err := m.Get(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if !cert.IsDraft() {
		return nil, fmt.Errorf("%w: el auto %d ya fue emitido", domain.ErrPreconditionFailed, cert.Number)
	}

	lines, err := m.budgetRepo.ListEligible(ctx, cert.ObraID)
	if err != nil {
		return nil, fmt.Errorf("%w: registro presupuestal: %v", domain.ErrUnavailable, err)
	}
	certs, err := m.certRepo.ListByObra(ctx, cert.ObraID)
	if err != nil {
		return nil, fmt.Errorf("%w: listar autos: %v", domain.ErrUnavailable, err)
	}
	lineIDs := make([]string, len(lines))
	for i, l := range lines {
		lineIDs[i] = l.ID
	}
	previous, err := m.resolver.PreviousPercentages(ctx, certs, cert.Number, lineIDs)
	if err != nil {
		return nil, err
	}
	currentByLine := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		currentByLine[e.LineItemID] = e.CurrentPct
	}

	draft := &Draft{
		ID:        cert.ID,
		ObraID:    cert.ObraID,
		Number:    cert.Number,
		Period:    cert.Period,
		Final:     cert.Final,
		Notes:     cert.Notes,
		UpdatedAt: cert.UpdatedAt,
		Lines:     make([]DraftLine, 0, len(lines)),
	}
	for _, l := range lines {
		prev := previous[l.ID]
		curr := prev
		if c, ok := currentByLine[l.ID]; ok {
			curr = clampPct(c, prev)
		}
		draft.Lines = append(draft.Lines, DraftLine{
			LineItemID:  l.ID,
			Code:        l.Code,
			Chapter:     l.Chapter,
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			PreviousPct: prev,
			CurrentPct:  curr,
		})
	}
	return draft, nil
}

// validateLines verifica los invariantes de porcentaje antes de tocar el
// motor o la persistencia.
func (m *LifecycleManager) validateLines(lines []DraftLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: el auto no tiene partidas", domain.ErrValidation)
	}
	for _, l := range lines {
		if l.PreviousPct.IsNegative() || l.PreviousPct.GreaterThan(pctHundred) {
			return fmt.Errorf("%w: porcentaje previo fuera de [0,100] en partida %s", domain.ErrValidation, l.Code)
		}
		if l.CurrentPct.GreaterThan(pctHundred) {
			return fmt.Errorf("%w: porcentaje actual mayor que 100 en partida %s", domain.ErrValidation, l.Code)
		}
		if l.CurrentPct.LessThan(l.PreviousPct) {
			return fmt.Errorf("%w: el porcentaje actual (%s) no puede retroceder del previo (%s) en partida %s",
				domain.ErrValidation, l.CurrentPct, l.PreviousPct, l.Code)
		}
	}
	return nil
}

func (m *LifecycleManager) mustGetObra(ctx context.Context, obraID string) (*entity.Obra, error) {
	if obraID == "" {
		return nil, fmt.Errorf("%w: obra requerida", domain.ErrValidation)
	}
	obra, err := m.obraRepo.GetByID(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%w: leer obra: %v", domain.ErrUnavailable, err)
	}
	if obra == nil {
		return nil, fmt.Errorf("%w: obra %s", domain.ErrNotFound, obraID)
	}
	return obra, nil
}

func (m *LifecycleManager) mustGetCertificate(ctx context.Context, id string) (*entity.Certificate, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id de auto requerido", domain.ErrValidation)
	}
	cert, err := m.certRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: leer auto: %v", domain.ErrUnavailable, err)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: auto %s", domain.ErrNotFound, id)
	}
	return cert, nil
}

// clampPct recorta pct al rango [previo, 100].
func clampPct(pct, previous decimal.Decimal) decimal.Decimal {
	if pct.LessThan(previous) {
		return previous
	}
	if pct.GreaterThan(pctHundred) {
		return pctHundred
	}
	return pct
}

func toEngineInput(lines []DraftLine) []valuation.LineInput {
	in := make([]valuation.LineInput, len(lines))
	for i, l := range lines {
		in[i] = valuation.LineInput{
			LineItemID:  l.LineItemID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			PreviousPct: l.PreviousPct,
			CurrentPct:  l.CurrentPct,
		}
	}
	return in
}

// validatePeriod exige el mes de referencia en formato "2006-01".
func validatePeriod(period string) error {
	if period == "" {
		return fmt.Errorf("%w: período requerido", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01", period); err != nil {
		return fmt.Errorf("%w: período %q inválido (formato 2006-01)", domain.ErrValidation, period)
	}
	return nil
}
