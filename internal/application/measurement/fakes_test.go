package measurement_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia. Reproducen los contratos
// que el adaptador PostgreSQL implementa con constraints: consecutivo único
// por obra (ErrConflict) y compare-and-set sobre UpdatedAt.
// ──────────────────────────────────────────────────────────────────────────────

type fakeCertRepo struct {
	certs   map[string]*entity.Certificate
	entries map[string][]*entity.CertificateLineEntry
	failAll error // si no es nil, toda operación falla (registro caído)
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{
		certs:   make(map[string]*entity.Certificate),
		entries: make(map[string][]*entity.CertificateLineEntry),
	}
}

func (f *fakeCertRepo) ListByObra(_ context.Context, obraID string) ([]*entity.Certificate, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var list []*entity.Certificate
	for _, c := range f.certs {
		if c.ObraID == obraID {
			copied := *c
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (f *fakeCertRepo) GetByID(_ context.Context, id string) (*entity.Certificate, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	c, ok := f.certs[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCertRepo) Insert(_ context.Context, cert *entity.Certificate) error {
	if f.failAll != nil {
		return f.failAll
	}
	for _, c := range f.certs {
		if c.ObraID == cert.ObraID && c.Number == cert.Number {
			return fmt.Errorf("%w: consecutivo %d ya asignado en la obra", domain.ErrConflict, cert.Number)
		}
	}
	cert.UpdatedAt = time.Now()
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = cert.UpdatedAt
	}
	copied := *cert
	f.certs[cert.ID] = &copied
	return nil
}

func (f *fakeCertRepo) Update(_ context.Context, cert *entity.Certificate) error {
	if f.failAll != nil {
		return f.failAll
	}
	current, ok := f.certs[cert.ID]
	if !ok {
		return fmt.Errorf("%w: auto %s", domain.ErrNotFound, cert.ID)
	}
	if !current.UpdatedAt.Equal(cert.UpdatedAt) {
		return fmt.Errorf("%w: el auto fue modificado por otro usuario", domain.ErrConflict)
	}
	cert.UpdatedAt = time.Now()
	copied := *cert
	f.certs[cert.ID] = &copied
	return nil
}

func (f *fakeCertRepo) UpdateStatus(_ context.Context, id, status string) error {
	if f.failAll != nil {
		return f.failAll
	}
	c, ok := f.certs[id]
	if !ok {
		return fmt.Errorf("%w: auto %s", domain.ErrNotFound, id)
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

func (f *fakeCertRepo) Delete(_ context.Context, id string) error {
	if f.failAll != nil {
		return f.failAll
	}
	delete(f.certs, id)
	delete(f.entries, id)
	return nil
}

func (f *fakeCertRepo) GetLineEntries(_ context.Context, certificateID string) ([]*entity.CertificateLineEntry, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	list := make([]*entity.CertificateLineEntry, 0, len(f.entries[certificateID]))
	for _, e := range f.entries[certificateID] {
		copied := *e
		list = append(list, &copied)
	}
	return list, nil
}

func (f *fakeCertRepo) ReplaceLineEntries(_ context.Context, certificateID string, entries []*entity.CertificateLineEntry) error {
	if f.failAll != nil {
		return f.failAll
	}
	replaced := make([]*entity.CertificateLineEntry, 0, len(entries))
	for _, e := range entries {
		copied := *e
		replaced = append(replaced, &copied)
	}
	f.entries[certificateID] = replaced
	return nil
}

type fakeBudgetRepo struct {
	lines      map[string]*entity.BudgetLineItem
	writeBacks []repository.ProgressUpdate
	failAll    error
}

func newFakeBudgetRepo(lines ...*entity.BudgetLineItem) *fakeBudgetRepo {
	f := &fakeBudgetRepo{lines: make(map[string]*entity.BudgetLineItem)}
	for _, l := range lines {
		f.lines[l.ID] = l
	}
	return f
}

func (f *fakeBudgetRepo) ListEligible(_ context.Context, obraID string) ([]*entity.BudgetLineItem, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var list []*entity.BudgetLineItem
	for _, l := range f.lines {
		if l.ObraID == obraID && l.IsBillable() {
			copied := *l
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (f *fakeBudgetRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.BudgetLineItem, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var list []*entity.BudgetLineItem
	for _, id := range ids {
		if l, ok := f.lines[id]; ok {
			copied := *l
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (f *fakeBudgetRepo) WriteBackProgress(_ context.Context, obraID string, updates []repository.ProgressUpdate) error {
	if f.failAll != nil {
		return f.failAll
	}
	f.writeBacks = append(f.writeBacks, updates...)
	for _, u := range updates {
		if l, ok := f.lines[u.LineItemID]; ok && l.ObraID == obraID {
			l.ExecutedPct = u.ExecutedPct
			l.ExecutedQty = u.ExecutedQty
		}
	}
	return nil
}

type fakeObraRepo struct {
	obras map[string]*entity.Obra
}

func newFakeObraRepo(obras ...*entity.Obra) *fakeObraRepo {
	f := &fakeObraRepo{obras: make(map[string]*entity.Obra)}
	for _, o := range obras {
		f.obras[o.ID] = o
	}
	return f
}

func (f *fakeObraRepo) Create(_ context.Context, obra *entity.Obra) error {
	f.obras[obra.ID] = obra
	return nil
}

func (f *fakeObraRepo) GetByID(_ context.Context, id string) (*entity.Obra, error) {
	o, ok := f.obras[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (f *fakeObraRepo) List(_ context.Context) ([]*entity.Obra, error) {
	var list []*entity.Obra
	for _, o := range f.obras {
		list = append(list, o)
	}
	return list, nil
}

// fakeTxRunner ejecuta el callback directamente contra los fakes: sirve para
// verificar el contrato de orquestación, no la atomicidad real (esa la da
// PostgreSQL en el adaptador).
type fakeTxRunner struct {
	certRepo   *fakeCertRepo
	budgetRepo *fakeBudgetRepo
}

func (f *fakeTxRunner) Run(ctx context.Context, fn func(
	certRepo repository.CertificateRepository,
	budgetRepo repository.BudgetLineItemRepository,
) error) error {
	return fn(f.certRepo, f.budgetRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructores de datos de prueba
// ──────────────────────────────────────────────────────────────────────────────

const testObraID = "obra-1"

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testObra() *entity.Obra {
	return &entity.Obra{
		ID:     testObraID,
		Code:   "OB-2026-014",
		Name:   "Edificio Lusitania",
		Status: entity.ObraStatusActive,
	}
}

func testLine(id, chapter, code string, qty, price string) *entity.BudgetLineItem {
	return &entity.BudgetLineItem{
		ID:          id,
		ObraID:      testObraID,
		Chapter:     chapter,
		Code:        code,
		Description: "Partida " + code,
		Unit:        "m2",
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
		Active:      true,
	}
}

func newManager(certRepo *fakeCertRepo, budgetRepo *fakeBudgetRepo, obraRepo *fakeObraRepo) *measurement.LifecycleManager {
	return measurement.NewLifecycleManager(
		&fakeTxRunner{certRepo: certRepo, budgetRepo: budgetRepo},
		certRepo, budgetRepo, obraRepo,
		measurement.Defaults{AdvanceRecoveryRate: decimal.Zero, RetentionRate: dec("5")},
	)
}
