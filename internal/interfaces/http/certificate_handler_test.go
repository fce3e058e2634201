package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/obra-pro/internal/application/dto"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/application/usecase"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
	"github.com/tu-usuario/obra-pro/internal/infrastructure/export"
	apihttp "github.com/tu-usuario/obra-pro/internal/interfaces/http"
)

// Fakes mínimos de los puertos, suficientes para recorrer el flujo completo
// por la API: borrador → masivo → emitir → aprobar → pagar → exportar.

type memCertRepo struct {
	certs   map[string]*entity.Certificate
	entries map[string][]*entity.CertificateLineEntry
}

func (m *memCertRepo) ListByObra(_ context.Context, obraID string) ([]*entity.Certificate, error) {
	var list []*entity.Certificate
	for _, c := range m.certs {
		if c.ObraID == obraID {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (m *memCertRepo) GetByID(_ context.Context, id string) (*entity.Certificate, error) {
	c, ok := m.certs[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *memCertRepo) Insert(_ context.Context, cert *entity.Certificate) error {
	for _, c := range m.certs {
		if c.ObraID == cert.ObraID && c.Number == cert.Number {
			return fmt.Errorf("%w: consecutivo ocupado", domain.ErrConflict)
		}
	}
	cert.UpdatedAt = time.Now()
	copied := *cert
	m.certs[cert.ID] = &copied
	return nil
}

func (m *memCertRepo) Update(_ context.Context, cert *entity.Certificate) error {
	current, ok := m.certs[cert.ID]
	if !ok {
		return fmt.Errorf("%w: auto %s", domain.ErrNotFound, cert.ID)
	}
	if !current.UpdatedAt.Equal(cert.UpdatedAt) {
		return fmt.Errorf("%w: token desfasado", domain.ErrConflict)
	}
	cert.UpdatedAt = time.Now()
	copied := *cert
	m.certs[cert.ID] = &copied
	return nil
}

func (m *memCertRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.certs[id].Status = status
	return nil
}

func (m *memCertRepo) Delete(_ context.Context, id string) error {
	delete(m.certs, id)
	delete(m.entries, id)
	return nil
}

func (m *memCertRepo) GetLineEntries(_ context.Context, certificateID string) ([]*entity.CertificateLineEntry, error) {
	return m.entries[certificateID], nil
}

func (m *memCertRepo) ReplaceLineEntries(_ context.Context, certificateID string, entries []*entity.CertificateLineEntry) error {
	m.entries[certificateID] = entries
	return nil
}

type memBudgetRepo struct {
	lines map[string]*entity.BudgetLineItem
}

func (m *memBudgetRepo) ListEligible(_ context.Context, obraID string) ([]*entity.BudgetLineItem, error) {
	var list []*entity.BudgetLineItem
	for _, l := range m.lines {
		if l.ObraID == obraID && l.IsBillable() {
			list = append(list, l)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (m *memBudgetRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.BudgetLineItem, error) {
	var list []*entity.BudgetLineItem
	for _, id := range ids {
		if l, ok := m.lines[id]; ok {
			list = append(list, l)
		}
	}
	return list, nil
}

func (m *memBudgetRepo) WriteBackProgress(_ context.Context, obraID string, updates []repository.ProgressUpdate) error {
	for _, u := range updates {
		if l, ok := m.lines[u.LineItemID]; ok && l.ObraID == obraID {
			l.ExecutedPct = u.ExecutedPct
			l.ExecutedQty = u.ExecutedQty
		}
	}
	return nil
}

type memObraRepo struct {
	obras map[string]*entity.Obra
}

func (m *memObraRepo) Create(_ context.Context, obra *entity.Obra) error {
	m.obras[obra.ID] = obra
	return nil
}

func (m *memObraRepo) GetByID(_ context.Context, id string) (*entity.Obra, error) {
	o, ok := m.obras[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (m *memObraRepo) List(_ context.Context) ([]*entity.Obra, error) {
	var list []*entity.Obra
	for _, o := range m.obras {
		list = append(list, o)
	}
	return list, nil
}

type memTxRunner struct {
	certRepo   *memCertRepo
	budgetRepo *memBudgetRepo
}

func (m *memTxRunner) Run(ctx context.Context, fn func(
	certRepo repository.CertificateRepository,
	budgetRepo repository.BudgetLineItemRepository,
) error) error {
	return fn(m.certRepo, m.budgetRepo)
}

func mustDec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestApp() *fiber.App {
	certRepo := &memCertRepo{
		certs:   make(map[string]*entity.Certificate),
		entries: make(map[string][]*entity.CertificateLineEntry),
	}
	budgetRepo := &memBudgetRepo{lines: map[string]*entity.BudgetLineItem{
		"l1": {
			ID: "l1", ObraID: "obra-1", Chapter: "C01", Code: "01.001",
			Description: "Solado de gres", Unit: "m2",
			Quantity: mustDec("100"), UnitPrice: mustDec("10"), Active: true,
		},
	}}
	obraRepo := &memObraRepo{obras: map[string]*entity.Obra{
		"obra-1": {ID: "obra-1", Code: "OB-2026-014", Name: "Edificio Lusitania", Status: entity.ObraStatusActive},
	}}

	lifecycle := measurement.NewLifecycleManager(
		&memTxRunner{certRepo: certRepo, budgetRepo: budgetRepo},
		certRepo, budgetRepo, obraRepo,
		measurement.Defaults{AdvanceRecoveryRate: decimal.Zero, RetentionRate: mustDec("5")},
	)
	exporter := measurement.NewExporter(certRepo, budgetRepo, obraRepo, map[string]measurement.Renderer{
		measurement.FormatCSV: export.NewCSVRenderer(),
	})

	app := fiber.New()
	apihttp.Router(app, apihttp.RouterDeps{
		ObraUC:    usecase.NewObraUseCase(obraRepo, budgetRepo),
		Lifecycle: lifecycle,
		Exporter:  exporter,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestAPI_FlujoCompleto(t *testing.T) {
	app := newTestApp()

	// Borrador
	status, body := doJSON(t, app, "POST", "/api/obras/obra-1/certificates/draft", dto.CreateDraftRequest{Period: "2026-08"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var draft measurement.Draft
	require.NoError(t, json.Unmarshal(body, &draft))
	assert.Equal(t, 1, draft.Number)
	require.Len(t, draft.Lines, 1)

	// Porcentaje masivo del capítulo
	status, body = doJSON(t, app, "POST", "/api/certificates/bulk-percentage", dto.BulkPercentageRequest{
		Draft: draft, Chapter: "C01", Percentage: mustDec("30"),
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var bulk dto.BulkPercentageResponse
	require.NoError(t, json.Unmarshal(body, &bulk))
	assert.True(t, mustDec("300").Equal(bulk.Summary.PeriodValue))
	assert.True(t, mustDec("15").Equal(bulk.Summary.Retention))
	assert.True(t, mustDec("285").Equal(bulk.Summary.AmountToInvoice))

	// Emitir
	status, body = doJSON(t, app, "POST", "/api/obras/obra-1/certificates", dto.SaveCertificateRequest{
		Draft: bulk.Draft, TargetStatus: entity.CertificateStatusIssued,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var cert dto.CertificateResponse
	require.NoError(t, json.Unmarshal(body, &cert))
	assert.Equal(t, entity.CertificateStatusIssued, cert.Status)

	// Aprobar y pagar
	status, body = doJSON(t, app, "POST", "/api/certificates/"+cert.ID+"/approve", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	status, body = doJSON(t, app, "POST", "/api/certificates/"+cert.ID+"/pay", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))

	// Pagado es terminal
	status, _ = doJSON(t, app, "POST", "/api/certificates/"+cert.ID+"/approve", nil)
	assert.Equal(t, fiber.StatusPreconditionFailed, status)

	// Un auto emitido no se elimina
	status, _ = doJSON(t, app, "DELETE", "/api/certificates/"+cert.ID, nil)
	assert.Equal(t, fiber.StatusPreconditionFailed, status)

	// Exportar CSV
	req := httptest.NewRequest("GET", "/api/certificates/"+cert.ID+"/export?format=csv", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".csv")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "importe_a_facturar,285.00")
}

func TestAPI_ObraInexistente(t *testing.T) {
	app := newTestApp()

	status, body := doJSON(t, app, "POST", "/api/obras/no-existe/certificates/draft", dto.CreateDraftRequest{Period: "2026-08"})
	assert.Equal(t, fiber.StatusNotFound, status)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestAPI_GuardarEnObraAjena(t *testing.T) {
	app := newTestApp()

	status, body := doJSON(t, app, "POST", "/api/obras/obra-1/certificates/draft", dto.CreateDraftRequest{Period: "2026-08"})
	require.Equal(t, fiber.StatusCreated, status)
	var draft measurement.Draft
	require.NoError(t, json.Unmarshal(body, &draft))

	status, body = doJSON(t, app, "POST", "/api/obras/otra-obra/certificates", dto.SaveCertificateRequest{Draft: draft})
	assert.Equal(t, fiber.StatusBadRequest, status)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestAPI_FormatoDeExportacionInvalido(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/api/certificates/cualquiera/export?format=xlsx", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
