package measurement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
)

type stubRenderer struct {
	rendered *measurement.TabularDocument
}

func (s *stubRenderer) Render(doc *measurement.TabularDocument) ([]byte, error) {
	s.rendered = doc
	return []byte("ok"), nil
}

func (s *stubRenderer) ContentType() string { return "application/test" }

func exporterSetup() (*measurement.Exporter, *fakeCertRepo, *stubRenderer) {
	certRepo := newFakeCertRepo()
	budgetRepo := newFakeBudgetRepo(testLine("l1", "C01", "01.001", "100", "10"))
	obraRepo := newFakeObraRepo(testObra())
	stub := &stubRenderer{}
	exp := measurement.NewExporter(certRepo, budgetRepo, obraRepo, map[string]measurement.Renderer{
		"stub": stub,
	})
	return exp, certRepo, stub
}

func TestBuildDocument_SegundoAuto(t *testing.T) {
	exp, certRepo, _ := exporterSetup()
	ctx := context.Background()

	// Segundo auto de la partida 100 uds × 10: del 30% al 70%.
	certRepo.certs["c2"] = &entity.Certificate{
		ID:                  "c2",
		ObraID:              testObraID,
		Number:              2,
		Period:              "2026-02",
		Status:              entity.CertificateStatusIssued,
		PreviousAccumulated: dec("300"),
		CurrentAccumulated:  dec("700"),
		PeriodValue:         dec("400"),
		AdvanceDeduction:    dec("0"),
		Retention:           dec("20"),
		AmountToInvoice:     dec("380"),
	}
	certRepo.entries["c2"] = []*entity.CertificateLineEntry{{
		CertificateID: "c2",
		LineItemID:    "l1",
		PreviousPct:   dec("30"),
		CurrentPct:    dec("70"),
		MeasuredQty:   dec("70"),
		PreviousValue: dec("300"),
		CurrentValue:  dec("700"),
		PeriodValue:   dec("400"),
	}}

	doc, err := exp.BuildDocument(ctx, "c2")
	require.NoError(t, err)

	require.Len(t, doc.Rows, 1)
	row := doc.Rows[0]
	assert.Equal(t, "01.001", row.Code)
	assert.True(t, dec("1000").Equal(row.LineTotal))
	assert.True(t, dec("30").Equal(row.PreviousPct))
	assert.True(t, dec("70").Equal(row.CurrentPct))
	assert.True(t, dec("70").Equal(row.MeasuredQty))
	assert.True(t, dec("400").Equal(row.PeriodValue))

	assert.True(t, dec("300").Equal(doc.Certificate.PreviousAccumulated))
	assert.True(t, dec("700").Equal(doc.Certificate.CurrentAccumulated))
	assert.True(t, dec("400").Equal(doc.Certificate.PeriodValue))
	assert.True(t, dec("20").Equal(doc.Certificate.Retention))
	assert.True(t, dec("380").Equal(doc.Certificate.AmountToInvoice))
}

func TestBuildDocument_RechazaBorrador(t *testing.T) {
	exp, certRepo, _ := exporterSetup()
	seedCert(certRepo, "c1", 1, entity.CertificateStatusDraft, map[string]string{"l1": "10"})

	_, err := exp.BuildDocument(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestExport_FormatoNoSoportado(t *testing.T) {
	exp, certRepo, _ := exporterSetup()
	seedCert(certRepo, "c1", 1, entity.CertificateStatusIssued, map[string]string{"l1": "10"})

	_, _, err := exp.Export(context.Background(), "c1", "xlsx")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExport_EntregaAlRenderer(t *testing.T) {
	exp, certRepo, stub := exporterSetup()
	seedCert(certRepo, "c1", 1, entity.CertificateStatusIssued, map[string]string{"l1": "10"})

	out, contentType, err := exp.Export(context.Background(), "c1", "stub")
	require.NoError(t, err)

	assert.Equal(t, []byte("ok"), out)
	assert.Equal(t, "application/test", contentType)
	require.NotNil(t, stub.rendered)
	assert.Equal(t, 1, stub.rendered.Certificate.Number)
}

func TestExport_AutoInexistente(t *testing.T) {
	exp, _, _ := exporterSetup()
	_, _, err := exp.Export(context.Background(), "no-existe", "stub")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
