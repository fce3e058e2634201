package export

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
)

// Ensure XMLRenderer implements measurement.Renderer.
var _ measurement.Renderer = (*XMLRenderer)(nil)

// XMLRenderer exporta el documento tabular como XML para integraciones de
// facturación externas.
type XMLRenderer struct{}

// NewXMLRenderer construye el renderer.
func NewXMLRenderer() *XMLRenderer { return &XMLRenderer{} }

// ContentType devuelve el MIME type del XML.
func (r *XMLRenderer) ContentType() string { return "application/xml" }

// Render serializa el documento:
//
//	<AutoMedicion numero="2" periodo="2026-08" estado="issued" final="false">
//	  <Obra codigo="OB-2026-014" nombre="..."/>
//	  <Lineas>
//	    <Linea referencia=".." capitulo=".." ... importePeriodo=".."/>
//	  </Lineas>
//	  <Resumen acumuladoAnterior=".." ... importeAFacturar=".."/>
//	</AutoMedicion>
func (r *XMLRenderer) Render(doc *measurement.TabularDocument) ([]byte, error) {
	c := doc.Certificate
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := d.CreateElement("AutoMedicion")
	root.CreateAttr("numero", strconv.Itoa(c.Number))
	root.CreateAttr("periodo", c.Period)
	root.CreateAttr("estado", c.Status)
	root.CreateAttr("final", strconv.FormatBool(c.Final))

	obra := root.CreateElement("Obra")
	obra.CreateAttr("codigo", doc.Obra.Code)
	obra.CreateAttr("nombre", doc.Obra.Name)

	lines := root.CreateElement("Lineas")
	for _, row := range doc.Rows {
		l := lines.CreateElement("Linea")
		l.CreateAttr("referencia", row.Code)
		l.CreateAttr("capitulo", row.Chapter)
		l.CreateAttr("descripcion", row.Description)
		l.CreateAttr("unidad", row.Unit)
		l.CreateAttr("cantidad", row.Quantity.StringFixed(2))
		l.CreateAttr("precioUnitario", row.UnitPrice.StringFixed(2))
		l.CreateAttr("importePartida", row.LineTotal.StringFixed(2))
		l.CreateAttr("pctAnterior", row.PreviousPct.StringFixed(2))
		l.CreateAttr("pctActual", row.CurrentPct.StringFixed(2))
		l.CreateAttr("cantidadMedida", row.MeasuredQty.StringFixed(2))
		l.CreateAttr("importePeriodo", row.PeriodValue.StringFixed(2))
	}

	sum := root.CreateElement("Resumen")
	sum.CreateAttr("acumuladoAnterior", c.PreviousAccumulated.StringFixed(2))
	sum.CreateAttr("acumuladoActual", c.CurrentAccumulated.StringFixed(2))
	sum.CreateAttr("importePeriodo", c.PeriodValue.StringFixed(2))
	sum.CreateAttr("deduccionAnticipo", c.AdvanceDeduction.StringFixed(2))
	sum.CreateAttr("retencion", c.Retention.StringFixed(2))
	sum.CreateAttr("importeAFacturar", c.AmountToInvoice.StringFixed(2))

	d.Indent(2)
	return d.WriteToBytes()
}
