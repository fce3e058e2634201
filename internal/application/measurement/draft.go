package measurement

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftLine es una partida dentro de un borrador editable. Arrastra los datos
// contratados de la partida (para recálculo en vivo sin reconsultar el
// registro) más el porcentaje previo resuelto y el actual en edición.
type DraftLine struct {
	LineItemID  string          `json:"line_item_id"`
	Code        string          `json:"code"`
	Chapter     string          `json:"chapter"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PreviousPct decimal.Decimal `json:"previous_pct"`
	CurrentPct  decimal.Decimal `json:"current_pct"`
}

// Draft es un auto de medición en edición. CreateDraft lo devuelve con el
// consecutivo ya resuelto pero sin persistir; solo Save lo materializa.
type Draft struct {
	ID     string `json:"id"`
	ObraID string `json:"obra_id"`
	Number int    `json:"number"`
	Period string `json:"period"` // mes "2006-01"
	Final  bool   `json:"final"`
	Notes  string `json:"notes"`
	// UpdatedAt es el token de concurrencia optimista del guardado: cero si el
	// borrador nunca se persistió, el valor leído de DB si se está reeditando.
	UpdatedAt time.Time   `json:"updated_at"`
	Lines     []DraftLine `json:"lines"`
}
