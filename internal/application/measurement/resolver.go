package measurement

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

// Resolver calcula el siguiente consecutivo de auto y el porcentaje previo de
// cada partida. Es de solo lectura: nunca fabrica ni persiste un auto.
type Resolver struct {
	certRepo repository.CertificateRepository
}

// NewResolver construye el resolver.
func NewResolver(certRepo repository.CertificateRepository) *Resolver {
	return &Resolver{certRepo: certRepo}
}

// NextNumber devuelve max(consecutivos)+1, o 1 si la obra no tiene autos.
func NextNumber(certs []*entity.Certificate) int {
	max := 0
	for _, c := range certs {
		if c.Number > max {
			max = c.Number
		}
	}
	return max + 1
}

// PreviousPercentages resuelve, para cada partida, el porcentaje actual
// registrado en el auto no-borrador de mayor consecutivo estrictamente menor
// que targetNumber; 0 si ninguno califica.
//
// El "estrictamente menor" importa al reeditar un borrador existente: el auto
// en edición nunca debe verse a sí mismo como historia. Los borradores se
// descartan siempre: un porcentaje previo jamás se copia de un borrador.
// La clave de orden es el consecutivo, no la fecha.
func (r *Resolver) PreviousPercentages(ctx context.Context, certs []*entity.Certificate, targetNumber int, lineIDs []string) (map[string]decimal.Decimal, error) {
	history := make([]*entity.Certificate, 0, len(certs))
	for _, c := range certs {
		if !c.IsDraft() && c.Number < targetNumber {
			history = append(history, c)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Number > history[j].Number })

	result := make(map[string]decimal.Decimal, len(lineIDs))
	for _, id := range lineIDs {
		result[id] = decimal.Zero
	}
	pending := len(lineIDs)

	for _, cert := range history {
		if pending == 0 {
			break
		}
		entries, err := r.certRepo.GetLineEntries(ctx, cert.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: leer líneas del auto %d: %v", domain.ErrUnavailable, cert.Number, err)
		}
		byLine := make(map[string]*entity.CertificateLineEntry, len(entries))
		for _, e := range entries {
			byLine[e.LineItemID] = e
		}
		for _, id := range lineIDs {
			if !result[id].IsZero() {
				continue
			}
			if e, ok := byLine[id]; ok && !e.CurrentPct.IsZero() {
				result[id] = e.CurrentPct
				pending--
			}
		}
	}
	return result, nil
}
