package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El handler HTTP los mapea a códigos de estado; los casos de uso los envuelven
// con fmt.Errorf("...: %w", err) para conservar el contexto.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrValidation         = errors.New("entrada inválida")
	ErrPreconditionFailed = errors.New("el estado del documento no permite la operación")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrUnavailable        = errors.New("servicio no disponible")
)
