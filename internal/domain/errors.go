package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Las capas superiores los comparan con errors.Is; nunca se devuelve una excepción cruda del store.
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrCapacityExceeded  = errors.New("capacidad del vehículo excedida")
	ErrAlreadyAssigned   = errors.New("la bodega ya está asignada a otro vehículo")
	ErrStoreUnavailable  = errors.New("almacenamiento no disponible")
	ErrForbidden         = errors.New("acceso denegado")
	ErrCorruptData       = errors.New("dato persistido inválido")
)

// InsufficientStockError detalla qué bodega y material no alcanzaron la cantidad pedida.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	WarehouseID string
	MaterialID  string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: bodega %s material %s (disponible %d, solicitado %d)",
		ErrInsufficientStock, e.WarehouseID, e.MaterialID, e.Available, e.Requested)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Validation envuelve ErrValidation con un detalle legible.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound envuelve ErrNotFound indicando la colección y el id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Corrupt envuelve ErrCorruptData: el documento existe pero no se puede decodificar.
// No es una falla de transporte; reintentar no lo arregla.
func Corrupt(kind, id string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrCorruptData, kind, id, err)
}

// IsKnown indica si err pertenece a la taxonomía de dominio.
// El adaptador de store usa esto para decidir si debe envolverlo como ErrStoreUnavailable.
func IsKnown(err error) bool {
	for _, k := range []error{
		ErrValidation, ErrNotFound, ErrInvalidTransition, ErrInsufficientStock,
		ErrCapacityExceeded, ErrAlreadyAssigned, ErrStoreUnavailable, ErrForbidden, ErrCorruptData,
	} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Unavailable envuelve un fallo de transporte del store como ErrStoreUnavailable.
// Los errores de dominio se devuelven tal cual.
func Unavailable(op string, err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
