package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrProductNotTracked: el producto tiene el control de inventario desactivado.
	ErrProductNotTracked = errors.New("el producto no lleva control de inventario")
	// ErrStoreUnavailable: fallo transitorio del almacenamiento; reintentable sin efectos parciales.
	ErrStoreUnavailable = errors.New("almacenamiento no disponible")
	// ErrWriteConflict: colisión de concurrencia optimista (serialización o deadlock). Se reintenta internamente.
	ErrWriteConflict = errors.New("conflicto de escritura concurrente")
	// ErrOpeningStockExists: se intentó registrar stock inicial sobre una línea con cantidad distinta de cero.
	ErrOpeningStockExists = errors.New("la línea de stock ya tiene cantidad; el stock inicial exige cantidad previa 0")
	// ErrInvalidTransition: transición de estado no permitida en el traslado.
	ErrInvalidTransition = errors.New("transición de estado de traslado inválida")
	// ErrTransferIncomplete: el traslado tiene ítems sin descontar en la sucursal origen.
	ErrTransferIncomplete = errors.New("el traslado tiene ítems sin descontar en origen")
)
