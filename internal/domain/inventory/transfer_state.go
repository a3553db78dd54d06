package inventory

import "github.com/jhoicas/Inventario-ledger/internal/domain/entity"

// orden lineal de los estados no terminales.
var transferRank = map[entity.TransferStatus]int{
	entity.TransferDraft:     0,
	entity.TransferPending:   1,
	entity.TransferInTransit: 2,
	entity.TransferCompleted: 3,
}

// ValidInitialStatus indica si el estado es aceptable al crear un traslado.
func ValidInitialStatus(s entity.TransferStatus) bool {
	_, ok := transferRank[s]
	return ok
}

// CanTransition aplica la máquina de estados del traslado:
// draft → pending → in_transit → completed (solo hacia adelante) y cancelled desde cualquier estado no terminal.
func CanTransition(from, to entity.TransferStatus) bool {
	if from == entity.TransferCompleted || from == entity.TransferCancelled {
		return false
	}
	if to == entity.TransferCancelled {
		return true
	}
	fr, ok1 := transferRank[from]
	tr, ok2 := transferRank[to]
	return ok1 && ok2 && tr > fr
}

// CanComplete indica si el traslado puede recibirse en destino.
func CanComplete(s entity.TransferStatus) bool {
	return s == entity.TransferPending || s == entity.TransferInTransit
}
