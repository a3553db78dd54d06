package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// ProductRepository puerto de lectura del catálogo (servicio externo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Product, error)
}
