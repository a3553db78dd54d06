package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.BranchRepository  = (*BranchRepo)(nil)
)

// ProductRepo lectura del catálogo cargado con Store.AddProduct.
type ProductRepo struct {
	s *Store
}

// NewProductRepository construye el repositorio de productos.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

// GetByID obtiene un producto (nil si no existe).
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.products[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

// ListByCompany lista los productos de la empresa por nombre.
func (r *ProductRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Product, error) {
	r.s.mu.RLock()
	var list []*entity.Product
	for _, p := range r.s.products {
		if p.CompanyID == companyID {
			c := *p
			list = append(list, &c)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// BranchRepo lectura de sucursales cargadas con Store.AddBranch.
type BranchRepo struct {
	s *Store
}

// NewBranchRepository construye el repositorio de sucursales.
func NewBranchRepository(s *Store) *BranchRepo {
	return &BranchRepo{s: s}
}

// GetByID obtiene una sucursal (nil si no existe).
func (r *BranchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.branches[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}
