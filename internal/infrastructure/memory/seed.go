package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// Seed catálogo inicial para el driver en memoria (productos y sucursales no tienen dueño aquí).
type Seed struct {
	Branches []struct {
		ID        string `json:"id"`
		CompanyID string `json:"company_id"`
		Name      string `json:"name"`
	} `json:"branches"`
	Products []struct {
		ID                string          `json:"id"`
		CompanyID         string          `json:"company_id"`
		SKU               string          `json:"sku"`
		Name              string          `json:"name"`
		RetailPrice       decimal.Decimal `json:"retail_price"`
		Cost              decimal.Decimal `json:"cost"`
		LowStockThreshold int64           `json:"low_stock_threshold"`
		TrackInventory    *bool           `json:"track_inventory"`
		IsActive          *bool           `json:"is_active"`
	} `json:"products"`
}

// LoadSeedFile lee un archivo JSON con el catálogo y lo registra en el almacén.
// track_inventory e is_active valen true si se omiten.
func (s *Store) LoadSeedFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("leer seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	for _, b := range seed.Branches {
		s.AddBranch(entity.Branch{ID: b.ID, CompanyID: b.CompanyID, Name: b.Name, IsActive: true})
	}
	for _, p := range seed.Products {
		s.AddProduct(entity.Product{
			ID:                p.ID,
			CompanyID:         p.CompanyID,
			SKU:               p.SKU,
			Name:              p.Name,
			RetailPrice:       p.RetailPrice,
			Cost:              p.Cost,
			LowStockThreshold: p.LowStockThreshold,
			TrackInventory:    p.TrackInventory == nil || *p.TrackInventory,
			IsActive:          p.IsActive == nil || *p.IsActive,
		})
	}
	return nil
}
