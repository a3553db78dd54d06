package entity

// Branch sucursal del directorio de sucursales (solo lectura).
type Branch struct {
	ID        string
	CompanyID string
	Name      string
	IsActive  bool
}
