package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is an immutable catalog snapshot. The cart embeds a copy at
// add-to-cart time, so later catalog edits never affect open carts.
type Product struct {
	ID           string
	Code         string
	Barcode      string
	Name         string
	Unit         string
	SellingPrice decimal.Decimal
	TaxRate      decimal.Decimal
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// Scan resolves a scanned barcode or product QR payload to a product.
	Scan(ctx context.Context, code string) (*Product, error)
}
