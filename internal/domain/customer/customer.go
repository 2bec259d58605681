package customer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a display snapshot of a back-office customer. The cart holds it
// by reference only; customer lifecycle is owned by the back office.
type Customer struct {
	ID            string
	Code          string
	Name          string
	Phone         string
	CreditLimit   decimal.Decimal
	CreditBalance decimal.Decimal
	CreditDays    int
}

// AvailableCredit returns the remaining credit the customer can charge.
func (c Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CreditBalance)
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository defines read operations for customers.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
}
