package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/agripos/pos-terminal/internal/domain/customer"
)

var _ customer.Repository = (*Customers)(nil)

// Customers is the customer view of the back-office API.
type Customers struct {
	c *Client
}

// Customers returns the client's customer repository.
func (c *Client) Customers() *Customers {
	return &Customers{c: c}
}

// List fetches a page of customers.
func (r *Customers) List(ctx context.Context, filter customer.ListFilter) ([]customer.Customer, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	data, err := r.c.call(ctx, http.MethodGet, "/customers", q, nil, nil)
	if err != nil {
		return nil, err
	}

	var out []customer.Customer
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		cu, err := decodeCustomer(d)
		if err != nil {
			return err
		}
		out = append(out, cu)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode customers")
	}
	return out, nil
}

// GetByID fetches one customer snapshot.
func (r *Customers) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	data, err := r.c.call(ctx, http.MethodGet, "/customers/"+url.PathEscape(id), nil, nil, nil)
	if err != nil {
		return nil, mapNotFound(err, customer.ErrNotFound)
	}
	d := jx.DecodeBytes(data)
	cu, err := decodeCustomer(d)
	if err != nil {
		return nil, errors.Wrap(err, "decode customer")
	}
	return &cu, nil
}

func decodeCustomer(d *jx.Decoder) (customer.Customer, error) {
	var cu customer.Customer
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			cu.ID, err = decodeString(d)
		case "code":
			cu.Code, err = decodeString(d)
		case "name":
			cu.Name, err = decodeString(d)
		case "phone":
			cu.Phone, err = decodeString(d)
		case "credit_limit":
			cu.CreditLimit, err = decodeDecimal(d)
		case "credit_balance":
			cu.CreditBalance, err = decodeDecimal(d)
		case "credit_days":
			cu.CreditDays, err = decodeInt(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return cu, err
}
