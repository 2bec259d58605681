package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/agripos/pos-terminal/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is the product-catalog view of the back-office API.
type Catalog struct {
	c *Client
}

// Catalog returns the client's product repository.
func (c *Client) Catalog() *Catalog {
	return &Catalog{c: c}
}

// List fetches a page of the product catalog.
func (r *Catalog) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
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

	data, err := r.c.call(ctx, http.MethodGet, "/products", q, nil, nil)
	if err != nil {
		return nil, err
	}

	var out []product.Product
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

// GetByID fetches one product snapshot.
func (r *Catalog) GetByID(ctx context.Context, id string) (*product.Product, error) {
	data, err := r.c.call(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, nil)
	if err != nil {
		return nil, mapNotFound(err, product.ErrNotFound)
	}
	return decodeProductBytes(data)
}

// Scan resolves a scanned barcode or product QR payload.
func (r *Catalog) Scan(ctx context.Context, code string) (*product.Product, error) {
	q := url.Values{"code": []string{code}}
	data, err := r.c.call(ctx, http.MethodGet, "/products/scan", q, nil, nil)
	if err != nil {
		return nil, mapNotFound(err, product.ErrNotFound)
	}
	return decodeProductBytes(data)
}

func decodeProductBytes(data []byte) (*product.Product, error) {
	d := jx.DecodeBytes(data)
	p, err := decodeProduct(d)
	if err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	return &p, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeString(d)
		case "code":
			p.Code, err = decodeString(d)
		case "barcode":
			p.Barcode, err = decodeString(d)
		case "name":
			p.Name, err = decodeString(d)
		case "unit":
			p.Unit, err = decodeString(d)
		case "selling_price":
			p.SellingPrice, err = decodeDecimal(d)
		case "tax_rate":
			p.TaxRate, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

// mapNotFound translates a 404 APIError into the domain's not-found sentinel.
func mapNotFound(err, sentinel error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return sentinel
	}
	return err
}
