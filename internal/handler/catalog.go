package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/agripos/pos-terminal/internal/domain/customer"
	"github.com/agripos/pos-terminal/internal/domain/product"
)

// listProducts proxies catalog browsing so a thin client can search products
// before adding them to the cart.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := product.ListFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

// listCustomers proxies customer search for attaching a customer to the sale.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	filter := customer.ListFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	customers, err := h.customers.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, cu := range customers {
			encodeCustomer(e, cu)
		}
		e.ArrEnd()
	})
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("code")
	e.Str(p.Code)
	e.FieldStart("barcode")
	e.Str(p.Barcode)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("unit")
	e.Str(p.Unit)
	e.FieldStart("selling_price")
	encodeDecimal(e, p.SellingPrice)
	e.FieldStart("tax_rate")
	encodeDecimal(e, p.TaxRate)
	e.ObjEnd()
}

func encodeCustomer(e *jx.Encoder, cu customer.Customer) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(cu.ID)
	e.FieldStart("code")
	e.Str(cu.Code)
	e.FieldStart("name")
	e.Str(cu.Name)
	e.FieldStart("phone")
	e.Str(cu.Phone)
	e.FieldStart("credit_limit")
	encodeDecimal(e, cu.CreditLimit)
	e.FieldStart("credit_balance")
	encodeDecimal(e, cu.CreditBalance)
	e.FieldStart("available_credit")
	encodeDecimal(e, cu.AvailableCredit())
	e.FieldStart("credit_days")
	e.Int(cu.CreditDays)
	e.ObjEnd()
}

// queryInt reads a non-negative integer query parameter, 0 when absent or
// malformed.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
