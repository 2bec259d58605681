package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/agripos/pos-terminal/internal/domain/cart"
	"github.com/agripos/pos-terminal/internal/domain/customer"
	"github.com/agripos/pos-terminal/internal/domain/product"
	"github.com/agripos/pos-terminal/internal/terminal"
)

func (h *Handler) openRegister(w http.ResponseWriter, _ *http.Request) {
	reg := h.registry.Open()
	respond(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("register_id")
		e.Str(reg.ID)
		e.ObjEnd()
	})
}

func (h *Handler) closeRegister(w http.ResponseWriter, r *http.Request) {
	if !h.registry.Close(r.PathValue("id")) {
		respondError(w, http.StatusNotFound, "register not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	h.respondCart(w, reg, http.StatusOK)
}

// respondCart writes the register's cart with its derived totals.
func (h *Handler) respondCart(w http.ResponseWriter, reg *terminal.Register, status int) {
	var e jx.Encoder
	_ = reg.Do(func(c *cart.Cart) error {
		encodeCart(&e, c)
		return nil
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

type addItemRequest struct {
	ProductID string
	Code      string
	Quantity  decimal.Decimal
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	req := addItemRequest{Quantity: decimal.NewFromInt(1)}
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			req.ProductID, err = d.Str()
		case "code":
			req.Code, err = d.Str()
		case "quantity":
			req.Quantity, err = reqDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	// Resolve the snapshot before taking the register lock.
	var p *product.Product
	switch {
	case req.ProductID != "":
		p, err = h.products.GetByID(r.Context(), req.ProductID)
	case req.Code != "":
		p, err = h.products.Scan(r.Context(), req.Code)
	default:
		respondError(w, http.StatusBadRequest, "product_id or code is required")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := reg.Do(func(c *cart.Cart) error {
		return c.AddItem(*p, req.Quantity)
	}); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, reg, http.StatusCreated)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	productID := r.PathValue("productID")
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var (
		quantity, discount, price decimal.Decimal
		hasQty, hasDisc, hasPrice bool
	)
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "quantity":
			quantity, err = reqDecimal(d)
			hasQty = true
		case "discount_percent":
			discount, err = reqDecimal(d)
			hasDisc = true
		case "unit_price":
			price, err = reqDecimal(d)
			hasPrice = true
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !hasQty && !hasDisc && !hasPrice {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if err := reg.Do(func(c *cart.Cart) error {
		if hasQty {
			if err := c.UpdateQuantity(productID, quantity); err != nil {
				return err
			}
		}
		if hasDisc {
			if err := c.UpdateDiscountPercent(productID, discount); err != nil {
				return err
			}
		}
		if hasPrice {
			if err := c.UpdateUnitPrice(productID, price); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, reg, http.StatusOK)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	// Removing an absent line is a no-op, not an error.
	_ = reg.Do(func(c *cart.Cart) error {
		c.RemoveItem(r.PathValue("productID"))
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var (
		customerID           string
		discount             decimal.Decimal
		notes                string
		creditSale           bool
		hasCustomer, hasDisc bool
		hasNotes, hasCredit  bool
	)
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customer_id":
			hasCustomer = true
			if d.Next() == jx.Null {
				return d.Null()
			}
			customerID, err = d.Str()
		case "discount_percent":
			discount, err = reqDecimal(d)
			hasDisc = true
		case "notes":
			notes, err = d.Str()
			hasNotes = true
		case "is_credit_sale":
			creditSale, err = d.Bool()
			hasCredit = true
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var cu *customer.Customer
	if hasCustomer && customerID != "" {
		cu, err = h.customers.GetByID(r.Context(), customerID)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := reg.Do(func(c *cart.Cart) error {
		if hasCustomer {
			c.SetCustomer(cu)
		}
		if hasDisc {
			if err := c.SetOrderDiscountPercent(discount); err != nil {
				return err
			}
		}
		if hasNotes {
			c.SetNotes(notes)
		}
		if hasCredit {
			c.SetCreditSale(creditSale)
		}
		return nil
	}); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, reg, http.StatusOK)
}

// encodeCart writes the cart with its derived totals.
func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range c.Lines() {
		e.ObjStart()
		e.FieldStart("product")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(l.Product.ID)
		e.FieldStart("code")
		e.Str(l.Product.Code)
		e.FieldStart("name")
		e.Str(l.Product.Name)
		e.FieldStart("unit")
		e.Str(l.Product.Unit)
		e.ObjEnd()
		e.FieldStart("quantity")
		encodeDecimal(e, l.Quantity)
		e.FieldStart("unit_price")
		encodeDecimal(e, l.UnitPrice)
		e.FieldStart("discount_percent")
		encodeDecimal(e, l.DiscountPercent)
		e.FieldStart("discount_amount")
		encodeDecimal(e, l.DiscountAmount)
		e.FieldStart("tax_amount")
		encodeDecimal(e, l.TaxAmount)
		e.FieldStart("total_amount")
		encodeDecimal(e, l.Total)
		e.ObjEnd()
	}
	e.ArrEnd()
	if cu := c.Customer(); cu != nil {
		e.FieldStart("customer")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(cu.ID)
		e.FieldStart("name")
		e.Str(cu.Name)
		e.FieldStart("available_credit")
		encodeDecimal(e, cu.AvailableCredit())
		e.ObjEnd()
	}
	e.FieldStart("discount_percent")
	encodeDecimal(e, c.OrderDiscountPercent())
	e.FieldStart("is_credit_sale")
	e.Bool(c.IsCreditSale())
	e.FieldStart("notes")
	e.Str(c.Notes())
	e.FieldStart("subtotal")
	encodeDecimal(e, c.Subtotal())
	e.FieldStart("discount_amount")
	encodeDecimal(e, c.OrderDiscountAmount())
	e.FieldStart("tax_amount")
	encodeDecimal(e, c.TaxTotal())
	e.FieldStart("total_amount")
	encodeDecimal(e, c.GrandTotal())
	e.ObjEnd()
}
