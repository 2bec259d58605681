// Package handler exposes the terminal's HTTP surface: register lifecycle,
// cart mutation, the checkout flow, and a dashboard proxy.
package handler

import (
	"net/http"

	"github.com/agripos/pos-terminal/internal/domain/checkout"
	"github.com/agripos/pos-terminal/internal/domain/customer"
	"github.com/agripos/pos-terminal/internal/domain/product"
	"github.com/agripos/pos-terminal/internal/domain/report"
	"github.com/agripos/pos-terminal/internal/terminal"
)

// Handler adapts HTTP requests onto the cart and checkout domain.
type Handler struct {
	registry  *terminal.Registry
	gateway   checkout.Gateway
	products  product.Repository
	customers customer.Repository
	reports   report.Service

	checkoutOpts []checkout.Option
}

// NewHandler constructs a Handler with its domain dependencies.
func NewHandler(
	registry *terminal.Registry,
	gateway checkout.Gateway,
	products product.Repository,
	customers customer.Repository,
	reports report.Service,
	checkoutOpts ...checkout.Option,
) *Handler {
	return &Handler{
		registry:     registry,
		gateway:      gateway,
		products:     products,
		customers:    customers,
		reports:      reports,
		checkoutOpts: checkoutOpts,
	}
}

// Register mounts all terminal routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/registers", h.openRegister)
	mux.HandleFunc("DELETE /api/registers/{id}", h.closeRegister)

	mux.HandleFunc("GET /api/registers/{id}/cart", h.getCart)
	mux.HandleFunc("PATCH /api/registers/{id}/cart", h.updateCart)
	mux.HandleFunc("POST /api/registers/{id}/cart/items", h.addItem)
	mux.HandleFunc("PATCH /api/registers/{id}/cart/items/{productID}", h.updateItem)
	mux.HandleFunc("DELETE /api/registers/{id}/cart/items/{productID}", h.removeItem)

	mux.HandleFunc("POST /api/registers/{id}/checkout", h.startCheckout)
	mux.HandleFunc("POST /api/registers/{id}/checkout/payment", h.initiatePayment)
	mux.HandleFunc("POST /api/registers/{id}/checkout/confirm", h.confirmPayment)
	mux.HandleFunc("DELETE /api/registers/{id}/checkout", h.abandonCheckout)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/customers", h.listCustomers)

	mux.HandleFunc("GET /api/dashboard", h.dashboard)
}

// register resolves the {id} path value to an open register, answering 404
// itself when the register is unknown.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) (*terminal.Register, bool) {
	reg, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "register not found")
		return nil, false
	}
	return reg, true
}
