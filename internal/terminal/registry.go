// Package terminal tracks open registers. Each register owns one cart and at
// most one checkout session; the cart and session live only in memory and die
// with the process.
package terminal

import (
	"sync"

	"github.com/google/uuid"

	"github.com/agripos/pos-terminal/internal/domain/cart"
	"github.com/agripos/pos-terminal/internal/domain/checkout"
)

// Register is one open POS register. The cart has its own lock, shared with
// the checkout session through the checkout.CartAccess contract, so cart
// mutations and the session's snapshot/clear never interleave.
type Register struct {
	ID string

	cartMu sync.Mutex
	cart   *cart.Cart

	mu      sync.Mutex
	session *checkout.Session
}

var _ checkout.CartAccess = (*Register)(nil)

// Do runs fn with exclusive access to the register's cart. Cart operations
// apply fully before the next one begins.
func (r *Register) Do(fn func(c *cart.Cart) error) error {
	r.cartMu.Lock()
	defer r.cartMu.Unlock()
	return fn(r.cart)
}

// Checkout returns the active checkout session, creating a fresh one when none
// exists or the previous attempt completed.
func (r *Register) Checkout(gateway checkout.Gateway, opts ...checkout.Option) *checkout.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.Status().IsTerminal() {
		r.session = checkout.NewSession(r, gateway, opts...)
	}
	return r.session
}

// Session returns the active checkout session, or nil.
func (r *Register) Session() *checkout.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// AbandonCheckout discards the active checkout session. The cart is left
// untouched; no compensating call is made to the back office.
func (r *Register) AbandonCheckout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
}

// Registry holds all open registers.
type Registry struct {
	mu        sync.RWMutex
	registers map[string]*Register
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{registers: make(map[string]*Register)}
}

// Open creates a register with an empty cart.
func (g *Registry) Open() *Register {
	r := &Register{
		ID:   uuid.New().String(),
		cart: cart.New(),
	}
	g.mu.Lock()
	g.registers[r.ID] = r
	g.mu.Unlock()
	return r
}

// Get returns the register by ID.
func (g *Registry) Get(id string) (*Register, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.registers[id]
	return r, ok
}

// Close removes the register and reports whether it existed.
func (g *Registry) Close(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.registers[id]; !ok {
		return false
	}
	delete(g.registers, id)
	return true
}
