// Package checkout drives one checkout attempt as an explicit state machine:
// order creation, method-specific payment initiation, and (for QR) manual
// settlement confirmation.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agripos/pos-terminal/internal/domain/cart"
)

// DefaultQRWindow bounds how long an issued QR payload remains confirmable.
const DefaultQRWindow = 10 * time.Minute

// Option configures a Session.
type Option func(*Session)

// WithQRWindow overrides the QR confirmation window.
func WithQRWindow(d time.Duration) Option {
	return func(s *Session) { s.qrWindow = d }
}

// WithClock overrides the session clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// CartAccess serializes access to the cart the session shares with its
// register. Every cart read and the final clear go through Do, under the same
// lock as cart mutations, so a concurrent item add never interleaves with a
// draft snapshot or a clear.
type CartAccess interface {
	Do(fn func(c *cart.Cart) error) error
}

// Session is one checkout attempt over a cart. At most one remote call may be
// in flight at a time; a second trigger while one is pending fails with
// ErrInFlight. The session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	inFlight bool

	cart    CartAccess
	gateway Gateway

	status         Status
	idempotencyKey string
	orderID        string
	orderNumber    string
	method         PaymentMethod
	payment        *PaymentInitiated
	change         decimal.Decimal
	qrDeadline     time.Time

	qrWindow time.Duration
	now      func() time.Time
}

// NewSession creates an idle checkout session over the cart.
func NewSession(c CartAccess, gateway Gateway, opts ...Option) *Session {
	s := &Session{
		cart:           c,
		gateway:        gateway,
		status:         StatusIdle,
		idempotencyKey: uuid.New().String(),
		qrWindow:       DefaultQRWindow,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OrderID returns the created order's identifier, or "" before creation.
func (s *Session) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

// OrderNumber returns the created order's human-readable number.
func (s *Session) OrderNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderNumber
}

// Payment returns a copy of the issued QR payment, or nil.
func (s *Session) Payment() *PaymentInitiated {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return nil
	}
	p := *s.payment
	return &p
}

// Method returns the payment method chosen on the last initiation.
func (s *Session) Method() PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

// ChangeAmount returns the change due after a completed cash payment.
func (s *Session) ChangeAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.change
}

// StartCheckout creates the back-office order from the current cart snapshot.
// On success the session holds the order ID and awaits payment initiation. If
// an order already exists from an earlier attempt, it is reused rather than
// recreated.
func (s *Session) StartCheckout(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrInFlight
	}
	switch s.status {
	case StatusIdle, StatusError:
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.orderID != "" {
		// Order survived a failed payment attempt; skip straight to payment.
		s.status = StatusAwaitingPayment
		s.mu.Unlock()
		return nil
	}
	var (
		draft OrderDraft
		empty bool
	)
	_ = s.cart.Do(func(c *cart.Cart) error {
		if c.IsEmpty() {
			empty = true
			return nil
		}
		draft = buildDraft(c, s.idempotencyKey)
		return nil
	})
	if empty {
		s.status = StatusIdle
		s.mu.Unlock()
		return ErrEmptyCart
	}
	s.status = StatusAwaitingOrder
	s.inFlight = true
	s.mu.Unlock()

	created, err := s.gateway.CreateOrder(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.status = StatusError
		return &OrderCreationError{Err: err}
	}
	s.orderID = created.OrderID
	s.orderNumber = created.OrderNumber
	s.status = StatusAwaitingPayment
	return nil
}

// InitiatePayment settles the order with the chosen method. Cash and credit
// complete the session and clear the cart; QR moves the session to awaiting
// confirmation and leaves the cart intact.
func (s *Session) InitiatePayment(ctx context.Context, method PaymentMethod, tendered decimal.Decimal) (*PaymentInitiated, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrInFlight
	}
	if !(s.status == StatusAwaitingPayment || (s.status == StatusError && s.orderID != "")) {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if !method.Valid() {
		s.mu.Unlock()
		return nil, ErrInvalidMethod
	}
	// Local guards fire before any remote call.
	switch method {
	case MethodCash:
		var short bool
		_ = s.cart.Do(func(c *cart.Cart) error {
			short = tendered.LessThan(c.GrandTotal())
			return nil
		})
		if short {
			s.mu.Unlock()
			return nil, ErrInsufficientCash
		}
	case MethodCredit:
		var noCustomer bool
		_ = s.cart.Do(func(c *cart.Cart) error {
			noCustomer = c.Customer() == nil
			return nil
		})
		if noCustomer {
			s.mu.Unlock()
			return nil, ErrNoCustomerForCredit
		}
	}
	req := PaymentRequest{OrderID: s.orderID, Method: method}
	if method == MethodCash {
		req.PaidAmount = tendered
	}
	s.method = method
	s.status = StatusAwaitingPayment
	s.inFlight = true
	s.mu.Unlock()

	initiated, err := s.gateway.InitiatePayment(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.status = StatusError
		return nil, &PaymentInitiationError{OrderID: s.orderID, Err: err}
	}

	if method == MethodQR {
		s.payment = initiated
		s.qrDeadline = s.now().Add(s.qrWindow)
		s.status = StatusAwaitingQRConfirm
		return initiated, nil
	}

	s.change = initiated.ChangeAmount
	s.status = StatusCompleted
	s.clearCart()
	return initiated, nil
}

// ConfirmPayment confirms an out-of-band QR settlement. A failed confirmation
// keeps the session awaiting confirmation with the same transaction reference,
// so the operator may retry. Past the QR window the session falls back to
// awaiting payment so a fresh QR can be issued for the same order.
func (s *Session) ConfirmPayment(ctx context.Context, bankReference string) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrInFlight
	}
	if s.status != StatusAwaitingQRConfirm || s.payment == nil {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.now().After(s.qrDeadline) {
		s.payment = nil
		s.status = StatusAwaitingPayment
		s.mu.Unlock()
		return ErrQRExpired
	}
	req := ConfirmRequest{
		TransactionRef: s.payment.TransactionRef,
		BankReference:  bankReference,
	}
	s.inFlight = true
	s.mu.Unlock()

	err := s.gateway.ConfirmPayment(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		// Stay confirmable; the QR and transaction reference remain valid.
		return &PaymentConfirmationError{TransactionRef: req.TransactionRef, Err: err}
	}
	s.status = StatusCompleted
	s.clearCart()
	return nil
}

// clearCart empties the cart under its own lock.
func (s *Session) clearCart() {
	_ = s.cart.Do(func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// buildDraft builds the order-creation request from the cart. The caller must
// hold the cart's lock via CartAccess.Do.
func buildDraft(c *cart.Cart, idempotencyKey string) OrderDraft {
	lines := c.Lines()
	items := make([]OrderLine, len(lines))
	for i, l := range lines {
		items[i] = OrderLine{
			ProductID:       l.Product.ID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
		}
	}
	draft := OrderDraft{
		Items:           items,
		DiscountPercent: c.OrderDiscountPercent(),
		Notes:           c.Notes(),
		CreditSale:      c.IsCreditSale(),
		IdempotencyKey:  idempotencyKey,
	}
	if cu := c.Customer(); cu != nil {
		draft.CustomerID = cu.ID
	}
	return draft
}
