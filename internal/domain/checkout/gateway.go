package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors raised locally, before any remote call.
var (
	ErrEmptyCart           = errors.New("cart has no items")
	ErrInsufficientCash    = errors.New("tendered amount is less than the grand total")
	ErrNoCustomerForCredit = errors.New("credit sale requires a customer")
	ErrInvalidMethod       = errors.New("unsupported payment method")
	ErrInFlight            = errors.New("another checkout call is already in flight")
	ErrInvalidTransition   = errors.New("operation not allowed in current checkout state")
	ErrQRExpired           = errors.New("qr payment window expired")
)

// OrderCreationError wraps a failed order-creation call. Retryable: the
// session stays short of an order ID and the same trigger may be re-invoked.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("create order: %v", e.Err)
}

func (e *OrderCreationError) Unwrap() error { return e.Err }

// PaymentInitiationError wraps a failed payment-initiation call. Retryable:
// the order ID is preserved, so retrying never recreates the order.
type PaymentInitiationError struct {
	OrderID string
	Err     error
}

func (e *PaymentInitiationError) Error() string {
	return fmt.Sprintf("initiate payment for order %s: %v", e.OrderID, e.Err)
}

func (e *PaymentInitiationError) Unwrap() error { return e.Err }

// PaymentConfirmationError wraps a failed QR confirmation call. Retryable with
// the same transaction reference.
type PaymentConfirmationError struct {
	TransactionRef string
	Err            error
}

func (e *PaymentConfirmationError) Error() string {
	return fmt.Sprintf("confirm payment %s: %v", e.TransactionRef, e.Err)
}

func (e *PaymentConfirmationError) Unwrap() error { return e.Err }

// OrderLine is one cart line in an order-creation request.
type OrderLine struct {
	ProductID       string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// OrderDraft is the order-creation request built from a cart snapshot.
type OrderDraft struct {
	CustomerID      string
	Items           []OrderLine
	DiscountPercent decimal.Decimal
	Notes           string
	CreditSale      bool
	// IdempotencyKey is stable per session so a retried creation can be
	// deduplicated server-side.
	IdempotencyKey string
}

// OrderCreated is the back office's answer to a created order.
type OrderCreated struct {
	OrderID     string
	OrderNumber string
	TotalAmount decimal.Decimal
}

// PaymentRequest initiates settlement of an order.
type PaymentRequest struct {
	OrderID string
	Method  PaymentMethod
	// PaidAmount is the tendered cash amount; zero for other methods.
	PaidAmount decimal.Decimal
}

// PaymentInitiated is the result of a payment-initiation call. For cash and
// credit the payment is settled immediately; for QR the payload must be
// confirmed out of band.
type PaymentInitiated struct {
	Status         string
	TransactionRef string
	Amount         decimal.Decimal
	ChangeAmount   decimal.Decimal
	QRData         string
	QRImage        string
}

// ConfirmRequest confirms an out-of-band QR settlement.
type ConfirmRequest struct {
	TransactionRef string
	BankReference  string
}

// Gateway is the remote order/payment service contract the session drives.
type Gateway interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (*OrderCreated, error)
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInitiated, error)
	ConfirmPayment(ctx context.Context, req ConfirmRequest) error
}
