package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agripos/pos-terminal/internal/domain/cart"
	"github.com/agripos/pos-terminal/internal/domain/customer"
	"github.com/agripos/pos-terminal/internal/domain/product"
)

// --- Mock gateway ---

type mockGateway struct {
	createCalls  int
	createDrafts []OrderDraft
	createErr    error
	created      *OrderCreated

	initiateCalls int
	initiateReqs  []PaymentRequest
	initiateErr   error
	initiated     *PaymentInitiated

	confirmCalls int
	confirmReqs  []ConfirmRequest
	confirmErr   error

	// block, when set, stalls every call until released.
	block chan struct{}
}

func (m *mockGateway) CreateOrder(_ context.Context, draft OrderDraft) (*OrderCreated, error) {
	if m.block != nil {
		<-m.block
	}
	m.createCalls++
	m.createDrafts = append(m.createDrafts, draft)
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created != nil {
		return m.created, nil
	}
	return &OrderCreated{OrderID: "ord-1", OrderNumber: "SO-0001"}, nil
}

func (m *mockGateway) InitiatePayment(_ context.Context, req PaymentRequest) (*PaymentInitiated, error) {
	if m.block != nil {
		<-m.block
	}
	m.initiateCalls++
	m.initiateReqs = append(m.initiateReqs, req)
	if m.initiateErr != nil {
		return nil, m.initiateErr
	}
	if m.initiated != nil {
		return m.initiated, nil
	}
	return &PaymentInitiated{Status: "completed", TransactionRef: "txn-1"}, nil
}

func (m *mockGateway) ConfirmPayment(_ context.Context, req ConfirmRequest) error {
	if m.block != nil {
		<-m.block
	}
	m.confirmCalls++
	m.confirmReqs = append(m.confirmReqs, req)
	return m.confirmErr
}

// --- Helpers ---

// cartGuard serializes cart access the way a register does, counting the
// passes through the lock.
type cartGuard struct {
	mu  sync.Mutex
	c   *cart.Cart
	dos int
}

func (g *cartGuard) Do(fn func(c *cart.Cart) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dos++
	return fn(g.c)
}

func guard(c *cart.Cart) *cartGuard {
	return &cartGuard{c: c}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	p := product.Product{
		ID:           "p1",
		Code:         "FERT-10",
		Name:         "Fertilizer 10kg",
		Unit:         "bag",
		SellingPrice: d("100"),
		TaxRate:      d("7"),
	}
	require.NoError(t, c.AddItem(p, d("2")))
	return c
}

// --- Tests ---

func TestStartCheckout_EmptyCart(t *testing.T) {
	gw := &mockGateway{}
	sess := NewSession(guard(cart.New()), gw)

	err := sess.StartCheckout(context.Background())

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StatusIdle, sess.Status())
	assert.Zero(t, gw.createCalls)
}

func TestStartCheckout_Success(t *testing.T) {
	c := newTestCart(t)
	require.NoError(t, c.SetOrderDiscountPercent(d("5")))
	c.SetNotes("bagged")
	gw := &mockGateway{}
	sess := NewSession(guard(c), gw)

	require.NoError(t, sess.StartCheckout(context.Background()))

	assert.Equal(t, StatusAwaitingPayment, sess.Status())
	assert.Equal(t, "ord-1", sess.OrderID())
	assert.Equal(t, "SO-0001", sess.OrderNumber())

	require.Len(t, gw.createDrafts, 1)
	draft := gw.createDrafts[0]
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "p1", draft.Items[0].ProductID)
	assert.True(t, d("2").Equal(draft.Items[0].Quantity))
	assert.True(t, d("100").Equal(draft.Items[0].UnitPrice))
	assert.True(t, d("5").Equal(draft.DiscountPercent))
	assert.Equal(t, "bagged", draft.Notes)
	assert.NotEmpty(t, draft.IdempotencyKey)
}

func TestStartCheckout_GatewayError(t *testing.T) {
	gw := &mockGateway{createErr: errors.New("backoffice down")}
	sess := NewSession(guard(newTestCart(t)), gw)

	err := sess.StartCheckout(context.Background())

	var ocErr *OrderCreationError
	require.ErrorAs(t, err, &ocErr)
	assert.Equal(t, StatusError, sess.Status())
	assert.Empty(t, sess.OrderID())

	// Retry succeeds and reuses the same idempotency key.
	gw.createErr = nil
	require.NoError(t, sess.StartCheckout(context.Background()))
	require.Len(t, gw.createDrafts, 2)
	assert.Equal(t, gw.createDrafts[0].IdempotencyKey, gw.createDrafts[1].IdempotencyKey)
}

func TestStartCheckout_ReusesOrderAfterPaymentFailure(t *testing.T) {
	gw := &mockGateway{initiateErr: errors.New("payment service down")}
	sess := NewSession(guard(newTestCart(t)), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))

	_, err := sess.InitiatePayment(context.Background(), MethodCash, d("300"))
	var piErr *PaymentInitiationError
	require.ErrorAs(t, err, &piErr)
	assert.Equal(t, "ord-1", piErr.OrderID)
	assert.Equal(t, StatusError, sess.Status())

	// Restarting checkout must not create a duplicate order.
	require.NoError(t, sess.StartCheckout(context.Background()))
	assert.Equal(t, 1, gw.createCalls)
	assert.Equal(t, StatusAwaitingPayment, sess.Status())
	assert.Equal(t, "ord-1", sess.OrderID())
}

func TestInitiatePayment_BeforeOrder(t *testing.T) {
	gw := &mockGateway{}
	sess := NewSession(guard(newTestCart(t)), gw)

	_, err := sess.InitiatePayment(context.Background(), MethodCash, d("300"))

	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, gw.initiateCalls)
}

func TestInitiatePayment_InvalidMethod(t *testing.T) {
	gw := &mockGateway{}
	sess := NewSession(guard(newTestCart(t)), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))

	_, err := sess.InitiatePayment(context.Background(), PaymentMethod("cheque"), decimal.Zero)

	require.ErrorIs(t, err, ErrInvalidMethod)
	assert.Zero(t, gw.initiateCalls)
}

func TestInitiatePayment_InsufficientCash(t *testing.T) {
	gw := &mockGateway{}
	c := newTestCart(t) // grand total 214.00
	sess := NewSession(guard(c), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))

	_, err := sess.InitiatePayment(context.Background(), MethodCash, d("200"))

	require.ErrorIs(t, err, ErrInsufficientCash)
	assert.Zero(t, gw.initiateCalls, "local guard must fire before any remote call")
	assert.Equal(t, StatusAwaitingPayment, sess.Status())
}

func TestInitiatePayment_CashCompletes(t *testing.T) {
	gw := &mockGateway{initiated: &PaymentInitiated{
		Status:         "completed",
		TransactionRef: "txn-1",
		Amount:         d("214.00"),
		ChangeAmount:   d("86.00"),
	}}
	c := newTestCart(t)
	sess := NewSession(guard(c), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))

	initiated, err := sess.InitiatePayment(context.Background(), MethodCash, d("300"))

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sess.Status())
	assert.True(t, sess.Status().IsTerminal())
	assert.True(t, d("86.00").Equal(initiated.ChangeAmount))
	assert.True(t, d("86.00").Equal(sess.ChangeAmount()))
	assert.True(t, c.IsEmpty(), "completed sale clears the cart")

	require.Len(t, gw.initiateReqs, 1)
	assert.True(t, d("300").Equal(gw.initiateReqs[0].PaidAmount))
}

func TestInitiatePayment_CreditRequiresCustomer(t *testing.T) {
	gw := &mockGateway{}
	c := newTestCart(t)
	sess := NewSession(guard(c), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))

	_, err := sess.InitiatePayment(context.Background(), MethodCredit, decimal.Zero)
	require.ErrorIs(t, err, ErrNoCustomerForCredit)
	assert.Zero(t, gw.initiateCalls)

	c.SetCustomer(&customer.Customer{ID: "c1", Name: "Somchai Farm"})
	_, err = sess.InitiatePayment(context.Background(), MethodCredit, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sess.Status())
}

func TestInitiatePayment_QRAwaitsConfirmation(t *testing.T) {
	gw := &mockGateway{initiated: &PaymentInitiated{
		Status:         "pending",
		TransactionRef: "txn-qr-1",
		Amount:         d("214.00"),
		QRData:         "00020101021229370016A000000677010111",
	}}
	c := newTestCart(t)
	sess := NewSession(guard(c), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))

	initiated, err := sess.InitiatePayment(context.Background(), MethodQR, decimal.Zero)

	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingQRConfirm, sess.Status())
	assert.NotEmpty(t, initiated.QRData)
	assert.False(t, c.IsEmpty(), "cart survives until the payment is confirmed")
}

func TestConfirmPayment_FailThenRetry(t *testing.T) {
	gw := &mockGateway{initiated: &PaymentInitiated{Status: "pending", TransactionRef: "txn-qr-1"}}
	c := newTestCart(t)
	sess := NewSession(guard(c), gw)
	require.NoError(t, sess.StartCheckout(context.Background()))
	_, err := sess.InitiatePayment(context.Background(), MethodQR, decimal.Zero)
	require.NoError(t, err)

	gw.confirmErr = errors.New("settlement not found")
	err = sess.ConfirmPayment(context.Background(), "")

	var pcErr *PaymentConfirmationError
	require.ErrorAs(t, err, &pcErr)
	assert.Equal(t, "txn-qr-1", pcErr.TransactionRef)
	assert.Equal(t, StatusAwaitingQRConfirm, sess.Status())
	assert.False(t, c.IsEmpty())

	// Retry with the same transaction reference succeeds.
	gw.confirmErr = nil
	require.NoError(t, sess.ConfirmPayment(context.Background(), "BANK-REF-7"))
	require.Len(t, gw.confirmReqs, 2)
	assert.Equal(t, gw.confirmReqs[0].TransactionRef, gw.confirmReqs[1].TransactionRef)
	assert.Equal(t, "BANK-REF-7", gw.confirmReqs[1].BankReference)
	assert.Equal(t, StatusCompleted, sess.Status())
	assert.True(t, c.IsEmpty())
}

func TestConfirmPayment_InvalidTransition(t *testing.T) {
	sess := NewSession(guard(newTestCart(t)), &mockGateway{})

	require.ErrorIs(t, sess.ConfirmPayment(context.Background(), ""), ErrInvalidTransition)
}

func TestConfirmPayment_WindowExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	gw := &mockGateway{initiated: &PaymentInitiated{Status: "pending", TransactionRef: "txn-qr-1"}}
	c := newTestCart(t)
	sess := NewSession(guard(c), gw, WithQRWindow(10*time.Minute), WithClock(clock))
	require.NoError(t, sess.StartCheckout(context.Background()))
	_, err := sess.InitiatePayment(context.Background(), MethodQR, decimal.Zero)
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	err = sess.ConfirmPayment(context.Background(), "")

	require.ErrorIs(t, err, ErrQRExpired)
	assert.Zero(t, gw.confirmCalls)
	assert.Equal(t, StatusAwaitingPayment, sess.Status())
	assert.Nil(t, sess.Payment())
	assert.False(t, c.IsEmpty())

	// A fresh QR can be issued for the same order.
	_, err = sess.InitiatePayment(context.Background(), MethodQR, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingQRConfirm, sess.Status())
	assert.Equal(t, 1, gw.createCalls)
}

func TestStartCheckout_SingleCallInFlight(t *testing.T) {
	gw := &mockGateway{block: make(chan struct{})}
	sess := NewSession(guard(newTestCart(t)), gw)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- sess.StartCheckout(context.Background())
	}()

	// Wait for the first call to reach the gateway.
	require.Eventually(t, func() bool {
		return sess.Status() == StatusAwaitingOrder
	}, time.Second, time.Millisecond)

	err := sess.StartCheckout(context.Background())
	require.ErrorIs(t, err, ErrInFlight)

	close(gw.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, gw.createCalls)
}

func TestSession_CartAccessUnderGuard(t *testing.T) {
	c := newTestCart(t)
	g := guard(c)
	sess := NewSession(g, &mockGateway{})

	require.NoError(t, sess.StartCheckout(context.Background()))
	afterStart := g.dos
	require.Positive(t, afterStart, "draft snapshot must pass through the cart lock")

	_, err := sess.InitiatePayment(context.Background(), MethodCash, d("300"))
	require.NoError(t, err)

	// Cash guard read and the final clear each take the lock.
	assert.GreaterOrEqual(t, g.dos-afterStart, 2)
	assert.True(t, c.IsEmpty())
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	for _, s := range []Status{StatusIdle, StatusAwaitingOrder, StatusAwaitingPayment, StatusAwaitingQRConfirm, StatusError} {
		assert.False(t, s.IsTerminal(), s.String())
	}
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, MethodCash.Valid())
	assert.True(t, MethodQR.Valid())
	assert.True(t, MethodCredit.Valid())
	assert.False(t, PaymentMethod("cheque").Valid())
	assert.False(t, PaymentMethod("").Valid())
}
