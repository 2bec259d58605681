package remote

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/agripos/pos-terminal/internal/domain/checkout"
)

var _ checkout.Gateway = (*Client)(nil)

// CreateOrder posts the order draft to the sales endpoint. The session's
// idempotency key rides along as a header so a retried creation can be
// deduplicated server-side.
func (c *Client) CreateOrder(ctx context.Context, draft checkout.OrderDraft) (*checkout.OrderCreated, error) {
	var e jx.Encoder
	e.ObjStart()
	if draft.CustomerID != "" {
		e.FieldStart("customer_id")
		e.Str(draft.CustomerID)
	}
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range draft.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(item.ProductID)
		e.FieldStart("quantity")
		encodeDecimal(&e, item.Quantity)
		e.FieldStart("unit_price")
		encodeDecimal(&e, item.UnitPrice)
		e.FieldStart("discount_percent")
		encodeDecimal(&e, item.DiscountPercent)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("discount_percent")
	encodeDecimal(&e, draft.DiscountPercent)
	if draft.Notes != "" {
		e.FieldStart("notes")
		e.Str(draft.Notes)
	}
	e.FieldStart("is_credit_sale")
	e.Bool(draft.CreditSale)
	e.ObjEnd()

	header := http.Header{}
	if draft.IdempotencyKey != "" {
		header.Set("Idempotency-Key", draft.IdempotencyKey)
	}

	data, err := c.call(ctx, http.MethodPost, "/sales/orders", nil, e.Bytes(), header)
	if err != nil {
		return nil, err
	}

	var out checkout.OrderCreated
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "order_id":
			out.OrderID, err = decodeString(d)
		case "order_number":
			out.OrderNumber, err = decodeString(d)
		case "total_amount":
			out.TotalAmount, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode order response")
	}
	if out.OrderID == "" {
		return nil, errors.New("order response missing order_id")
	}
	return &out, nil
}

// InitiatePayment starts settlement of an order. For cash the tendered amount
// is included; for QR the response carries the payload to display.
func (c *Client) InitiatePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentInitiated, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("order_id")
	e.Str(req.OrderID)
	e.FieldStart("payment_method")
	e.Str(string(req.Method))
	if req.Method == checkout.MethodCash {
		e.FieldStart("paid_amount")
		encodeDecimal(&e, req.PaidAmount)
	}
	e.ObjEnd()

	data, err := c.call(ctx, http.MethodPost, "/sales/payment/initiate", nil, e.Bytes(), nil)
	if err != nil {
		return nil, err
	}

	var out checkout.PaymentInitiated
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			out.Status, err = decodeString(d)
		case "transaction_ref":
			out.TransactionRef, err = decodeString(d)
		case "amount":
			out.Amount, err = decodeDecimal(d)
		case "change_amount":
			out.ChangeAmount, err = decodeDecimal(d)
		case "qr_data":
			out.QRData, err = decodeString(d)
		case "qr_image":
			out.QRImage, err = decodeString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode payment response")
	}
	return &out, nil
}

// ConfirmPayment confirms a pending QR settlement after the operator verified
// the transfer.
func (c *Client) ConfirmPayment(ctx context.Context, req checkout.ConfirmRequest) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("transaction_ref")
	e.Str(req.TransactionRef)
	if req.BankReference != "" {
		e.FieldStart("bank_reference")
		e.Str(req.BankReference)
	}
	e.ObjEnd()

	_, err := c.call(ctx, http.MethodPost, "/sales/payment/confirm", nil, e.Bytes(), nil)
	return err
}
