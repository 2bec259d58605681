package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agripos/pos-terminal/internal/domain/cart"
	"github.com/agripos/pos-terminal/internal/domain/checkout"
	"github.com/agripos/pos-terminal/internal/domain/customer"
	"github.com/agripos/pos-terminal/internal/domain/pricing"
	"github.com/agripos/pos-terminal/internal/domain/product"
)

// maxBodySize caps request bodies; terminal requests are tiny.
const maxBodySize = 1 << 20

// respond writes a JSON body produced by encode.
func respond(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeError maps a domain error to an HTTP response. Remote operation
// failures are marked retryable; unexpected errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, pricing.ErrInvalidPrice),
		errors.Is(err, pricing.ErrInvalidTaxRate),
		errors.Is(err, checkout.ErrInsufficientCash),
		errors.Is(err, checkout.ErrNoCustomerForCredit),
		errors.Is(err, checkout.ErrInvalidMethod):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, customer.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrInFlight),
		errors.Is(err, checkout.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrQRExpired):
		respondError(w, http.StatusGone, err.Error())
	case isRemoteFailure(err):
		zctx.From(r.Context()).Warn("back-office call failed", zap.Error(err))
		respond(w, http.StatusBadGateway, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("code")
			e.Int(http.StatusBadGateway)
			e.FieldStart("message")
			e.Str(err.Error())
			e.FieldStart("retryable")
			e.Bool(true)
			e.ObjEnd()
		})
	default:
		zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isRemoteFailure(err error) bool {
	var (
		createErr  *checkout.OrderCreationError
		payErr     *checkout.PaymentInitiationError
		confirmErr *checkout.PaymentConfirmationError
	)
	return errors.As(err, &createErr) || errors.As(err, &payErr) || errors.As(err, &confirmErr)
}

// readBody reads a size-capped request body.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return data, nil
}

// reqDecimal reads a decimal from a JSON number or numeric string.
func reqDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}

// encodeDecimal writes v as a JSON number.
func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}
