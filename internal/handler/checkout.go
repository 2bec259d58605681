package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/agripos/pos-terminal/internal/domain/checkout"
)

func (h *Handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	sess := reg.Checkout(h.gateway, h.checkoutOpts...)
	if err := sess.StartCheckout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("status")
		e.Str(sess.Status().String())
		e.FieldStart("order_id")
		e.Str(sess.OrderID())
		e.FieldStart("order_number")
		e.Str(sess.OrderNumber())
		e.ObjEnd()
	})
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	sess := reg.Session()
	if sess == nil {
		respondError(w, http.StatusConflict, "no active checkout")
		return
	}
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var (
		method   string
		tendered decimal.Decimal
	)
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "method":
			method, err = d.Str()
		case "paid_amount":
			tendered, err = reqDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	initiated, err := sess.InitiatePayment(r.Context(), checkout.PaymentMethod(method), tendered)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("status")
		e.Str(sess.Status().String())
		if initiated.TransactionRef != "" {
			e.FieldStart("transaction_ref")
			e.Str(initiated.TransactionRef)
		}
		e.FieldStart("amount")
		encodeDecimal(e, initiated.Amount)
		if sess.Status() == checkout.StatusCompleted {
			e.FieldStart("change_amount")
			encodeDecimal(e, sess.ChangeAmount())
		}
		if initiated.QRData != "" {
			e.FieldStart("qr_data")
			e.Str(initiated.QRData)
			e.FieldStart("qr_image")
			e.Str(initiated.QRImage)
		}
		e.ObjEnd()
	})
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	sess := reg.Session()
	if sess == nil {
		respondError(w, http.StatusConflict, "no active checkout")
		return
	}
	body, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var bankRef string
	if len(body) > 0 {
		d := jx.DecodeBytes(body)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "bank_reference" {
				v, err := d.Str()
				bankRef = v
				return err
			}
			return d.Skip()
		}); err != nil {
			respondError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}

	if err := sess.ConfirmPayment(r.Context(), bankRef); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("status")
		e.Str(sess.Status().String())
		e.ObjEnd()
	})
}

func (h *Handler) abandonCheckout(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.register(w, r)
	if !ok {
		return
	}
	reg.AbandonCheckout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("today")
		encodePeriod(e, stats.Today.OrderCount, stats.Today.TotalSales)
		e.FieldStart("this_month")
		encodePeriod(e, stats.ThisMonth.OrderCount, stats.ThisMonth.TotalSales)
		e.FieldStart("low_stock_products")
		e.Int(stats.LowStockProducts)
		e.FieldStart("total_outstanding_credit")
		encodeDecimal(e, stats.TotalOutstandingCredit)
		e.FieldStart("overdue_customers")
		e.Int(stats.OverdueCustomers)
		e.ObjEnd()
	})
}

func encodePeriod(e *jx.Encoder, count int, total decimal.Decimal) {
	e.ObjStart()
	e.FieldStart("order_count")
	e.Int(count)
	e.FieldStart("total_sales")
	encodeDecimal(e, total)
	e.ObjEnd()
}
