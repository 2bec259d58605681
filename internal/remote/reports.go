package remote

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/agripos/pos-terminal/internal/domain/report"
)

var _ report.Service = (*Reports)(nil)

// Reports is the reporting view of the back-office API.
type Reports struct {
	c *Client
}

// Reports returns the client's report service.
func (c *Client) Reports() *Reports {
	return &Reports{c: c}
}

// Dashboard fetches the back-office dashboard summary.
func (r *Reports) Dashboard(ctx context.Context) (*report.DashboardStats, error) {
	data, err := r.c.call(ctx, http.MethodGet, "/reports/dashboard", nil, nil, nil)
	if err != nil {
		return nil, err
	}

	var out report.DashboardStats
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "today":
			out.Today, err = decodePeriodStats(d)
		case "this_month":
			out.ThisMonth, err = decodePeriodStats(d)
		case "low_stock_products":
			out.LowStockProducts, err = decodeInt(d)
		case "total_outstanding_credit":
			out.TotalOutstandingCredit, err = decodeDecimal(d)
		case "overdue_customers":
			out.OverdueCustomers, err = decodeInt(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode dashboard")
	}
	return &out, nil
}

func decodePeriodStats(d *jx.Decoder) (report.PeriodStats, error) {
	var p report.PeriodStats
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "order_count":
			p.OrderCount, err = decodeInt(d)
		case "total_sales":
			p.TotalSales, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}
