package report

import (
	"context"

	"github.com/shopspring/decimal"
)

// PeriodStats aggregates sales for one period.
type PeriodStats struct {
	OrderCount int
	TotalSales decimal.Decimal
}

// DashboardStats is the back-office dashboard summary shown on the terminal.
type DashboardStats struct {
	Today                  PeriodStats
	ThisMonth              PeriodStats
	LowStockProducts       int
	TotalOutstandingCredit decimal.Decimal
	OverdueCustomers       int
}

// Service provides read-only reporting queries.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}
