package models

import "github.com/shopspring/decimal"

// RevenuePeriod selects the window of a revenue report.
type RevenuePeriod string

const (
	RevenuePeriodWeekly  RevenuePeriod = "weekly"
	RevenuePeriodMonthly RevenuePeriod = "monthly"
	RevenuePeriodYearly  RevenuePeriod = "yearly"
)

func (p RevenuePeriod) Valid() bool {
	switch p {
	case RevenuePeriodWeekly, RevenuePeriodMonthly, RevenuePeriodYearly:
		return true
	}
	return false
}

// RevenueBucket is one point of the revenue chart. Exactly one labelling
// scheme is populated depending on the report period.
type RevenueBucket struct {
	Date      string          `json:"date,omitempty"`
	WeekStart string          `json:"week_start,omitempty"`
	WeekEnd   string          `json:"week_end,omitempty"`
	Month     string          `json:"month,omitempty"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type RevenueReport struct {
	Periods          RevenuePeriod   `json:"periods"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
	RevenueData      []RevenueBucket `json:"revenue_data"`
}
