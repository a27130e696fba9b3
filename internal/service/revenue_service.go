package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/repository"
)

const dateLayout = "2006-01-02"

// RevenueService builds revenue growth reports from completed payments.
type RevenueService struct {
	repo   repository.RevenueRepository
	now    func() time.Time
	logger *logging.LoggerV2
}

func NewRevenueService(repo repository.RevenueRepository) *RevenueService {
	return &RevenueService{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NewLoggerV2("revenue-service"),
	}
}

// reportWindow is the half-open range [start, end) of the current period and
// the start of the previous period of the same kind, which ends at start.
type reportWindow struct {
	start     time.Time
	end       time.Time
	prevStart time.Time
}

func windowFor(period models.RevenuePeriod, now time.Time) reportWindow {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case models.RevenuePeriodWeekly:
		// Weeks start on Monday.
		start := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		return reportWindow{start: start, end: start.AddDate(0, 0, 7), prevStart: start.AddDate(0, 0, -7)}
	case models.RevenuePeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return reportWindow{start: start, end: start.AddDate(0, 1, 0), prevStart: start.AddDate(0, -1, 0)}
	default:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return reportWindow{start: start, end: start.AddDate(1, 0, 0), prevStart: start.AddDate(-1, 0, 0)}
	}
}

type bucketRange struct {
	from, to time.Time
	bucket   models.RevenueBucket
}

// buckets lays out the chart points of a period: days for weekly, 7-day
// spans for monthly (the last one cut at month end) and months for yearly.
func buckets(period models.RevenuePeriod, w reportWindow) []bucketRange {
	var out []bucketRange

	switch period {
	case models.RevenuePeriodWeekly:
		for d := w.start; d.Before(w.end); d = d.AddDate(0, 0, 1) {
			out = append(out, bucketRange{
				from:   d,
				to:     d.AddDate(0, 0, 1),
				bucket: models.RevenueBucket{Date: d.Format(dateLayout)},
			})
		}
	case models.RevenuePeriodMonthly:
		for d := w.start; d.Before(w.end); d = d.AddDate(0, 0, 7) {
			to := d.AddDate(0, 0, 7)
			if to.After(w.end) {
				to = w.end
			}
			out = append(out, bucketRange{
				from: d,
				to:   to,
				bucket: models.RevenueBucket{
					WeekStart: d.Format(dateLayout),
					WeekEnd:   to.AddDate(0, 0, -1).Format(dateLayout),
				},
			})
		}
	default:
		for d := w.start; d.Before(w.end); d = d.AddDate(0, 1, 0) {
			out = append(out, bucketRange{
				from:   d,
				to:     d.AddDate(0, 1, 0),
				bucket: models.RevenueBucket{Month: d.Format("2006-01")},
			})
		}
	}

	for i := range out {
		out[i].bucket.Revenue = decimal.Zero
	}
	return out
}

// BucketRevenue assigns each payment to the bucket containing its completion time.
func BucketRevenue(period models.RevenuePeriod, now time.Time, payments []repository.PaymentAmount) []models.RevenueBucket {
	ranges := buckets(period, windowFor(period, now))

	for _, p := range payments {
		for i := range ranges {
			if !p.CompletedAt.Before(ranges[i].from) && p.CompletedAt.Before(ranges[i].to) {
				ranges[i].bucket.Revenue = ranges[i].bucket.Revenue.Add(p.Amount)
				break
			}
		}
	}

	result := make([]models.RevenueBucket, len(ranges))
	for i, r := range ranges {
		result[i] = r.bucket
	}
	return result
}

// Report returns the revenue of the current week, month or year with its
// change against the previous period of the same kind.
func (s *RevenueService) Report(ctx context.Context, period models.RevenuePeriod) (*models.RevenueReport, error) {
	if !period.Valid() {
		return nil, apperrors.NewValidationError("periods", "periods must be one of weekly, monthly, yearly")
	}

	now := s.now()
	w := windowFor(period, now)

	payments, err := s.repo.ListCompletedPayments(ctx, w.start, w.end)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}

	previous, err := s.repo.SumCompletedPayments(ctx, w.prevStart, w.start)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Revenue report computed", logging.Fields{
		"periods":  period,
		"start":    w.start.Format(dateLayout),
		"payments": len(payments),
	})

	return &models.RevenueReport{
		Periods:          period,
		TotalRevenue:     total,
		PercentageChange: PercentageChange(total, previous),
		RevenueData:      BucketRevenue(period, now, payments),
	}, nil
}
