package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Quote is the computed price for a booking at creation time.
type Quote struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown []Line          `json:"breakdown"`
}

type Line struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Quoter is the price calculation collaborator consulted synchronously
// during booking creation.
type Quoter interface {
	Quote(ctx context.Context, serviceType string, hours float64, children int) (Quote, error)
}

// Rate is one configured service rate.
type Rate struct {
	HourlyRate decimal.Decimal
	// ExtraChildRate applies per hour for every child beyond the second.
	ExtraChildRate decimal.Decimal
}

// RateSource looks a rate up by service type. ok is false when the service
// type has no configured rate.
type RateSource interface {
	RateFor(ctx context.Context, serviceType string) (Rate, bool, error)
}

// fallbackRates covers pricing when the rate lookup is unavailable. Base
// rate only; no surcharges.
var fallbackRates = map[string]string{
	"babysitting":      "15.00",
	"garde_reguliere":  "12.00",
	"garde_urgence":    "20.00",
	"soutien_scolaire": "18.00",
}

const fallbackDefaultRate = "15.00"

type Calculator struct {
	rates RateSource
}

func NewCalculator(rates RateSource) *Calculator {
	return &Calculator{rates: rates}
}

// Quote computes hours * hourly rate, plus the per-extra-child surcharge when
// the configured rate defines one. A failed or missing rate lookup falls back
// to the hardcoded table instead of failing the booking.
func (c *Calculator) Quote(ctx context.Context, serviceType string, hours float64, children int) (Quote, error) {
	if hours <= 0 {
		return Quote{}, errors.New("hours must be > 0")
	}

	rate, ok := Rate{}, false
	if c.rates != nil {
		var err error
		rate, ok, err = c.rates.RateFor(ctx, serviceType)
		if err != nil {
			log.Printf("pricing: rate lookup for %q failed, using fallback: %v", serviceType, err)
			ok = false
		}
	}
	if !ok {
		rate = Rate{HourlyRate: fallbackRate(serviceType)}
	}

	h := decimal.NewFromFloat(hours)
	base := rate.HourlyRate.Mul(h).Round(2)
	q := Quote{
		Total: base,
		Breakdown: []Line{
			{Label: fmt.Sprintf("%s × %gh", serviceType, hours), Amount: base},
		},
	}

	if rate.ExtraChildRate.IsPositive() && children > 2 {
		extra := rate.ExtraChildRate.Mul(h).Mul(decimal.NewFromInt(int64(children - 2))).Round(2)
		q.Total = q.Total.Add(extra)
		q.Breakdown = append(q.Breakdown, Line{
			Label:  fmt.Sprintf("%d enfant(s) supplémentaire(s)", children-2),
			Amount: extra,
		})
	}

	return q, nil
}

func fallbackRate(serviceType string) decimal.Decimal {
	if r, ok := fallbackRates[serviceType]; ok {
		return decimal.RequireFromString(r)
	}
	return decimal.RequireFromString(fallbackDefaultRate)
}

// RateRepository reads service_rates from the store.
type RateRepository struct {
	db *pgxpool.Pool
}

func NewRateRepository(db *pgxpool.Pool) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) RateFor(ctx context.Context, serviceType string) (Rate, bool, error) {
	const q = `
SELECT hourly_rate, extra_child_rate
FROM service_rates
WHERE service_type = $1
`
	var rate Rate
	if err := r.db.QueryRow(ctx, q, serviceType).Scan(&rate.HourlyRate, &rate.ExtraChildRate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rate{}, false, nil
		}
		return Rate{}, false, err
	}
	return rate, true, nil
}
