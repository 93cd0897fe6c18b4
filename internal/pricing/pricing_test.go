package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type stubRates struct {
	rate Rate
	ok   bool
	err  error
}

func (s stubRates) RateFor(ctx context.Context, serviceType string) (Rate, bool, error) {
	return s.rate, s.ok, s.err
}

func TestQuote_FallbackRateWhenSourceUnavailable(t *testing.T) {
	c := NewCalculator(stubRates{err: errors.New("store down")})

	q, err := c.Quote(context.Background(), "babysitting", 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := decimal.RequireFromString("60.00")
	if !q.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, q.Total)
	}
	if len(q.Breakdown) != 1 {
		t.Fatalf("fallback quote should have a single base line, got %v", q.Breakdown)
	}
}

func TestQuote_FallbackDefaultRateForUnknownService(t *testing.T) {
	c := NewCalculator(stubRates{ok: false})

	q, err := c.Quote(context.Background(), "service_inconnu", 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("45.00"); !q.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, q.Total)
	}
}

func TestQuote_ConfiguredRateWithExtraChildSurcharge(t *testing.T) {
	c := NewCalculator(stubRates{
		rate: Rate{
			HourlyRate:     decimal.RequireFromString("12.00"),
			ExtraChildRate: decimal.RequireFromString("2.00"),
		},
		ok: true,
	})

	// 5h * 12 = 60, plus 2 extra children * 2.00 * 5h = 20.
	q, err := c.Quote(context.Background(), "garde_reguliere", 5, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("80.00"); !q.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, q.Total)
	}
	if len(q.Breakdown) != 2 {
		t.Fatalf("expected base + surcharge lines, got %v", q.Breakdown)
	}
}

func TestQuote_HalfHours(t *testing.T) {
	c := NewCalculator(nil)

	q, err := c.Quote(context.Background(), "babysitting", 3.5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("52.50"); !q.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, q.Total)
	}
}

func TestQuote_RejectsNonPositiveHours(t *testing.T) {
	c := NewCalculator(nil)
	if _, err := c.Quote(context.Background(), "babysitting", 0, 1); err == nil {
		t.Fatalf("expected error for zero hours")
	}
}
