package portal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"garde-booking/internal/booking"
)

type fakeTokens struct {
	records map[string]*TokenRecord // keyed by token
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{records: map[string]*TokenRecord{}}
}

func (f *fakeTokens) Issue(ctx context.Context, bookingID string, now time.Time) (*TokenRecord, error) {
	tr := &TokenRecord{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(TokenTTL),
		CreatedAt: now,
	}
	f.records[tr.Token] = tr
	return tr, nil
}

func (f *fakeTokens) Resolve(ctx context.Context, token string, now time.Time) (*TokenRecord, error) {
	tr, ok := f.records[token]
	if !ok || tr.UsedAt != nil || !tr.ExpiresAt.After(now) {
		return nil, ErrTokenInvalid
	}
	cp := *tr
	return &cp, nil
}

func (f *fakeTokens) MarkUsed(ctx context.Context, id string, now time.Time) error {
	for _, tr := range f.records {
		if tr.ID == id {
			if tr.UsedAt != nil {
				return ErrTokenInvalid
			}
			tr.UsedAt = &now
			return nil
		}
	}
	return ErrTokenInvalid
}

type fakeBookings struct {
	records map[string]*booking.BookingRequest
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{records: map[string]*booking.BookingRequest{}}
}

func (f *fakeBookings) seed(b booking.BookingRequest) string {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	f.records[b.ID] = &b
	return b.ID
}

func (f *fakeBookings) GetByID(ctx context.Context, id string) (*booking.BookingRequest, error) {
	b, ok := f.records[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) UpdateDetails(ctx context.Context, id string, d booking.DetailsUpdate) error {
	b, ok := f.records[id]
	if !ok {
		return booking.ErrNotFound
	}
	if d.ChildrenDetails != "" {
		b.ChildrenDetails = d.ChildrenDetails
	}
	if d.SpecialInstructions != "" {
		b.SpecialInstructions = d.SpecialInstructions
	}
	return nil
}

func newPortal(tokens *fakeTokens, bookings *fakeBookings) *Service {
	return &Service{
		Tokens:   tokens,
		Bookings: bookings,
		BaseURL:  "https://example.org/complement",
	}
}

func TestRequestDetails_IssuesLink(t *testing.T) {
	tokens := newFakeTokens()
	bookings := newFakeBookings()
	id := bookings.seed(booking.BookingRequest{ParentName: "Marie", ParentEmail: "marie@example.org"})

	link, err := newPortal(tokens, bookings).RequestDetails(context.Background(), id)
	if err != nil {
		t.Fatalf("request details: %v", err)
	}
	if !strings.HasPrefix(link, "https://example.org/complement?token=") {
		t.Fatalf("unexpected link: %q", link)
	}
	if len(tokens.records) != 1 {
		t.Fatalf("expected one issued token, got %d", len(tokens.records))
	}
}

func TestRequestDetails_NoRequesterEmail(t *testing.T) {
	bookings := newFakeBookings()
	id := bookings.seed(booking.BookingRequest{ParentName: "Marie"})

	_, err := newPortal(newFakeTokens(), bookings).RequestDetails(context.Background(), id)
	var verr booking.ValidationError
	if !errors.As(err, &verr) || verr.Code != "REQUESTER_EMAIL_MISSING" {
		t.Fatalf("expected REQUESTER_EMAIL_MISSING, got %v", err)
	}
}

func TestSubmitDetails_OneShot(t *testing.T) {
	tokens := newFakeTokens()
	bookings := newFakeBookings()
	id := bookings.seed(booking.BookingRequest{ParentEmail: "marie@example.org"})
	svc := newPortal(tokens, bookings)

	link, err := svc.RequestDetails(context.Background(), id)
	if err != nil {
		t.Fatalf("request details: %v", err)
	}
	token := strings.TrimPrefix(link, "https://example.org/complement?token=")

	update := booking.DetailsUpdate{ChildrenDetails: "Deux enfants, 3 et 5 ans", SpecialInstructions: "Allergie aux arachides"}
	if err := svc.SubmitDetails(context.Background(), token, update); err != nil {
		t.Fatalf("submit: %v", err)
	}

	b, _ := bookings.GetByID(context.Background(), id)
	if b.ChildrenDetails != update.ChildrenDetails || b.SpecialInstructions != update.SpecialInstructions {
		t.Fatalf("details not merged: %+v", b)
	}

	if err := svc.SubmitDetails(context.Background(), token, update); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second submit must fail with ErrTokenInvalid, got %v", err)
	}
}

func TestSubmitDetails_EmptyUpdateRejected(t *testing.T) {
	tokens := newFakeTokens()
	bookings := newFakeBookings()
	id := bookings.seed(booking.BookingRequest{ParentEmail: "marie@example.org"})
	svc := newPortal(tokens, bookings)

	link, _ := svc.RequestDetails(context.Background(), id)
	token := strings.TrimPrefix(link, "https://example.org/complement?token=")

	err := svc.SubmitDetails(context.Background(), token, booking.DetailsUpdate{})
	var verr booking.ValidationError
	if !errors.As(err, &verr) || verr.Code != "DETAILS_EMPTY" {
		t.Fatalf("expected DETAILS_EMPTY, got %v", err)
	}
	if _, err := tokens.Resolve(context.Background(), token, time.Now()); err != nil {
		t.Fatalf("rejected submit must not consume the token: %v", err)
	}
}

func TestView_ExpiredToken(t *testing.T) {
	tokens := newFakeTokens()
	bookings := newFakeBookings()
	id := bookings.seed(booking.BookingRequest{ParentEmail: "marie@example.org"})

	tr, _ := tokens.Issue(context.Background(), id, time.Now().Add(-TokenTTL-time.Hour))
	if _, err := newPortal(tokens, bookings).View(context.Background(), tr.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}
