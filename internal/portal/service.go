package portal

import (
	"context"
	"errors"
	"log"
	"time"

	"garde-booking/internal/booking"
)

// ErrTokenInvalid covers every way a link can be unusable: unknown, expired
// or already used. Callers get no distinction; a requester only needs to know
// the link no longer works.
var ErrTokenInvalid = errors.New("details link is invalid or expired")

// TokenStore is implemented by the pgx Repository; tests substitute a fake.
type TokenStore interface {
	Issue(ctx context.Context, bookingID string, now time.Time) (*TokenRecord, error)
	Resolve(ctx context.Context, token string, now time.Time) (*TokenRecord, error)
	MarkUsed(ctx context.Context, id string, now time.Time) error
}

// BookingStore is the slice of the record store the portal needs.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*booking.BookingRequest, error)
	UpdateDetails(ctx context.Context, id string, d booking.DetailsUpdate) error
}

// Service issues details-request links and accepts the requester's
// submissions through them.
type Service struct {
	Tokens   TokenStore
	Bookings BookingStore
	Notifier booking.Notifier
	BaseURL  string
}

// RequestDetails issues a secure link for the booking and emails it to the
// requester. The email is fire-and-forget; the link is returned so the
// dashboard can also show it to the admin.
func (s *Service) RequestDetails(ctx context.Context, bookingID string) (string, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.ParentEmail == "" {
		return "", booking.ValidationError{Code: "REQUESTER_EMAIL_MISSING", Message: "booking has no requester email to send the link to"}
	}

	tr, err := s.Tokens.Issue(ctx, bookingID, time.Now())
	if err != nil {
		return "", booking.PersistenceError{Op: "issue details token", Err: err}
	}
	link := s.BaseURL + "?token=" + tr.Token

	if s.Notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Notifier.DetailsRequested(ctx, b, link); err != nil {
				log.Printf("booking %s: details-request email failed: %v", b.ID, err)
			}
		}()
	}
	return link, nil
}

// View resolves a link and returns the booking it belongs to, so the form
// can show the requester what they are completing.
func (s *Service) View(ctx context.Context, token string) (*booking.BookingRequest, error) {
	tr, err := s.Tokens.Resolve(ctx, token, time.Now())
	if err != nil {
		return nil, err
	}
	return s.Bookings.GetByID(ctx, tr.BookingID)
}

// SubmitDetails consumes the link and merges the submitted fields into the
// booking. A link submits at most once.
func (s *Service) SubmitDetails(ctx context.Context, token string, d booking.DetailsUpdate) error {
	if d.Empty() {
		return booking.ValidationError{Code: "DETAILS_EMPTY", Message: "at least one field must be provided"}
	}

	now := time.Now()
	tr, err := s.Tokens.Resolve(ctx, token, now)
	if err != nil {
		return err
	}
	if err := s.Bookings.UpdateDetails(ctx, tr.BookingID, d); err != nil {
		return err
	}
	return s.Tokens.MarkUsed(ctx, tr.ID, now)
}
