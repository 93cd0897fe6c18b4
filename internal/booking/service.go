package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garde-booking/internal/captcha"
	"garde-booking/internal/pricing"
	"garde-booking/internal/status"
)

// Store is the record store contract the service orchestrates. The pgx
// Repository implements it; tests substitute a fake.
type Store interface {
	Insert(ctx context.Context, b *BookingRequest) error
	GetByID(ctx context.Context, id string) (*BookingRequest, error)
	ListActive(ctx context.Context) ([]Summary, error)
	ListArchived(ctx context.Context) ([]Summary, error)
	ListTrashed(ctx context.Context) ([]Summary, error)
	CommitStatus(ctx context.Context, ch StatusChange) error
	Trash(ctx context.Context, id, actor, notes string) error
	Restore(ctx context.Context, id string) error
	Archive(ctx context.Context, id, actor, notes string) error
	Unarchive(ctx context.Context, id string) error
	PermanentlyDelete(ctx context.Context, id string) error
	UpdateEstimatedTotal(ctx context.Context, id string, total decimal.Decimal) error
}

// Notifier sends the booking emails. All sends are best-effort; a delivery
// failure never fails the triggering operation.
type Notifier interface {
	BookingReceived(ctx context.Context, b *BookingRequest) error
	BookingConfirmed(ctx context.Context, b *BookingRequest) error
	BookingCancelled(ctx context.Context, b *BookingRequest) error
	DetailsRequested(ctx context.Context, b *BookingRequest, link string) error
}

// Service owns every status mutation. No other code path writes the status
// column, so the transition table is enforced exactly once.
type Service struct {
	Store    Store
	Pricer   pricing.Quoter
	Captcha  captcha.Verifier
	Notifier Notifier
}

// ChangeOptions accompanies a transition request.
type ChangeOptions struct {
	Actor         string
	Notes         string
	Reason        string
	AdminApproved bool
}

// BulkOutcome aggregates per-item results of a bulk operation. One failing
// record never aborts the batch.
type BulkOutcome struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// restoredStatusMenu constrains the follow-up status after a restore or
// unarchive: the record re-enters the lifecycle as pending, contacted or
// confirmed.
var restoredStatusMenu = []status.Code{status.Nouvelle, status.Acceptee, status.Confirmee}

// Create validates the form submission, verifies the captcha, prices the
// request and persists it. The notification emails are fire-and-forget.
func (s *Service) Create(ctx context.Context, in CreateInput) (*BookingRequest, error) {
	if err := in.Validate(time.Now()); err != nil {
		return nil, err
	}

	if s.Captcha != nil {
		ok, err := s.Captcha.Verify(ctx, in.CaptchaID, in.CaptchaAnswer)
		if err != nil {
			return nil, PersistenceError{Op: "captcha verify", Err: err}
		}
		if !ok {
			return nil, ValidationError{Code: "CAPTCHA_INVALID", Message: "captcha verification failed"}
		}
	}

	hours, err := DurationHours(in.StartTime, in.EndTime)
	if err != nil {
		return nil, ValidationError{Code: "DURATION_INVALID", Message: err.Error()}
	}

	quote, err := s.Pricer.Quote(ctx, in.ServiceType, hours, in.ChildrenCount)
	if err != nil {
		return nil, fmt.Errorf("price calculation: %w", err)
	}

	now := time.Now()
	b := &BookingRequest{
		ID:                    uuid.NewString(),
		Status:                status.Nouvelle,
		ParentName:            strings.TrimSpace(in.ParentName),
		ParentPhone:           strings.TrimSpace(in.ParentPhone),
		ParentEmail:           strings.TrimSpace(in.ParentEmail),
		ParentAddress:         strings.TrimSpace(in.ParentAddress),
		ServiceType:           in.ServiceType,
		RequestedDate:         in.RequestedDate,
		StartTime:             in.StartTime,
		EndTime:               in.EndTime,
		DurationHours:         hours,
		ChildrenCount:         in.ChildrenCount,
		ChildrenDetails:       in.ChildrenDetails,
		ChildrenAges:          in.ChildrenAges,
		EmergencyContactName:  in.EmergencyContactName,
		EmergencyContactPhone: in.EmergencyContactPhone,
		SpecialInstructions:   in.SpecialInstructions,
		EstimatedTotal:        quote.Total,
		Source:                in.Source,
		UTMSource:             in.UTMSource,
		UTMMedium:             in.UTMMedium,
		UTMCampaign:           in.UTMCampaign,
		IPAddress:             in.IPAddress,
		UserAgent:             in.UserAgent,
		CaptchaVerified:       s.Captcha != nil,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.Store.Insert(ctx, b); err != nil {
		return nil, err
	}

	s.notifyAsync("reception", b, func(ctx context.Context, b *BookingRequest) error {
		return s.Notifier.BookingReceived(ctx, b)
	})
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*BookingRequest, error) {
	return s.Store.GetByID(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]Summary, error) {
	return s.Store.ListActive(ctx)
}

func (s *Service) ListArchived(ctx context.Context) ([]Summary, error) {
	return s.Store.ListArchived(ctx)
}

func (s *Service) ListTrashed(ctx context.Context) ([]Summary, error) {
	return s.Store.ListTrashed(ctx)
}

// ChangeStatus is the policy choke point: it checks the transition table,
// enforces the edge's notes/approval requirements, and commits the status
// write with its history entry in one transaction. Side effects attached to
// the edge run after the commit, best-effort.
func (s *Service) ChangeStatus(ctx context.Context, id string, to status.Code, opts ChangeOptions) (*BookingRequest, error) {
	cur, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req := status.RequirementsFor(cur.Status, to)
	if req == nil {
		return nil, PolicyError{From: cur.Status, To: to}
	}
	if req.RequiresNotes && strings.TrimSpace(opts.Notes) == "" {
		return nil, ValidationError{Code: "NOTES_REQUIRED", Message: fmt.Sprintf("transition %s -> %s requires notes", cur.Status, to)}
	}
	if req.RequiresAdminApproval && !opts.AdminApproved {
		return nil, ValidationError{Code: "ADMIN_APPROVAL_REQUIRED", Message: fmt.Sprintf("transition %s -> %s requires admin approval", cur.Status, to)}
	}

	from := cur.Status
	if err := s.Store.CommitStatus(ctx, StatusChange{
		BookingID: id,
		From:      &from,
		To:        to,
		Actor:     opts.Actor,
		Notes:     opts.Notes,
		Reason:    opts.Reason,
	}); err != nil {
		return nil, err
	}

	updated, err := s.Store.GetByID(ctx, id)
	if err != nil {
		// Committed but unreadable; report the transition as done.
		updated = cur
		updated.Status = to
	}

	s.runAutoActions(ctx, from, to, updated)
	return updated, nil
}

// BulkChangeStatus fans the transition out over the batch, one record at a
// time and concurrently. Items fail independently; the outcome reports
// aggregate counts plus the per-id error messages.
func (s *Service) BulkChangeStatus(ctx context.Context, ids []string, to status.Code, opts ChangeOptions) BulkOutcome {
	return s.bulk(ids, func(id string) error {
		_, err := s.ChangeStatus(ctx, id, to, opts)
		return err
	})
}

// Trash soft-deletes the record. The coupled cancellation status is applied
// by the store in the same transaction.
func (s *Service) Trash(ctx context.Context, id string, opts ChangeOptions) error {
	if err := s.Store.Trash(ctx, id, opts.Actor, opts.Notes); err != nil {
		return err
	}
	if b, err := s.Store.GetByID(ctx, id); err == nil {
		s.notifyAsync("annulation", b, func(ctx context.Context, b *BookingRequest) error {
			return s.Notifier.BookingCancelled(ctx, b)
		})
	}
	return nil
}

func (s *Service) BulkTrash(ctx context.Context, ids []string, opts ChangeOptions) BulkOutcome {
	return s.bulk(ids, func(id string) error {
		return s.Trash(ctx, id, opts)
	})
}

// Restore brings a trashed record back to the active view. The status stays
// whatever it was; the caller follows up with ChooseRestoredStatus.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.Store.Restore(ctx, id)
}

func (s *Service) BulkRestore(ctx context.Context, ids []string) BulkOutcome {
	return s.bulk(ids, func(id string) error {
		return s.Restore(ctx, id)
	})
}

// Archive marks the record long-term-retained, coupling the terminee status
// in the same transaction.
func (s *Service) Archive(ctx context.Context, id string, opts ChangeOptions) error {
	return s.Store.Archive(ctx, id, opts.Actor, opts.Notes)
}

func (s *Service) BulkArchive(ctx context.Context, ids []string, opts ChangeOptions) BulkOutcome {
	return s.bulk(ids, func(id string) error {
		return s.Archive(ctx, id, opts)
	})
}

// Unarchive returns the record to the active view, status untouched.
func (s *Service) Unarchive(ctx context.Context, id string) error {
	return s.Store.Unarchive(ctx, id)
}

// ChooseRestoredStatus applies the follow-up status after a restore or
// unarchive. The choice is constrained to the restored-status menu rather
// than the transition table: a cancelled record re-enters the lifecycle here.
func (s *Service) ChooseRestoredStatus(ctx context.Context, id string, to status.Code, actor string) (*BookingRequest, error) {
	if !restoredStatusAllowed(to) {
		return nil, ValidationError{Code: "RESTORED_STATUS_INVALID", Message: fmt.Sprintf("status %s is not in the restored-status menu", to)}
	}

	cur, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.DeletedAt != nil {
		return nil, StateConflictError{Code: "STILL_TRASHED", Message: "restore the record before choosing a status"}
	}
	if cur.ArchivedAt != nil {
		return nil, StateConflictError{Code: "STILL_ARCHIVED", Message: "unarchive the record before choosing a status"}
	}

	from := cur.Status
	if err := s.Store.CommitStatus(ctx, StatusChange{
		BookingID: id,
		From:      &from,
		To:        to,
		Actor:     actor,
		Reason:    "restauration",
	}); err != nil {
		return nil, err
	}
	cur.Status = to
	return cur, nil
}

// BulkUnarchive restores every record of the batch and applies the chosen
// status uniformly.
func (s *Service) BulkUnarchive(ctx context.Context, ids []string, to status.Code, actor string) BulkOutcome {
	if !restoredStatusAllowed(to) {
		errs := make(map[string]string, len(ids))
		for _, id := range ids {
			errs[id] = fmt.Sprintf("status %s is not in the restored-status menu", to)
		}
		return BulkOutcome{Failed: len(ids), Errors: errs}
	}
	return s.bulk(ids, func(id string) error {
		if err := s.Unarchive(ctx, id); err != nil {
			return err
		}
		_, err := s.ChooseRestoredStatus(ctx, id, to, actor)
		return err
	})
}

// PermanentlyDelete is irreversible. History entries cascade with the record.
func (s *Service) PermanentlyDelete(ctx context.Context, id string) error {
	return s.Store.PermanentlyDelete(ctx, id)
}

func (s *Service) bulk(ids []string, op func(id string) error) BulkOutcome {
	out := BulkOutcome{Errors: map[string]string{}}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := op(id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed++
				out.Errors[id] = err.Error()
				return
			}
			out.Succeeded++
		}(id)
	}
	wg.Wait()

	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out
}

func (s *Service) runAutoActions(ctx context.Context, from, to status.Code, b *BookingRequest) {
	for _, action := range status.ActionsFor(from, to) {
		switch action {
		case status.ActionSendConfirmationEmail:
			s.notifyAsync("confirmation", b, func(ctx context.Context, b *BookingRequest) error {
				return s.Notifier.BookingConfirmed(ctx, b)
			})
		case status.ActionSendCancellationEmail:
			s.notifyAsync("annulation", b, func(ctx context.Context, b *BookingRequest) error {
				return s.Notifier.BookingCancelled(ctx, b)
			})
		case status.ActionRecalculatePrice:
			if err := s.recalculatePrice(ctx, b); err != nil {
				log.Printf("booking %s: price recalculation failed: %v", b.ID, err)
			}
		}
	}
}

func (s *Service) recalculatePrice(ctx context.Context, b *BookingRequest) error {
	quote, err := s.Pricer.Quote(ctx, b.ServiceType, b.DurationHours, b.ChildrenCount)
	if err != nil {
		return err
	}
	if quote.Total.Equal(b.EstimatedTotal) {
		return nil
	}
	if err := s.Store.UpdateEstimatedTotal(ctx, b.ID, quote.Total); err != nil {
		return err
	}
	b.EstimatedTotal = quote.Total
	return nil
}

func (s *Service) notifyAsync(what string, b *BookingRequest, send func(context.Context, *BookingRequest) error) {
	if s.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx, b); err != nil {
			log.Printf("booking %s: %s email failed: %v", b.ID, what, err)
		}
	}()
}

func restoredStatusAllowed(to status.Code) bool {
	for _, c := range restoredStatusMenu {
		if c == to {
			return true
		}
	}
	return false
}
