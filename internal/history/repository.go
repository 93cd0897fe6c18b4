package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"garde-booking/internal/status"
)

// Entry is one immutable audit record of a committed status transition.
// FromStatus is nil for the creation entry.
type Entry struct {
	ID               string       `json:"id"`
	BookingID        string       `json:"bookingId"`
	FromStatus       *status.Code `json:"fromStatus,omitempty"`
	ToStatus         status.Code  `json:"toStatus"`
	ChangedBy        string       `json:"changedBy"`
	ChangedAt        time.Time    `json:"changedAt"`
	Notes            string       `json:"notes,omitempty"`
	TransitionReason string       `json:"transitionReason,omitempty"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert appends an entry inside the caller's transaction. Every committed
// status write goes through here; a transition and its history entry commit
// or roll back together.
func Insert(ctx context.Context, tx pgx.Tx, e Entry) error {
	var from *string
	if e.FromStatus != nil {
		s := string(*e.FromStatus)
		from = &s
	}
	const q = `
INSERT INTO booking_status_changes (id, booking_request_id, from_status, to_status, changed_by, changed_at, notes, transition_reason)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
`
	_, err := tx.Exec(ctx, q, e.ID, e.BookingID, from, string(e.ToStatus), e.ChangedBy, e.ChangedAt, e.Notes, e.TransitionReason)
	return err
}

// ListByBooking returns the booking's transition log, newest first.
func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Entry, error) {
	const q = `
SELECT id, booking_request_id, from_status, to_status, changed_by, changed_at,
       COALESCE(notes, ''), COALESCE(transition_reason, '')
FROM booking_status_changes
WHERE booking_request_id = $1
ORDER BY changed_at DESC, id DESC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var from *string
		var to string
		if err := rows.Scan(&e.ID, &e.BookingID, &from, &to, &e.ChangedBy, &e.ChangedAt, &e.Notes, &e.TransitionReason); err != nil {
			return nil, err
		}
		if from != nil {
			c := status.Code(*from)
			e.FromStatus = &c
		}
		e.ToStatus = status.Code(to)
		out = append(out, e)
	}
	return out, rows.Err()
}
