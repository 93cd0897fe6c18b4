package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"garde-booking/internal/history"
	"garde-booking/internal/status"
	"garde-booking/pkg/db"
)

// StatusChange describes one transition about to be committed. The repository
// writes the status update and its history entry in a single transaction.
type StatusChange struct {
	BookingID string
	From      *status.Code
	To        status.Code
	Actor     string
	Notes     string
	Reason    string
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const bookingColumns = `
id, status, parent_name, parent_phone, COALESCE(parent_email, ''), COALESCE(parent_address, ''),
service_type, to_char(requested_date, 'YYYY-MM-DD'), start_time, end_time, duration_hours,
children_count, COALESCE(children_details, ''), COALESCE(children_ages, ''),
COALESCE(emergency_contact_name, ''), COALESCE(emergency_contact_phone, ''), COALESCE(special_instructions, ''),
estimated_total, COALESCE(source, ''), COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''),
COALESCE(ip_address, ''), COALESCE(user_agent, ''), captcha_verified,
created_at, updated_at, archived_at, deleted_at`

func scanBooking(row pgx.Row) (*BookingRequest, error) {
	var b BookingRequest
	var st string
	if err := row.Scan(
		&b.ID, &st, &b.ParentName, &b.ParentPhone, &b.ParentEmail, &b.ParentAddress,
		&b.ServiceType, &b.RequestedDate, &b.StartTime, &b.EndTime, &b.DurationHours,
		&b.ChildrenCount, &b.ChildrenDetails, &b.ChildrenAges,
		&b.EmergencyContactName, &b.EmergencyContactPhone, &b.SpecialInstructions,
		&b.EstimatedTotal, &b.Source, &b.UTMSource, &b.UTMMedium, &b.UTMCampaign,
		&b.IPAddress, &b.UserAgent, &b.CaptchaVerified,
		&b.CreatedAt, &b.UpdatedAt, &b.ArchivedAt, &b.DeletedAt,
	); err != nil {
		return nil, err
	}
	b.Status = status.Code(st)
	return &b, nil
}

// Insert persists a new record and its creation history entry in one
// transaction.
func (r *Repository) Insert(ctx context.Context, b *BookingRequest) error {
	const q = `
INSERT INTO booking_requests (
  id, status, parent_name, parent_phone, parent_email, parent_address,
  service_type, requested_date, start_time, end_time, duration_hours,
  children_count, children_details, children_ages,
  emergency_contact_name, emergency_contact_phone, special_instructions,
  estimated_total, source, utm_source, utm_medium, utm_campaign,
  ip_address, user_agent, captcha_verified, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''),
  $7, $8::date, $9, $10, $11,
  $12, NULLIF($13, ''), NULLIF($14, ''),
  NULLIF($15, ''), NULLIF($16, ''), NULLIF($17, ''),
  $18, NULLIF($19, ''), NULLIF($20, ''), NULLIF($21, ''), NULLIF($22, ''),
  NULLIF($23, ''), NULLIF($24, ''), $25, $26, $27
)
`
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q,
			b.ID, string(b.Status), b.ParentName, b.ParentPhone, b.ParentEmail, b.ParentAddress,
			b.ServiceType, b.RequestedDate, b.StartTime, b.EndTime, b.DurationHours,
			b.ChildrenCount, b.ChildrenDetails, b.ChildrenAges,
			b.EmergencyContactName, b.EmergencyContactPhone, b.SpecialInstructions,
			b.EstimatedTotal, b.Source, b.UTMSource, b.UTMMedium, b.UTMCampaign,
			b.IPAddress, b.UserAgent, b.CaptchaVerified, b.CreatedAt, b.UpdatedAt,
		); err != nil {
			return err
		}
		return history.Insert(ctx, tx, history.Entry{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			ToStatus:  b.Status,
			ChangedBy: "client",
			ChangedAt: b.CreatedAt,
		})
	})
	if err != nil {
		return PersistenceError{Op: "insert", Err: err}
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*BookingRequest, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM booking_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, PersistenceError{Op: "get", Err: err}
	}
	return b, nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (*BookingRequest, error) {
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM booking_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]Summary, error) {
	return r.list(ctx, `deleted_at IS NULL AND archived_at IS NULL`)
}

func (r *Repository) ListArchived(ctx context.Context) ([]Summary, error) {
	return r.list(ctx, `archived_at IS NOT NULL`)
}

func (r *Repository) ListTrashed(ctx context.Context) ([]Summary, error) {
	return r.list(ctx, `deleted_at IS NOT NULL`)
}

func (r *Repository) list(ctx context.Context, where string) ([]Summary, error) {
	q := `
SELECT id, status, parent_name, parent_phone, service_type,
       to_char(requested_date, 'YYYY-MM-DD'), start_time, end_time,
       children_count, estimated_total, created_at, archived_at, deleted_at
FROM booking_requests
WHERE ` + where + `
ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var st string
		if err := rows.Scan(
			&s.ID, &st, &s.ParentName, &s.ParentPhone, &s.ServiceType,
			&s.RequestedDate, &s.StartTime, &s.EndTime,
			&s.ChildrenCount, &s.EstimatedTotal, &s.CreatedAt, &s.ArchivedAt, &s.DeletedAt,
		); err != nil {
			return nil, PersistenceError{Op: "list", Err: err}
		}
		s.Status = status.Code(st)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, PersistenceError{Op: "list", Err: err}
	}
	return out, nil
}

// CommitStatus applies a policy-approved transition. The status write, the
// archived_at/deleted_at coupling for the archivée/supprimee statuses, and
// the history entry commit as one transaction. Callers go through
// Service.ChangeStatus; the status column is never written anywhere else.
func (r *Repository) CommitStatus(ctx context.Context, ch StatusChange) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getForUpdate(ctx, tx, ch.BookingID)
		if err != nil {
			return err
		}
		if ch.From == nil {
			ch.From = &cur.Status
		}

		var q string
		switch ch.To {
		case status.Archivee:
			q = `UPDATE booking_requests SET status = $2, archived_at = NOW(), deleted_at = NULL, updated_at = NOW() WHERE id = $1`
		case status.Supprimee:
			q = `UPDATE booking_requests SET status = $2, deleted_at = NOW(), archived_at = NULL, updated_at = NOW() WHERE id = $1`
		default:
			q = `UPDATE booking_requests SET status = $2, updated_at = NOW() WHERE id = $1`
		}
		if _, err := tx.Exec(ctx, q, ch.BookingID, string(ch.To)); err != nil {
			return err
		}
		return history.Insert(ctx, tx, history.Entry{
			ID:               uuid.NewString(),
			BookingID:        ch.BookingID,
			FromStatus:       ch.From,
			ToStatus:         ch.To,
			ChangedBy:        ch.Actor,
			ChangedAt:        time.Now(),
			Notes:            ch.Notes,
			TransitionReason: ch.Reason,
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return PersistenceError{Op: "commit status", Err: err}
	}
	return nil
}

// Trash soft-deletes an active record. The deleted_at flag, the coupled
// annulee status and the history entry are one transaction; a trashed record
// always reads as cancelled.
func (r *Repository) Trash(ctx context.Context, id, actor, notes string) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.DeletedAt != nil {
			return StateConflictError{Code: "ALREADY_TRASHED", Message: "record is already in the trash"}
		}
		if cur.ArchivedAt != nil {
			return StateConflictError{Code: "ARCHIVED_RECORD", Message: "archived record cannot be trashed"}
		}
		const q = `UPDATE booking_requests SET deleted_at = NOW(), status = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, q, id, string(status.Annulee)); err != nil {
			return err
		}
		if cur.Status == status.Annulee {
			return nil
		}
		from := cur.Status
		return history.Insert(ctx, tx, history.Entry{
			ID:               uuid.NewString(),
			BookingID:        id,
			FromStatus:       &from,
			ToStatus:         status.Annulee,
			ChangedBy:        actor,
			ChangedAt:        time.Now(),
			Notes:            notes,
			TransitionReason: "mise à la corbeille",
		})
	})
	return liftStateErr("trash", err)
}

// Restore clears deleted_at. The status is left untouched; the caller picks
// the follow-up status through a separate transition.
func (r *Repository) Restore(ctx context.Context, id string) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.DeletedAt == nil {
			return StateConflictError{Code: "NOT_TRASHED", Message: "record is not in the trash"}
		}
		_, err = tx.Exec(ctx, `UPDATE booking_requests SET deleted_at = NULL, updated_at = NOW() WHERE id = $1`, id)
		return err
	})
	return liftStateErr("restore", err)
}

// Archive marks an active record long-term-retained and couples the terminee
// status, symmetric to Trash.
func (r *Repository) Archive(ctx context.Context, id, actor, notes string) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.ArchivedAt != nil {
			return StateConflictError{Code: "ALREADY_ARCHIVED", Message: "record is already archived"}
		}
		if cur.DeletedAt != nil {
			return StateConflictError{Code: "TRASHED_RECORD", Message: "trashed record cannot be archived"}
		}
		const q = `UPDATE booking_requests SET archived_at = NOW(), status = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, q, id, string(status.Terminee)); err != nil {
			return err
		}
		if cur.Status == status.Terminee {
			return nil
		}
		from := cur.Status
		return history.Insert(ctx, tx, history.Entry{
			ID:               uuid.NewString(),
			BookingID:        id,
			FromStatus:       &from,
			ToStatus:         status.Terminee,
			ChangedBy:        actor,
			ChangedAt:        time.Now(),
			Notes:            notes,
			TransitionReason: "archivage",
		})
	})
	return liftStateErr("archive", err)
}

func (r *Repository) Unarchive(ctx context.Context, id string) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.ArchivedAt == nil {
			return StateConflictError{Code: "NOT_ARCHIVED", Message: "record is not archived"}
		}
		_, err = tx.Exec(ctx, `UPDATE booking_requests SET archived_at = NULL, updated_at = NOW() WHERE id = $1`, id)
		return err
	})
	return liftStateErr("unarchive", err)
}

// PermanentlyDelete removes the record for good. History entries cascade.
func (r *Repository) PermanentlyDelete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM booking_requests WHERE id = $1`, id)
	if err != nil {
		return PersistenceError{Op: "delete", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDetails merges requester-submitted supplementary fields into the
// record. Blank fields keep their stored value.
func (r *Repository) UpdateDetails(ctx context.Context, id string, d DetailsUpdate) error {
	const q = `
UPDATE booking_requests SET
  children_details        = COALESCE(NULLIF($2, ''), children_details),
  children_ages           = COALESCE(NULLIF($3, ''), children_ages),
  emergency_contact_name  = COALESCE(NULLIF($4, ''), emergency_contact_name),
  emergency_contact_phone = COALESCE(NULLIF($5, ''), emergency_contact_phone),
  special_instructions    = COALESCE(NULLIF($6, ''), special_instructions),
  updated_at              = NOW()
WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, id,
		d.ChildrenDetails, d.ChildrenAges, d.EmergencyContactName, d.EmergencyContactPhone, d.SpecialInstructions)
	if err != nil {
		return PersistenceError{Op: "update details", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEstimatedTotal rewrites the price after an explicit recalculation.
func (r *Repository) UpdateEstimatedTotal(ctx context.Context, id string, total decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE booking_requests SET estimated_total = $2, updated_at = NOW() WHERE id = $1`, id, total)
	if err != nil {
		return PersistenceError{Op: "update total", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// liftStateErr keeps domain errors intact and wraps everything else.
func liftStateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflict StateConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return PersistenceError{Op: op, Err: err}
}
