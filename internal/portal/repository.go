package portal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenTTL bounds how long a details-request link stays usable.
const TokenTTL = 7 * 24 * time.Hour

// TokenRecord is one issued details-request link. A token is single-use:
// UsedAt is set when the requester submits their details.
type TokenRecord struct {
	ID        string     `json:"id"`
	BookingID string     `json:"bookingId"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Issue creates a fresh token for the booking. Earlier unused tokens for the
// same booking stay valid until they expire.
func (r *Repository) Issue(ctx context.Context, bookingID string, now time.Time) (*TokenRecord, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	tr := &TokenRecord{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: now.Add(TokenTTL),
		CreatedAt: now,
	}
	const q = `
INSERT INTO details_tokens (id, booking_request_id, token, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	if _, err := r.db.Exec(ctx, q, tr.ID, tr.BookingID, tr.Token, tr.ExpiresAt, tr.CreatedAt); err != nil {
		return nil, err
	}
	return tr, nil
}

// Resolve returns the token record if it is unexpired and unused.
func (r *Repository) Resolve(ctx context.Context, token string, now time.Time) (*TokenRecord, error) {
	const q = `
SELECT id, booking_request_id, token, expires_at, used_at, created_at
FROM details_tokens
WHERE token = $1
`
	var tr TokenRecord
	if err := r.db.QueryRow(ctx, q, token).Scan(&tr.ID, &tr.BookingID, &tr.Token, &tr.ExpiresAt, &tr.UsedAt, &tr.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if tr.UsedAt != nil || !tr.ExpiresAt.After(now) {
		return nil, ErrTokenInvalid
	}
	return &tr, nil
}

// MarkUsed consumes the token. Returns ErrTokenInvalid when it was already
// consumed concurrently.
func (r *Repository) MarkUsed(ctx context.Context, id string, now time.Time) error {
	const q = `UPDATE details_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`
	tag, err := r.db.Exec(ctx, q, id, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenInvalid
	}
	return nil
}
