package checkoutdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FollowUpKind names the backend call a follow-up replays.
type FollowUpKind string

const (
	FollowUpLimitUpdate   FollowUpKind = "limit_update"
	FollowUpPaymentRecord FollowUpKind = "payment_record"
)

// FollowUp is a backend call that must happen after a successful charge but
// has not been acknowledged yet.
type FollowUp struct {
	ID        string
	Kind      FollowUpKind
	Email     string
	Payload   json.RawMessage
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// Repository persists follow-ups in the checkout_followup table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Enqueue stores payload (JSON encoded) as a pending follow-up and returns its id.
func (r *Repository) Enqueue(ctx context.Context, kind FollowUpKind, email string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode follow-up payload: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO checkout_followup (id, kind, email, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(kind), email, raw, r.now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert follow-up: %w", err)
	}
	return id, nil
}

// Pending returns up to limit undone follow-ups with fewer than maxAttempts
// attempts, oldest first.
func (r *Repository) Pending(ctx context.Context, maxAttempts, limit int) ([]FollowUp, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, email, payload, attempts, last_error, created_at
		   FROM checkout_followup
		  WHERE done_at IS NULL AND attempts < $1
		  ORDER BY created_at, id
		  LIMIT $2`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending follow-ups: %w", err)
	}
	defer rows.Close()

	var out []FollowUp
	for rows.Next() {
		var f FollowUp
		var kind string
		var payload []byte
		if err := rows.Scan(&f.ID, &kind, &f.Email, &payload, &f.Attempts, &f.LastError, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		f.Kind = FollowUpKind(kind)
		f.Payload = json.RawMessage(payload)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-ups: %w", err)
	}
	return out, nil
}

// MarkDone flags a follow-up as delivered.
func (r *Repository) MarkDone(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE checkout_followup SET done_at = $2 WHERE id = $1 AND done_at IS NULL`, id, r.now().UTC())
	if err != nil {
		return fmt.Errorf("mark follow-up done: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark follow-up done: %s not pending", id)
	}
	return nil
}

// MarkFailed records a failed attempt.
func (r *Repository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE checkout_followup SET attempts = attempts + 1, last_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("mark follow-up failed: %w", err)
	}
	return nil
}
