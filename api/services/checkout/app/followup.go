package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	config "github.com/tbeaudouin05/admin-checkout/api/config"
	"github.com/tbeaudouin05/admin-checkout/api/metrics"
	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
	checkoutdb "github.com/tbeaudouin05/admin-checkout/api/services/checkout/db"
)

// FollowUpQueue persists post-payment backend calls that did not go through.
type FollowUpQueue interface {
	Enqueue(ctx context.Context, kind checkoutdb.FollowUpKind, email string, payload any) (string, error)
}

// FollowUpStore is the queue plus what the retrier needs to drain it.
type FollowUpStore interface {
	FollowUpQueue
	Pending(ctx context.Context, maxAttempts, limit int) ([]checkoutdb.FollowUp, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type followUpResult struct {
	redirect string
	errs     []error
}

func (r followUpResult) messages() []string {
	if len(r.errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.errs))
	for _, err := range r.errs {
		out = append(out, err.Error())
	}
	return out
}

// runFollowUps extends the user's limits and, once that resolved, records
// the payment. Failed calls are queued; the payment record is never sent
// ahead of the limit update.
func (c *Checkout) runFollowUps(ctx context.Context, pkg PackageInfo, paymentID string) followUpResult {
	update := LimitUpdateFor(c.user, pkg)
	record := backend.PaymentRecord{
		PaymentID: paymentID,
		Email:     c.user.Email,
		Amount:    pkg.Price,
		Date:      c.deps.Now().UTC().Format(config.PaymentDateLayout),
	}

	var res followUpResult
	if err := c.deps.Backend.ExtendEmployeeLimit(ctx, c.user.Email, update); err != nil {
		slog.Error("employee limit update failed after payment", "email", c.user.Email, "payment_id", paymentID, "err", err)
		res.errs = append(res.errs, fmt.Errorf("%w: %w", ErrLimitUpdate, err))
		c.queue(ctx, checkoutdb.FollowUpLimitUpdate, update)
		c.queue(ctx, checkoutdb.FollowUpPaymentRecord, record)
		return res
	}
	c.deps.Metrics.RecordFollowUp(string(checkoutdb.FollowUpLimitUpdate), "done")
	res.redirect = c.deps.DashboardRoute

	if err := c.deps.Backend.RecordPayment(ctx, record); err != nil {
		slog.Error("payment record failed after payment", "email", c.user.Email, "payment_id", paymentID, "err", err)
		res.errs = append(res.errs, fmt.Errorf("%w: %w", ErrPaymentRecord, err))
		c.queue(ctx, checkoutdb.FollowUpPaymentRecord, record)
		return res
	}
	c.deps.Metrics.RecordFollowUp(string(checkoutdb.FollowUpPaymentRecord), "done")
	return res
}

func (c *Checkout) queue(ctx context.Context, kind checkoutdb.FollowUpKind, payload any) {
	if c.deps.FollowUps == nil {
		slog.Error("no follow-up queue configured, dropping", "kind", kind, "email", c.user.Email)
		c.deps.Metrics.RecordFollowUp(string(kind), "dropped")
		return
	}
	id, err := c.deps.FollowUps.Enqueue(ctx, kind, c.user.Email, payload)
	if err != nil {
		slog.Error("failed to queue follow-up", "kind", kind, "email", c.user.Email, "err", err)
		c.deps.Metrics.RecordFollowUp(string(kind), "dropped")
		return
	}
	c.deps.Metrics.RecordFollowUp(string(kind), "queued")
	slog.Info("queued follow-up", "id", id, "kind", kind, "email", c.user.Email)
}

// Retrier replays queued follow-ups against the backend.
type Retrier struct {
	store       FollowUpStore
	backend     backend.Client
	metrics     *metrics.Metrics
	tick        time.Duration
	batch       int
	maxAttempts int
}

func NewRetrier(store FollowUpStore, b backend.Client, m *metrics.Metrics) *Retrier {
	return &Retrier{
		store:       store,
		backend:     b,
		metrics:     m,
		tick:        5 * time.Second,
		batch:       50,
		maxAttempts: 10,
	}
}

// Run drains the queue every tick until ctx is done.
func (r *Retrier) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				slog.Error("follow-up retry pass failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// ProcessPending replays one batch and returns how many follow-ups were
// delivered. Once a follow-up for an email fails, later ones for the same
// email wait for the next pass.
func (r *Retrier) ProcessPending(ctx context.Context) (int, error) {
	items, err := r.store.Pending(ctx, r.maxAttempts, r.batch)
	if err != nil {
		return 0, err
	}
	blocked := map[string]bool{}
	done := 0
	for _, f := range items {
		if blocked[f.Email] {
			continue
		}
		if err := r.replay(ctx, f); err != nil {
			blocked[f.Email] = true
			r.metrics.RecordFollowUp(string(f.Kind), "retry_failed")
			if f.Attempts+1 >= r.maxAttempts {
				slog.Error("follow-up exhausted retries", "id", f.ID, "kind", f.Kind, "email", f.Email, "err", err)
			} else {
				slog.Warn("follow-up replay failed", "id", f.ID, "kind", f.Kind, "email", f.Email, "attempt", f.Attempts+1, "err", err)
			}
			if markErr := r.store.MarkFailed(ctx, f.ID, err.Error()); markErr != nil {
				slog.Error("failed to record follow-up attempt", "id", f.ID, "err", markErr)
			}
			continue
		}
		if err := r.store.MarkDone(ctx, f.ID); err != nil {
			slog.Error("failed to mark follow-up done", "id", f.ID, "err", err)
			blocked[f.Email] = true
			continue
		}
		r.metrics.RecordFollowUp(string(f.Kind), "replayed")
		done++
	}
	return done, nil
}

func (r *Retrier) replay(ctx context.Context, f checkoutdb.FollowUp) error {
	switch f.Kind {
	case checkoutdb.FollowUpLimitUpdate:
		var u backend.LimitUpdate
		if err := json.Unmarshal(f.Payload, &u); err != nil {
			return fmt.Errorf("decode limit update: %w", err)
		}
		return r.backend.ExtendEmployeeLimit(ctx, f.Email, u)
	case checkoutdb.FollowUpPaymentRecord:
		var rec backend.PaymentRecord
		if err := json.Unmarshal(f.Payload, &rec); err != nil {
			return fmt.Errorf("decode payment record: %w", err)
		}
		return r.backend.RecordPayment(ctx, rec)
	default:
		return fmt.Errorf("unknown follow-up kind %q", f.Kind)
	}
}
