package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	stripe "github.com/stripe/stripe-go"

	"github.com/tbeaudouin05/admin-checkout/api/metrics"
	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
	gw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway"
)

const confirmTimeout = 2 * time.Minute

// Deps are the collaborators of a checkout. Gateway may be nil while the
// payment SDK is unavailable; submits are then rejected with ErrNotReady.
type Deps struct {
	Gateway        gw.PaymentGateway
	Backend        backend.Client
	FollowUps      FollowUpQueue
	Metrics        *metrics.Metrics
	DashboardRoute string
	Now            func() time.Time
}

// Checkout drives one payment: fetch a payment intent secret for the
// package, tokenize the card, confirm the payment, then extend the user's
// employee limits and record the payment.
type Checkout struct {
	deps    Deps
	user    CurrentUser
	billing gw.Billing

	lifetime context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	pkg        PackageInfo
	phase      Phase
	mounted    bool
	secret     string
	generation uint64
	cardError  string
}

// NewCheckout returns an idle checkout for user buying pkg.
func NewCheckout(deps Deps, user CurrentUser, billing gw.Billing, pkg PackageInfo) *Checkout {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	lifetime, cancel := context.WithCancel(context.Background())
	return &Checkout{
		deps:     deps,
		user:     user,
		billing:  billing,
		lifetime: lifetime,
		cancel:   cancel,
		pkg:      pkg,
		phase:    PhaseIdle,
	}
}

// Mount fetches the first payment intent secret when the package is priced.
// Calling it again is a no-op.
func (c *Checkout) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == PhaseClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	gen, price, fetch := c.beginFetchLocked()
	c.mu.Unlock()

	if !fetch {
		return nil
	}
	return c.fetchSecret(ctx, gen, price)
}

// SetPackage swaps the package being bought. A secret is fetched once per
// distinct package; an equal package is ignored.
func (c *Checkout) SetPackage(ctx context.Context, pkg PackageInfo) error {
	if pkg.Price < 0 || pkg.Member < 0 {
		return fmt.Errorf("%w: negative price or member count", ErrBadRequest)
	}
	c.mu.Lock()
	if err := c.mutableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if pkg == c.pkg {
		c.mu.Unlock()
		return nil
	}
	c.pkg = pkg
	c.cardError = ""
	if !c.mounted {
		c.mu.Unlock()
		return nil
	}
	gen, price, fetch := c.beginFetchLocked()
	c.mu.Unlock()

	if !fetch {
		return nil
	}
	return c.fetchSecret(ctx, gen, price)
}

// beginFetchLocked invalidates the current secret and starts a new
// generation. fetch is false when the package is not priced.
func (c *Checkout) beginFetchLocked() (gen uint64, price int64, fetch bool) {
	c.generation++
	c.secret = ""
	if c.pkg.Price <= 0 {
		if c.phase != PhaseIdle {
			c.setPhaseLocked(PhaseIdle)
		}
		return c.generation, 0, false
	}
	c.setPhaseLocked(PhaseAwaitingSecret)
	return c.generation, c.pkg.Price, true
}

func (c *Checkout) fetchSecret(ctx context.Context, gen uint64, price int64) error {
	ctx, cancel := c.scope(ctx)
	defer cancel()
	secret, err := c.deps.Backend.CreatePaymentIntent(ctx, price)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseClosed {
		return ErrClosed
	}
	if gen != c.generation {
		slog.Info("discarding stale payment intent secret", "email", c.user.Email, "price", price)
		return ErrStale
	}
	if err != nil {
		c.deps.Metrics.RecordSecretFetch("error")
		c.setPhaseLocked(PhaseIdle)
		return fmt.Errorf("%w: %w", ErrSecretFetch, err)
	}
	c.deps.Metrics.RecordSecretFetch("ok")
	c.secret = secret
	c.setPhaseLocked(PhaseReady)
	return nil
}

// Submit pays for the package with card. Only one submit runs at a time; a
// tokenization or confirmation failure leaves the checkout resubmittable.
func (c *Checkout) Submit(ctx context.Context, card gw.CardInput) (Outcome, error) {
	c.mu.Lock()
	if err := c.mutableLocked(); err != nil {
		out := Outcome{View: c.viewLocked()}
		c.mu.Unlock()
		return out, err
	}
	if c.deps.Gateway == nil || c.secret == "" || c.phase != PhaseReady {
		out := Outcome{View: c.viewLocked()}
		c.mu.Unlock()
		return out, ErrNotReady
	}
	if card.Empty() {
		out := Outcome{View: c.viewLocked()}
		c.mu.Unlock()
		return out, fmt.Errorf("%w: card details are required", ErrBadRequest)
	}
	c.setPhaseLocked(PhaseTokenizing)
	c.cardError = ""
	secret, pkg := c.secret, c.pkg
	c.mu.Unlock()

	sctx, cancel := c.scope(ctx)
	defer cancel()

	pm, err := c.deps.Gateway.CreatePaymentMethod(sctx, card, c.billing)
	if err == nil && pm.ID == "" {
		err = errors.New("no payment method returned")
	}
	if err != nil {
		return c.fail(ErrTokenization, err)
	}
	if !c.advance(PhaseConfirming) {
		return c.closedOutcome()
	}

	// From here on the card may be charged, so neither Close nor a dropped
	// request may abandon the confirmation.
	cctx, ccancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer ccancel()
	intent, err := c.deps.Gateway.ConfirmCardPayment(cctx, secret, pm.ID)
	if gw.OutcomeUnknown(err) {
		intent, err = c.reconcile(ctx, secret, err)
	}
	switch {
	case err != nil:
		return c.fail(ErrConfirmation, err)
	case intent.ID == "":
		return c.fail(ErrConfirmation, ErrNoPaymentIntent)
	case intent.Status != stripe.PaymentIntentStatusSucceeded:
		return c.fail(ErrConfirmation, fmt.Errorf("payment %s", intent.Status))
	}

	result := PaymentResult{ID: intent.ID, Status: string(intent.Status)}
	c.mu.Lock()
	if c.phase == PhaseConfirming {
		c.setPhaseLocked(PhaseSucceeded)
	}
	c.mu.Unlock()
	c.deps.Metrics.RecordOutcome("succeeded")
	slog.Info("payment succeeded", "email", c.user.Email, "payment_id", result.ID, "amount", pkg.Price)

	// The charge went through, so follow-ups outlive a cancelled request or
	// a closed checkout.
	fu := c.runFollowUps(context.WithoutCancel(ctx), pkg, result.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	return Outcome{
		View:           c.viewLocked(),
		Payment:        result,
		Redirect:       fu.redirect,
		FollowUpErrors: fu.messages(),
	}, nil
}

// reconcile looks the intent up after a confirmation that ended without a
// definitive answer. It returns confirmErr unless the intent succeeded.
func (c *Checkout) reconcile(ctx context.Context, secret string, confirmErr error) (stripe.PaymentIntent, error) {
	intentID, err := gw.IntentIDFromSecret(secret)
	if err != nil {
		return stripe.PaymentIntent{}, confirmErr
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()
	intent, err := c.deps.Gateway.GetPaymentIntent(rctx, intentID)
	if err != nil {
		slog.Error("payment intent lookup failed after unconfirmed payment", "email", c.user.Email, "intent_id", intentID, "confirm_err", confirmErr, "err", err)
		return stripe.PaymentIntent{}, confirmErr
	}
	slog.Warn("reconciled payment intent", "email", c.user.Email, "intent_id", intentID, "status", intent.Status, "confirm_err", confirmErr)
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return intent, confirmErr
	}
	return intent, nil
}

// fail records err as the card error and returns the checkout to Ready.
func (c *Checkout) fail(kind error, err error) (Outcome, error) {
	msg := gw.ErrorMessage(err)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseClosed {
		return Outcome{View: c.viewLocked()}, ErrClosed
	}
	c.deps.Metrics.RecordOutcome("failed")
	slog.Warn("checkout submit failed", "email", c.user.Email, "stage", kind.Error(), "err", msg)
	c.cardError = msg
	c.setPhaseLocked(PhaseFailed)
	out := Outcome{View: c.viewLocked()}
	c.setPhaseLocked(PhaseReady)
	return out, fmt.Errorf("%w: %w", kind, err)
}

func (c *Checkout) advance(to Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseClosed {
		return false
	}
	c.setPhaseLocked(to)
	return true
}

func (c *Checkout) closedOutcome() (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Outcome{View: c.viewLocked()}, ErrClosed
}

// Close ends the checkout. In-flight secret fetches and tokenization are
// cancelled and their completions ignored. A confirmation already sent runs
// to completion and a successful charge still gets its follow-ups.
func (c *Checkout) Close() {
	c.mu.Lock()
	if !c.phase.IsTerminal() {
		c.setPhaseLocked(PhaseClosed)
	}
	c.mu.Unlock()
	c.cancel()
}

// View returns what the checkout form should render.
func (c *Checkout) View() FormView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Phase returns the current phase.
func (c *Checkout) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Checkout) viewLocked() FormView {
	return FormView{
		Phase:       c.phase,
		PayLabel:    payLabel(c.pkg.Price),
		PayDisabled: c.deps.Gateway == nil || c.secret == "" || c.phase != PhaseReady,
		Processing:  c.phase.InFlight(),
		CardError:   c.cardError,
		Price:       c.pkg.Price,
		Member:      c.pkg.Member,
	}
}

func (c *Checkout) mutableLocked() error {
	switch {
	case c.phase == PhaseClosed:
		return ErrClosed
	case c.phase == PhaseSucceeded:
		return ErrAlreadyPaid
	case c.phase.InFlight():
		return ErrBusy
	}
	return nil
}

func (c *Checkout) setPhaseLocked(to Phase) {
	if !CanTransitionTo(c.phase, to) {
		panic(fmt.Sprintf("illegal checkout transition %s -> %s", c.phase, to))
	}
	c.phase = to
}

// scope derives a context that is also cancelled when the checkout closes.
func (c *Checkout) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
