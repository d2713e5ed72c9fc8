package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	gw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway"
)

// Service defines the checkout operations exposed to the admin UI.
type Service interface {
	StartCheckout(ctx context.Context, req StartRequest) (SessionView, error)
	GetCheckout(id string) (SessionView, error)
	ChangePackage(ctx context.Context, id string, pkg PackageInfo) (SessionView, error)
	SubmitPayment(ctx context.Context, id string, card gw.CardInput) (SubmitResult, error)
	CancelCheckout(id string) error
}

// StartRequest opens a checkout for the authenticated admin.
type StartRequest struct {
	Email   string      `json:"email"`
	Name    string      `json:"name"`
	Package PackageInfo `json:"package"`
}

// SessionView pairs a session id with its form view.
type SessionView struct {
	SessionID string   `json:"sessionId"`
	View      FormView `json:"view"`
}

// SubmitResult is the outcome of a submit for a session.
type SubmitResult struct {
	SessionID string `json:"sessionId"`
	Outcome
}

// serviceImpl keeps live checkouts in an expiring LRU. Evicted or cancelled
// checkouts are closed. Sessions expire a fixed ttl after they started.
type serviceImpl struct {
	deps     Deps
	sessions *expirable.LRU[string, *Checkout]
	// active mirrors sessions.Len(); the evict callback runs under the LRU
	// lock and cannot call Len.
	active atomic.Int64
}

func NewService(deps Deps, maxSessions int, ttl time.Duration) Service {
	s := &serviceImpl{deps: deps}
	s.sessions = expirable.NewLRU[string, *Checkout](maxSessions, s.evicted, ttl)
	return s
}

func (s *serviceImpl) evicted(id string, c *Checkout) {
	c.Close()
	s.deps.Metrics.SetActiveSessions(int(s.active.Add(-1)))
}

// StartCheckout loads the admin from the backend and mounts a checkout for
// the package. The session is only kept when the mount succeeded.
func (s *serviceImpl) StartCheckout(ctx context.Context, req StartRequest) (SessionView, error) {
	if req.Email == "" {
		return SessionView{}, fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	if req.Package.Price < 0 || req.Package.Member < 0 {
		return SessionView{}, fmt.Errorf("%w: negative price or member count", ErrBadRequest)
	}
	u, err := s.deps.Backend.GetUser(ctx, req.Email)
	if err != nil {
		return SessionView{}, fmt.Errorf("%w: error retrieving current user: %v", ErrBackend, err)
	}
	name := req.Name
	if name == "" {
		name = u.Name
	}
	user := CurrentUserFrom(u)
	if user.Email == "" {
		user.Email = req.Email
	}

	c := NewCheckout(s.deps, user, gw.Billing{Email: req.Email, Name: name}, req.Package)
	if err := c.Mount(ctx); err != nil {
		c.Close()
		return SessionView{}, err
	}
	id := uuid.NewString()
	s.deps.Metrics.SetActiveSessions(int(s.active.Add(1)))
	s.sessions.Add(id, c)
	slog.Info("checkout started", "session_id", id, "email", req.Email, "price", req.Package.Price, "member", req.Package.Member)
	return SessionView{SessionID: id, View: c.View()}, nil
}

func (s *serviceImpl) GetCheckout(id string) (SessionView, error) {
	c, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{SessionID: id, View: c.View()}, nil
}

func (s *serviceImpl) ChangePackage(ctx context.Context, id string, pkg PackageInfo) (SessionView, error) {
	c, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := c.SetPackage(ctx, pkg); err != nil {
		return SessionView{SessionID: id, View: c.View()}, err
	}
	return SessionView{SessionID: id, View: c.View()}, nil
}

func (s *serviceImpl) SubmitPayment(ctx context.Context, id string, card gw.CardInput) (SubmitResult, error) {
	c, err := s.lookup(id)
	if err != nil {
		return SubmitResult{}, err
	}
	out, err := c.Submit(ctx, card)
	return SubmitResult{SessionID: id, Outcome: out}, err
}

// CancelCheckout drops the session; this is the form's Cancel button.
func (s *serviceImpl) CancelCheckout(id string) error {
	if !s.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	slog.Info("checkout cancelled", "session_id", id)
	return nil
}

func (s *serviceImpl) lookup(id string) (*Checkout, error) {
	c, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}
