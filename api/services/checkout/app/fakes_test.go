package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
	checkoutdb "github.com/tbeaudouin05/admin-checkout/api/services/checkout/db"
)

type backendCall struct {
	Method string
	Email  string
	Body   any
}

// fakeBackend records every call in order and answers from its fields.
type fakeBackend struct {
	mu    sync.Mutex
	calls []backendCall

	user      backend.User
	userErr   error
	secrets   map[int64]string
	secretErr error
	patchErr  error
	postErr   error

	// block, when set, holds CreatePaymentIntent until closed or ctx is done.
	block chan struct{}
}

func (f *fakeBackend) record(c backendCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeBackend) Calls() []backendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backendCall(nil), f.calls...)
}

func (f *fakeBackend) callsOf(method string) []backendCall {
	var out []backendCall
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) CreatePaymentIntent(ctx context.Context, price int64) (string, error) {
	f.record(backendCall{Method: "CreatePaymentIntent", Body: price})
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.secretErr != nil {
		return "", f.secretErr
	}
	if s, ok := f.secrets[price]; ok {
		return s, nil
	}
	return "pi_default_secret_x", nil
}

func (f *fakeBackend) GetUser(ctx context.Context, email string) (backend.User, error) {
	f.record(backendCall{Method: "GetUser", Email: email})
	return f.user, f.userErr
}

func (f *fakeBackend) ExtendEmployeeLimit(ctx context.Context, email string, update backend.LimitUpdate) error {
	f.record(backendCall{Method: "ExtendEmployeeLimit", Email: email, Body: update})
	return f.patchErr
}

func (f *fakeBackend) RecordPayment(ctx context.Context, record backend.PaymentRecord) error {
	f.record(backendCall{Method: "RecordPayment", Email: record.Email, Body: record})
	return f.postErr
}

// fakeStore is an in-memory FollowUpStore.
type fakeStore struct {
	mu      sync.Mutex
	items   []checkoutdb.FollowUp
	done    map[string]bool
	failed  map[string]string
	enqErr  error
	nextID  int
	pendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{done: map[string]bool{}, failed: map[string]string{}}
}

func (s *fakeStore) Enqueue(ctx context.Context, kind checkoutdb.FollowUpKind, email string, payload any) (string, error) {
	if s.enqErr != nil {
		return "", s.enqErr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := string(rune('a' + s.nextID - 1))
	s.items = append(s.items, checkoutdb.FollowUp{ID: id, Kind: kind, Email: email, Payload: raw})
	return id, nil
}

func (s *fakeStore) Pending(ctx context.Context, maxAttempts, limit int) ([]checkoutdb.FollowUp, error) {
	if s.pendErr != nil {
		return nil, s.pendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []checkoutdb.FollowUp
	for _, f := range s.items {
		if s.done[f.ID] || f.Attempts >= maxAttempts {
			continue
		}
		out = append(out, f)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkDone(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[id] = true
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = reason
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Attempts++
		}
	}
	return nil
}

func (s *fakeStore) kinds() []checkoutdb.FollowUpKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []checkoutdb.FollowUpKind
	for _, f := range s.items {
		out = append(out, f.Kind)
	}
	return out
}
