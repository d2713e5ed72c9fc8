package backend

import (
	"context"
	"errors"
	"fmt"
)

// Client is the admin backend contract the checkout flow relies on.
type Client interface {
	CreatePaymentIntent(ctx context.Context, price int64) (string, error)
	GetUser(ctx context.Context, email string) (User, error)
	ExtendEmployeeLimit(ctx context.Context, email string, update LimitUpdate) error
	RecordPayment(ctx context.Context, record PaymentRecord) error
}

// User is the admin user record as served by the backend.
type User struct {
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	Logo                   string `json:"logo"`
	DOB                    string `json:"dob"`
	EmployeeLimitTotal     int64  `json:"employeeLimitTotal"`
	EmployeeLimitRemaining int64  `json:"employeeLimitRemaining"`
}

// LimitUpdate overwrites both employee limit fields of a user.
type LimitUpdate struct {
	EmployeeLimitTotal     int64 `json:"employeeLimitTotal"`
	EmployeeLimitRemaining int64 `json:"employeeLimitRemaining"`
}

// PaymentRecord is the audit entry posted after a successful charge.
type PaymentRecord struct {
	PaymentID string `json:"paymentID"`
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Date      string `json:"date"`
}

// ErrEmptySecret is returned when the backend answers without a client secret.
var ErrEmptySecret = errors.New("backend returned an empty payment intent secret")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}

// IsTemporary reports whether err is worth retrying. Transport errors are,
// client-side rejections are not.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrEmptySecret)
}
