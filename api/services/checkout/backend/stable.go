package backend

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type stableClient struct {
	underlying   Client
	totalTimeout time.Duration
	maxRetries   int
}

// NewStableClient retries temporary failures of the underlying client with
// exponential backoff. Rejections (4xx) are returned on the first attempt.
func NewStableClient(underlying Client, totalTimeout time.Duration, maxRetries int) Client {
	return &stableClient{
		underlying:   underlying,
		totalTimeout: totalTimeout,
		maxRetries:   maxRetries,
	}
}

func (c stableClient) retry(ctx context.Context, f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.totalTimeout

	bmr := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
	return backoff.Retry(func() error {
		err := f()
		if err != nil && !IsTemporary(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bmr)
}

func (c *stableClient) CreatePaymentIntent(ctx context.Context, price int64) (secret string, err error) {
	err = c.retry(ctx, func() error {
		secret, err = c.underlying.CreatePaymentIntent(ctx, price)
		return err
	})
	return
}

func (c *stableClient) GetUser(ctx context.Context, email string) (u User, err error) {
	err = c.retry(ctx, func() error {
		u, err = c.underlying.GetUser(ctx, email)
		return err
	})
	return
}

func (c *stableClient) ExtendEmployeeLimit(ctx context.Context, email string, update LimitUpdate) error {
	return c.retry(ctx, func() error {
		return c.underlying.ExtendEmployeeLimit(ctx, email, update)
	})
}

func (c *stableClient) RecordPayment(ctx context.Context, record PaymentRecord) error {
	return c.retry(ctx, func() error {
		return c.underlying.RecordPayment(ctx, record)
	})
}
