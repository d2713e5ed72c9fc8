package app

import "errors"

// Typed errors for the checkout app layer. The HTTP layer maps them to
// status codes without looking at SDK error types.
var (
	// ErrNotReady indicates a submit without a payment gateway or client secret.
	ErrNotReady = errors.New("checkout not ready")
	// ErrBusy indicates a submit while another one is in flight.
	ErrBusy = errors.New("checkout already processing")
	// ErrClosed indicates the checkout was cancelled or expired.
	ErrClosed = errors.New("checkout closed")
	// ErrAlreadyPaid indicates the checkout already succeeded.
	ErrAlreadyPaid = errors.New("checkout already paid")
	// ErrStale indicates a completion that a newer request superseded.
	ErrStale = errors.New("stale completion discarded")
	// ErrSecretFetch indicates the backend did not issue a payment intent secret.
	ErrSecretFetch = errors.New("payment intent secret fetch failed")
	// ErrTokenization indicates the card could not be turned into a payment method.
	ErrTokenization = errors.New("card tokenization failed")
	// ErrConfirmation indicates the payment was not confirmed.
	ErrConfirmation = errors.New("payment confirmation failed")
	// ErrNoPaymentIntent indicates the SDK answered without a payment intent.
	ErrNoPaymentIntent = errors.New("no payment intent returned")
	// ErrLimitUpdate indicates the employee limit PATCH failed after a charge.
	ErrLimitUpdate = errors.New("employee limit update failed")
	// ErrPaymentRecord indicates the payment record POST failed after a charge.
	ErrPaymentRecord = errors.New("payment record failed")
	// ErrSessionNotFound indicates an unknown or expired checkout session id.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrBadRequest indicates invalid input.
	ErrBadRequest = errors.New("bad request")
	// ErrBackend indicates a failure talking to the admin backend.
	ErrBackend = errors.New("backend error")
)
