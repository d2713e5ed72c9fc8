package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 1 << 20

type httpClient struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPClient returns a Client talking JSON to the admin backend at baseURL.
// Calls share one circuit breaker so a failing backend is not hammered.
func NewHTTPClient(baseURL, authToken string) Client {
	return &httpClient{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		breaker:   newBreaker("admin-backend"),
	}
}

func (c *httpClient) CreatePaymentIntent(ctx context.Context, price int64) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/create-payment-intent", map[string]int64{"price": price})
	if err != nil {
		return "", err
	}
	secret := decodeSecret(body)
	if secret == "" {
		return "", ErrEmptySecret
	}
	return secret, nil
}

func (c *httpClient) GetUser(ctx context.Context, email string) (User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email), nil)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

func (c *httpClient) ExtendEmployeeLimit(ctx context.Context, email string, update LimitUpdate) error {
	_, err := c.do(ctx, http.MethodPatch, "/admin/extend-employee-limit/"+url.PathEscape(email), update)
	return err
}

func (c *httpClient) RecordPayment(ctx context.Context, record PaymentRecord) error {
	_, err := c.do(ctx, http.MethodPost, "/payment-info", record)
	return err
}

func (c *httpClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			reqBody = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("http new request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http client do: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return body, nil
	})
}

// decodeSecret accepts a bare JSON string, an object carrying clientSecret,
// or a plain text body.
func decodeSecret(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		return strings.TrimSpace(obj.ClientSecret)
	}
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}
