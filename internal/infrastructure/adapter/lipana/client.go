// Package lipana initiates M-Pesa STK pushes through the Lipana gateway.
package lipana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter"
)

const serviceName = "lipana"

// ErrRejected is returned when the gateway answers with an error status.
var ErrRejected = errors.New("lipana rejected the request")

// Config holds the gateway endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements port.PushPaymentGateway.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	observer adapter.Observer
	logger   *slog.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, observer adapter.Observer, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  adapter.NewBreaker(adapter.DefaultBreakerConfig(serviceName), observer, logger),
		observer: observer,
		logger:   logger.With("adapter", serviceName),
	}
}

type pushBody struct {
	Phone            string  `json:"phone"`
	Amount           float64 `json:"amount"`
	AccountReference string  `json:"account_reference"`
	Description      string  `json:"description"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pushData struct {
	TransactionID     string `json:"transactionId"`
	CheckoutRequestID string `json:"checkoutRequestID"`
}

type statusData struct {
	Status string `json:"status"`
}

// Push sends an STK push for req.Amount to req.Phone.
func (c *Client) Push(ctx context.Context, req port.PushRequest) (port.PushAck, error) {
	amount, _ := req.Amount.Float64()
	var data pushData
	err := c.call(ctx, "push", http.MethodPost, "/transactions/push-stk", pushBody{
		Phone:            req.Phone,
		Amount:           amount,
		AccountReference: req.Reference,
		Description:      req.Description,
	}, &data)
	if err != nil {
		return port.PushAck{}, err
	}
	if data.TransactionID == "" && data.CheckoutRequestID == "" {
		return port.PushAck{}, fmt.Errorf("%w: acknowledgement without identifiers", ErrRejected)
	}
	return port.PushAck{TransactionID: data.TransactionID, CheckoutRequestID: data.CheckoutRequestID}, nil
}

// TransactionStatus maps the gateway's transaction status to a PushStatus.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (port.PushStatus, error) {
	var data statusData
	if err := c.call(ctx, "status", http.MethodGet, "/transactions/"+url.PathEscape(transactionID), nil, &data); err != nil {
		return "", err
	}
	switch strings.ToLower(data.Status) {
	case "success", "successful", "completed":
		return port.PushSuccess, nil
	case "failed", "cancelled", "canceled", "expired":
		return port.PushFailed, nil
	default:
		return port.PushPending, nil
	}
}

func (c *Client) call(ctx context.Context, method, verb, path string, body, out any) error {
	started := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, verb, path, body, out)
	})
	c.observer.ExternalCall(serviceName, method, time.Since(started), err)
	if err != nil {
		return fmt.Errorf("lipana %s: %w", method, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, verb, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, verb, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || (!env.Success && env.Message != "") {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, msg)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
