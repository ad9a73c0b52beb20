// Package webhook delivers deadline alerts to a chat incoming webhook
// (Mattermost or Slack compatible).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/alerts"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUsername  = "dora-engine"
	defaultRateLimit = 1.0
	senderName       = "webhook"
)

// Config holds webhook sender configuration.
type Config struct {
	URL      string
	Username string
	Channel  string
	IconURL  string
	Timeout  time.Duration
	// RateLimit is the maximum number of messages per second.
	RateLimit float64
}

// Sender posts alerts to an incoming webhook.
type Sender struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates a new webhook sender.
func NewSender(config Config) *Sender {
	if config.Username == "" {
		config.Username = defaultUsername
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaultRateLimit
	}

	return &Sender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Name returns the sender name used in logs and metrics.
func (s *Sender) Name() string {
	return senderName
}

// Send posts a rendered alert to the webhook.
func (s *Sender) Send(ctx context.Context, msg alerts.Message) error {
	if s.config.URL == "" {
		return &PermanentError{Message: "webhook URL is empty"}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload := webhookPayload{
		Username: s.config.Username,
		Channel:  s.config.Channel,
		IconURL:  s.config.IconURL,
	}
	if msg.Subject != "" {
		payload.Text = fmt.Sprintf("### %s\n\n%s", msg.Subject, msg.Body)
	} else {
		payload.Text = msg.Body
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Message: fmt.Sprintf("send request: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	return s.handleResponse(resp)
}

type webhookPayload struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
	Channel  string `json:"channel,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

func (s *Sender) handleResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		slog.Debug("webhook alert sent", "webhook", maskURL(s.config.URL))
		return nil

	case resp.StatusCode == http.StatusBadRequest:
		return &PermanentError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("bad request: %s", string(body)),
		}

	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &PermanentError{
			Code:    resp.StatusCode,
			Message: "invalid or expired webhook",
		}

	case resp.StatusCode == http.StatusNotFound:
		return &PermanentError{
			Code:    resp.StatusCode,
			Message: "webhook not found",
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return &RetryableError{
			Code:    resp.StatusCode,
			Message: "rate limited",
		}

	case resp.StatusCode >= 500:
		return &RetryableError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("server error: %s", string(body)),
		}

	default:
		return &PermanentError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("unexpected status: %s", string(body)),
		}
	}
}

// maskURL hides the secret part of the webhook URL for logging.
func maskURL(url string) string {
	if len(url) > 40 {
		return url[:20] + "..." + url[len(url)-10:]
	}
	return url
}

// PermanentError indicates a delivery failure that should not be retried.
type PermanentError struct {
	Code    int
	Message string
}

func (e *PermanentError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("webhook error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("webhook error: %s", e.Message)
}

// IsRetryable returns false as permanent errors should not be retried.
func (e *PermanentError) IsRetryable() bool { return false }

// RetryableError indicates a temporary delivery failure.
type RetryableError struct {
	Code    int
	Message string
}

func (e *RetryableError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("webhook error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("webhook error: %s", e.Message)
}

// IsRetryable returns true as these errors are temporary.
func (e *RetryableError) IsRetryable() bool { return true }
