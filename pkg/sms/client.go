package sms

// OUTBOUND SMS CLIENT

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ErrNotSent is wrapped by every failure of Send so callers can branch on it
// without caring whether the transport or the endpoint failed.
var ErrNotSent = errors.New("sms not sent")

type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Message struct {
	Phone      string            `json:"phone"`
	Message    string            `json:"message"`
	Transcript []TranscriptEntry `json:"transcript"`
}

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(endpoint, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts the message to the messaging endpoint. Any non-2xx answer is a failure.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrNotSent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrNotSent, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %v", ErrNotSent, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("SMS endpoint rejected message",
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: unexpected status: %d", ErrNotSent, resp.StatusCode)
	}

	return nil
}
