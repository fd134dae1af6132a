package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalaya/attendance-api/pkg/config"
)

// Message is one outbound SMS in a bulk dispatch.
type Message struct {
	Recipient string `json:"recipient"`
	Body      string `json:"message"`
}

// SendResult reports the gateway outcome for a single message.
type SendResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client talks to the school's SMS gateway over HTTP. The gateway wire
// protocol is owned by the provider; this client only posts payloads and
// reads per-message acknowledgements.
type Client struct {
	gatewayURL string
	apiKey     string
	senderID   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs the gateway client.
func NewClient(cfg config.SMSConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		senderID:   cfg.SenderID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendAlert delivers a low-attendance notice to a guardian. Failures are
// reported in the result, never raised, so callers stay available when the
// gateway is degraded.
func (c *Client) SendAlert(ctx context.Context, phoneNumber, displayName string, percentage float64) SendResult {
	body := fmt.Sprintf("Dear guardian, %s's attendance has dropped to %.1f%%. Please contact the school office.", displayName, percentage)
	results := c.post(ctx, []Message{{Recipient: phoneNumber, Body: body}})
	return results[0]
}

// SendBulk dispatches a batch of messages in one gateway call, returning
// one result per message in input order.
func (c *Client) SendBulk(ctx context.Context, messages []Message) []SendResult {
	if len(messages) == 0 {
		return nil
	}
	return c.post(ctx, messages)
}

type gatewayRequest struct {
	SenderID string    `json:"sender_id"`
	Messages []Message `json:"messages"`
}

type gatewayResponse struct {
	Results []SendResult `json:"results"`
}

func (c *Client) post(ctx context.Context, messages []Message) []SendResult {
	failAll := func(reason string) []SendResult {
		results := make([]SendResult, len(messages))
		for i := range results {
			results[i] = SendResult{Success: false, Error: reason}
		}
		return results
	}

	payload, err := json.Marshal(gatewayRequest{SenderID: c.senderID, Messages: messages})
	if err != nil {
		return failAll(fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return failAll(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("sms gateway unreachable", zap.Error(err))
		return failAll(fmt.Sprintf("gateway request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("sms gateway rejected batch", zap.Int("status", resp.StatusCode))
		return failAll(fmt.Sprintf("gateway status %d", resp.StatusCode))
	}

	var decoded gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return failAll(fmt.Sprintf("decode response: %v", err))
	}
	if len(decoded.Results) != len(messages) {
		return failAll("gateway returned mismatched result count")
	}
	return decoded.Results
}
