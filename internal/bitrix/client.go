package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/surveycrm/pollbridge/internal/pkg/httpx"
	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

// Config holds the wire-client settings. The retry budget protects every
// individual REST call; the per-call timeout is independent of it, so a
// fully exhausted budget can take attempts*timeout plus the backoff sleeps.
type Config struct {
	WebhookURL   string
	Timeout      time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	RetryBackoff float64
}

// Client executes requests against a Bitrix24 inbound-webhook REST endpoint:
// method name plus JSON params in, JSON result out.
type Client struct {
	log     *logger.Logger
	baseURL string

	httpClient   *http.Client
	maxAttempts  int
	retryDelay   time.Duration
	retryBackoff float64
	sleep        func(time.Duration)
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.WebhookURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing bitrix webhook url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = 2.0
	}
	return &Client{
		log:          log.With("client", "Bitrix24Client"),
		baseURL:      base,
		httpClient:   &http.Client{Timeout: timeout},
		maxAttempts:  maxAttempts,
		retryDelay:   retryDelay,
		retryBackoff: retryBackoff,
		sleep:        time.Sleep,
	}, nil
}

type resultEnvelope struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// call runs one REST method with the bounded-backoff retry policy. Only
// transient failures (connection/timeout, upstream 5xx) are retried; API
// rejections and 4xx statuses surface immediately. The final failure returns
// the last observed error unchanged.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.callOnce(ctx, method, params, out)
		if err == nil {
			if attempt > 1 {
				c.log.Info("CRM call recovered", "method", method, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == c.maxAttempts {
			break
		}

		c.log.Warn("CRM call retrying",
			"method", method,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"sleep", delay.String(),
			"error", err.Error(),
		)
		c.sleep(delay)
		delay = time.Duration(float64(delay) * c.retryBackoff)
	}

	return lastErr
}

func (c *Client) callOnce(ctx context.Context, method string, params any, out any) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env resultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if env.Error != "" {
		return &APIError{Code: env.Error, Description: env.ErrorDescription}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// Ping issues the cheapest read the portal allows, for health probing.
func (c *Client) Ping(ctx context.Context) error {
	var out []Contact
	return c.call(ctx, "crm.contact.list", map[string]any{
		"start":  0,
		"filter": map[string]any{"ID": 0},
		"select": []string{"ID"},
	}, &out)
}
