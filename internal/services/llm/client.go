// Package llm talks to an Ollama-compatible chat endpoint and turns note text
// into structured analysis results.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vasd85/voxenote/internal/services"
)

const (
	defaultBaseURL        = "http://localhost:11434"
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	defaultRetryAttempts  = 3
)

// Config captures the runtime settings required to talk to the model server.
type Config struct {
	BaseURL        string
	Model          string
	Stream         bool
	TimeoutSeconds int
	// TokenizeTimeoutSeconds bounds tokenize calls separately from chat;
	// zero means the HTTP client timeout applies.
	TokenizeTimeoutSeconds int
}

// Client wraps the Ollama chat API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
	debug            *DebugJournal
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithDebugJournal records every request/response pair for troubleshooting.
func WithDebugJournal(journal *DebugJournal) Option {
	return func(c *Client) {
		c.debug = journal
	}
}

// NewClient constructs a chat client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:                strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:                  strings.TrimSpace(cfg.Model),
			Stream:                 cfg.Stream,
			TimeoutSeconds:         cfg.TimeoutSeconds,
			TokenizeTimeoutSeconds: cfg.TokenizeTimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("chat request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type emptyContentError struct {
	Op string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: model returned empty content", e.Op)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatChunk is one line of a streamed response, or the whole body when
// stream=false.
type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Complete sends a system/user prompt pair and returns the model's full text
// reply, retrying transient failures with backoff.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, contextTokens int) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return "", errors.New("chat complete: system prompt required")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("chat complete: user prompt required")
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:  c.cfg.Stream,
		Format:  "json",
		Options: &chatOptions{Temperature: 0, NumCtx: contextTokens},
	}
	return c.completeWithRetry(ctx, payload, "chat complete")
}

func (c *Client) completeWithRetry(ctx context.Context, payload chatRequest, op string) (string, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.sendChatOnce(ctx, payload)
		if err == nil && strings.TrimSpace(content) == "" {
			err = &emptyContentError{Op: op}
		}
		if err == nil {
			c.journal(payload, content, nil)
			return content, nil
		}
		c.journal(payload, "", err)

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return "", services.Wrap(services.ErrExternalTool, "analyze", op, "", err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", services.Wrap(services.ErrTransient, "analyze", op,
		fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func (c *Client) sendChatOnce(ctx context.Context, payload chatRequest) (string, error) {
	endpoint := c.cfg.BaseURL + "/api/chat"
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chat request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("chat request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	if payload.Stream {
		return collectStream(resp.Body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("chat request: read body: %w", err)
	}
	var chunk chatChunk
	if err := json.Unmarshal(body, &chunk); err != nil {
		return "", fmt.Errorf("chat request: decode response: %w", err)
	}
	if chunk.Error != "" {
		return "", fmt.Errorf("chat request: api error: %s", chunk.Error)
	}
	return chunk.Message.Content, nil
}

// collectStream concatenates the content fragments of a line-delimited JSON
// stream. A chunk-level error field aborts the whole response.
func collectStream(body io.Reader) (string, error) {
	var builder strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("chat stream: decode chunk: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("chat stream: api error: %s", chunk.Error)
		}
		builder.WriteString(chunk.Message.Content)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("chat stream: read: %w", err)
	}
	return builder.String(), nil
}

func (c *Client) journal(payload chatRequest, content string, err error) {
	if c.debug == nil {
		return
	}
	c.debug.Record(payload.Model, payload.Messages, content, err)
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	if _, ok := err.(*emptyContentError); ok {
		return c.backoffDelay(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// A connection refusal means the model server is down or restarting;
		// worth another attempt after backoff.
		if urlErr.Timeout() || errors.Is(urlErr.Err, io.EOF) {
			return c.backoffDelay(attempt), true
		}
		var opErr *net.OpError
		if errors.As(urlErr.Err, &opErr) {
			return c.backoffDelay(attempt), true
		}
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := defaultRetryBaseDelay
	maxDelay := defaultRetryMaxDelay
	if c != nil {
		if c.retryBaseDelay >= 0 {
			base = c.retryBaseDelay
		}
		if c.retryMaxDelay > 0 {
			maxDelay = c.retryMaxDelay
		}
	}
	if base <= 0 {
		return 0
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if c != nil && c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("chat retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c != nil && c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
