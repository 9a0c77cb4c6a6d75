package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// Bytes-per-token ratios observed for common tokenizers. Cyrillic text costs
// more bytes per token than Latin text, so the two are weighted separately and
// a safety factor tops the estimate up.
const (
	latinBytesPerToken    = 3.5
	cyrillicBytesPerToken = 5.0
	estimateSafetyFactor  = 1.1
)

// EstimateTokens approximates the token count of text without calling the
// model server. The estimate is deliberately conservative: overshooting leads
// to slightly more truncation, undershooting to context overflow.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	var latinBytes, cyrillicBytes int
	for _, r := range text {
		size := len(string(r))
		if unicode.Is(unicode.Cyrillic, r) {
			cyrillicBytes += size
		} else {
			latinBytes += size
		}
	}
	estimate := float64(latinBytes)/latinBytesPerToken + float64(cyrillicBytes)/cyrillicBytesPerToken
	return int(math.Ceil(estimate * estimateSafetyFactor))
}

type tokenizeRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// CountTokens asks the model server to tokenize text. Servers without a
// tokenize endpoint (or unreachable ones) fall back to EstimateTokens, so the
// result is always usable.
func (c *Client) CountTokens(ctx context.Context, text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	count, err := c.tokenize(ctx, text)
	if err != nil {
		return EstimateTokens(text)
	}
	return count
}

func (c *Client) tokenize(ctx context.Context, text string) (int, error) {
	if c.cfg.TokenizeTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TokenizeTimeoutSeconds)*time.Second)
		defer cancel()
	}
	encoded, err := json.Marshal(tokenizeRequest{Model: c.cfg.Model, Prompt: text})
	if err != nil {
		return 0, fmt.Errorf("tokenize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/tokenize", bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("tokenize: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("tokenize: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tokenize: http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("tokenize: read body: %w", err)
	}
	var parsed tokenizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("tokenize: decode response: %w", err)
	}
	return len(parsed.Tokens), nil
}
