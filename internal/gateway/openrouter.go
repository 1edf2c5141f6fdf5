package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/kaylum54/promptpit-sub001/internal/models"
)

const (
	defaultBaseURL   = "https://openrouter.ai/api/v1"
	defaultReferer   = "promptpit"
	defaultMaxTokens = 4096
)

// ErrMissingAPIKey is returned when the client is invoked without credentials.
// Raised immediately rather than deferred into a stream.
var ErrMissingAPIKey = errors.New("openrouter API key is not configured")

// Error is a gateway-level failure: a non-success HTTP status or a provider
// error payload.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("openrouter: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "openrouter: " + e.Message
}

// RetryConfig defines retry behavior for non-streaming calls.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns sensible defaults for OpenRouter API retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Client talks to the OpenRouter chat completions API in whole-response or
// token-streaming mode. No state is retained between calls.
type Client struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	retryConfig RetryConfig
	maxTokens   int
}

// NewClient creates a client against the default OpenRouter base URL.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a client with a custom base URL (used by tests).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 120 * time.Second},
		retryConfig: DefaultRetryConfig(),
		maxTokens:   defaultMaxTokens,
	}
}

// Completion is the result of a non-streaming invocation.
type Completion struct {
	Content   string
	ToolCalls []models.ToolCall
}

// StreamDelta is one parsed item of a token stream. Err, when non-nil, is the
// terminal item of the sequence.
type StreamDelta struct {
	Content string
	Err     error
}

type chatRequest struct {
	Model     string           `json:"model"`
	Messages  []models.Message `json:"messages"`
	MaxTokens int              `json:"max_tokens,omitempty"`
	Tools     []models.Tool    `json:"tools,omitempty"`
	Stream    bool             `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role      string            `json:"role"`
			Content   string            `json:"content"`
			ToolCalls []models.ToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code,omitempty"` // int or string depending on provider
	} `json:"error,omitempty"`
}

// Complete invokes the model once and returns the full response, including any
// tool calls the model requested. Transient HTTP failures are retried with
// exponential backoff.
func (c *Client) Complete(ctx context.Context, modelID string, messages []models.Message, tools []models.Tool) (*Completion, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:     modelID,
		Messages:  messages,
		MaxTokens: c.maxTokens,
		Tools:     tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenRouter request: %w", err)
	}

	var lastErr error
	delay := c.retryConfig.InitialDelay

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenRouter request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("OpenRouter request failed: %w", err)
			if attempt < c.retryConfig.MaxRetries {
				c.waitWithJitter(ctx, delay)
				delay = c.nextDelay(delay)
				continue
			}
			return nil, lastErr
		}

		if isRetryableStatus(resp.StatusCode) && attempt < c.retryConfig.MaxRetries {
			_ = resp.Body.Close()
			lastErr = &Error{StatusCode: resp.StatusCode, Message: "retryable error"}
			c.waitWithJitter(ctx, delay)
			delay = c.nextDelay(delay)
			continue
		}

		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			return nil, &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("failed to decode OpenRouter response: %w", err)
		}
		_ = resp.Body.Close()

		if parsed.Error != nil {
			return nil, &Error{Message: parsed.Error.Message}
		}
		if len(parsed.Choices) == 0 {
			return nil, &Error{Message: "no choices in response"}
		}

		choice := parsed.Choices[0]
		return &Completion{
			Content:   choice.Message.Content,
			ToolCalls: choice.Message.ToolCalls,
		}, nil
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", c.retryConfig.MaxRetries+1, lastErr)
}

// CompleteStream invokes the model in token-streaming mode and returns a
// single-pass, non-restartable sequence of parsed deltas. Malformed chunks are
// skipped silently; a fatal transport error terminates the sequence with one
// Err item. HTTP-level failures are returned synchronously before any
// streaming starts.
func (c *Client) CompleteStream(ctx context.Context, modelID string, messages []models.Message) (<-chan StreamDelta, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:     modelID,
		Messages:  messages,
		MaxTokens: c.maxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenRouter stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter stream request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenRouter stream request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	ch := make(chan StreamDelta, 64)
	go func() {
		defer close(ch)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				return
			}

			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			// Skip malformed chunks rather than aborting the stream
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case ch <- StreamDelta{Content: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case ch <- StreamDelta{Err: fmt.Errorf("OpenRouter stream read failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", defaultReferer)
}

// isRetryableStatus returns true for HTTP status codes that warrant a retry.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// waitWithJitter waits for the specified duration plus random jitter.
func (c *Client) waitWithJitter(ctx context.Context, delay time.Duration) {
	jitter := time.Duration(rand.Float64() * 0.1 * float64(delay)) // #nosec G404 - jitter doesn't require cryptographic randomness
	select {
	case <-ctx.Done():
	case <-time.After(delay + jitter):
	}
}

// nextDelay calculates the next delay using exponential backoff.
func (c *Client) nextDelay(currentDelay time.Duration) time.Duration {
	next := time.Duration(float64(currentDelay) * c.retryConfig.Multiplier)
	if next > c.retryConfig.MaxDelay {
		next = c.retryConfig.MaxDelay
	}
	return next
}
