package completion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"

	"cinepick/models"
)

// DefaultEndMarker ends a streamed reply once it shows up in the accumulated text.
const DefaultEndMarker = "---KEYWORDS---"

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("language model API key not configured")

// ErrIncompleteStream reports that the provider closed the stream before the reply
// finished. Text received so far must not be treated as a complete reply.
var ErrIncompleteStream = errors.New("completion stream ended before the reply finished")

// UpstreamError wraps a failure reported by, or on the way to, the model endpoint.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("language model upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("language model upstream error: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config configures a Channel.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	EndMarker   string
	Attempts    uint
	RetryDelay  time.Duration
	HTTPClient  *http.Client
}

// Channel talks to an OpenAI-compatible chat completion endpoint.
type Channel struct {
	client      *openai.Client
	configured  bool
	model       string
	temperature float32
	maxTokens   int
	endMarker   string
	attempts    uint
	retryDelay  time.Duration
}

// NewChannel builds a Channel. A nil HTTPClient gets one without an overall timeout so
// long streams are bounded by the request context instead.
func NewChannel(cfg Config) *Channel {
	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	} else {
		clientCfg.HTTPClient = &http.Client{}
	}

	c := &Channel{
		client:      openai.NewClientWithConfig(clientCfg),
		configured:  strings.TrimSpace(cfg.APIKey) != "",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		endMarker:   cfg.EndMarker,
		attempts:    cfg.Attempts,
		retryDelay:  cfg.RetryDelay,
	}
	if c.attempts == 0 {
		c.attempts = 2
	}
	if c.retryDelay <= 0 {
		c.retryDelay = 500 * time.Millisecond
	}
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Channel) IsConfigured() bool { return c.configured }

// Complete waits for the whole reply and returns it as one string.
func (c *Channel) Complete(ctx context.Context, messages []models.ConversationMessage) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}
	req := c.request(messages, false)

	var resp openai.ChatCompletionResponse
	err := retry.Do(
		func() error {
			var err error
			resp, err = c.client.CreateChatCompletion(ctx, req)
			return err
		},
		c.retryOptions(ctx, "complete")...,
	)
	if err != nil {
		return "", wrapUpstream(err)
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Message: "completion returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream opens a streamed completion. Establishing the stream is retried; once the
// first fragment may have been read, failures are reported as is. The caller must
// Close the returned stream.
func (c *Channel) Stream(ctx context.Context, messages []models.ConversationMessage) (*Stream, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}
	req := c.request(messages, true)

	var upstream *openai.ChatCompletionStream
	err := retry.Do(
		func() error {
			var err error
			upstream, err = c.client.CreateChatCompletionStream(ctx, req)
			return err
		},
		c.retryOptions(ctx, "stream")...,
	)
	if err != nil {
		return nil, wrapUpstream(err)
	}
	return newStream(ctx, upstream, c.endMarker), nil
}

func (c *Channel) request(messages []models.ConversationMessage, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    BuildMessages(messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}
}

func (c *Channel) retryOptions(ctx context.Context, op string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[completion] %s attempt %d/%d failed: %v", op, n+1, c.attempts, err)
		}),
	}
}

// BuildMessages prepends the system prompt and keeps only user and assistant turns.
// Client supplied system messages are dropped.
func BuildMessages(messages []models.ConversationMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt})
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case models.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case models.RoleAssistant:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content})
		}
	}
	return out
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if status := statusOf(err); status > 0 {
		return status == http.StatusTooManyRequests || status >= 500
	}
	return true
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// wrapUpstream leaves context errors untouched so callers can tell cancellation apart.
func wrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	msg := err.Error()
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &UpstreamError{StatusCode: statusOf(err), Message: msg, Err: err}
}
