package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cpulvermacher/claudechat/internal/ratelimit"
)

// ErrNoCount indicates the counting endpoint returned no usable count.
var ErrNoCount = errors.New("token count unavailable")

// ErrUninitialized indicates an entry point was invoked before a client
// could be constructed. This is a programming error on any valid call path.
var ErrUninitialized = errors.New("client is not initialized")

// Client wraps the Anthropic SDK for single-prompt streaming completions
// and out-of-band token counting. Responses are never cached locally.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	limiter   *ratelimit.RateLimiter
}

// New creates a client for the given model and output-token ceiling.
// The rate limiter is optional; pass nil to disable it.
func New(apiKey, model string, maxTokens int, limiter *ratelimit.RateLimiter) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive (got %d)", maxTokens)
	}

	api := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &Client{
		api:       api,
		model:     model,
		maxTokens: int64(maxTokens),
		limiter:   limiter,
	}, nil
}

func (c *Client) newParams(promptText string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptText)),
		},
	}
}

// StreamCompletion issues a streaming completion request and returns the
// event sequence. Chunks are delivered in transport arrival order. Exactly
// one Done or Error event terminates the sequence, except after context
// cancellation, when the channel closes without a terminal event so no
// result can fire after the caller gave up.
func (c *Client) StreamCompletion(ctx context.Context, promptText string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.emit(ctx, events, Event{Kind: EventError, Err: fmt.Errorf("rate limit error: %w", err)})
				return
			}
		}

		stream := c.api.Messages.NewStreaming(ctx, c.newParams(promptText))
		defer func() {
			_ = stream.Close()
		}()

		for stream.Next() {
			if ctx.Err() != nil {
				return
			}

			event := stream.Current()
			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if deltaVariant.Text != "" {
						if !c.emit(ctx, events, Event{Kind: EventChunk, Text: deltaVariant.Text}) {
							return
						}
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.emit(ctx, events, Event{Kind: EventError, Err: fmt.Errorf("stream error: %w", err)})
			return
		}

		c.emit(ctx, events, Event{Kind: EventDone})
	}()

	return events
}

// emit sends an event unless the context is cancelled first.
func (c *Client) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// CountTokens returns the provider-reported input-token count for the
// prompt. An empty prompt counts as zero without a network call.
func (c *Client) CountTokens(ctx context.Context, promptText string) (int, error) {
	if promptText == "" {
		return 0, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit error: %w", err)
		}
	}

	count, err := c.api.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptText)),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	if count == nil || count.InputTokens <= 0 {
		return 0, ErrNoCount
	}

	return int(count.InputTokens), nil
}

// EstimateTokens is a length-based approximation for callers that opt out
// of the counting endpoint. It is an explicit fallback, never a silent
// substitute for CountTokens.
func EstimateTokens(text string) int {
	// Roughly four characters per token for English text.
	return (len(text) + 3) / 4
}
