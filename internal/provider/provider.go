// Package provider exposes text generation and token counting to callers
// other than the interactive chat UI. Chunks are delivered through a
// caller-supplied progress sink, and providers register themselves by name
// so other tools can discover them.
package provider

import (
	"context"

	"github.com/cpulvermacher/claudechat/internal/claude"
	"github.com/cpulvermacher/claudechat/internal/prompt"
)

// Completer issues streaming completions and token-count queries.
type Completer interface {
	StreamCompletion(ctx context.Context, promptText string) <-chan claude.Event
	CountTokens(ctx context.Context, promptText string) (int, error)
}

// Metadata describes the capabilities a provider declares when registering.
type Metadata struct {
	Vendor          string
	Name            string
	Family          string
	Version         string
	MaxInputTokens  int
	MaxOutputTokens int
}

// Provider answers generation and token-count requests for one model.
type Provider struct {
	completer Completer
	meta      Metadata
}

// New creates a provider around an already-constructed completer.
func New(completer Completer, meta Metadata) *Provider {
	return &Provider{completer: completer, meta: meta}
}

// Metadata returns the capability metadata declared at registration.
func (p *Provider) Metadata() Metadata {
	return p.meta
}

// ProvideResponse streams the completion for the given input, reporting
// each text fragment through progress. Empty assembled input resolves
// immediately with no fragments and no remote call. The returned error is
// the single terminal failure, if any.
func (p *Provider) ProvideResponse(ctx context.Context, input prompt.Input, progress func(string)) error {
	text := prompt.ToString(input)
	if text == "" {
		return nil
	}
	if p.completer == nil {
		return claude.ErrUninitialized
	}

	for ev := range p.completer.StreamCompletion(ctx, text) {
		switch ev.Kind {
		case claude.EventChunk:
			if progress != nil {
				progress(ev.Text)
			}
		case claude.EventError:
			return ev.Err
		case claude.EventDone:
			return nil
		}
	}

	// Channel closed without a terminal event: the request was cancelled.
	return ctx.Err()
}

// ProvideTokenCount returns the input-token count for the given input.
// Empty input counts as zero without a remote call.
func (p *Provider) ProvideTokenCount(ctx context.Context, input prompt.Input) (int, error) {
	text := prompt.ToString(input)
	if text == "" {
		return 0, nil
	}
	if p.completer == nil {
		return 0, claude.ErrUninitialized
	}
	return p.completer.CountTokens(ctx, text)
}
