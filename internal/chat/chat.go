// Package chat is the UI-facing entry point: it assembles the prompt,
// acquires a credential lazily, streams the completion into the transcript
// and always resolves to a terminal result, routing failures through the
// error reporter instead of letting them escape to the host.
package chat

import (
	"context"

	"github.com/cpulvermacher/claudechat/internal/claude"
	"github.com/cpulvermacher/claudechat/internal/credentials"
	"github.com/cpulvermacher/claudechat/internal/prompt"
	"github.com/cpulvermacher/claudechat/internal/report"
)

// CommandChat is the command tag carried by every chat result, used by the
// host for UI bookkeeping.
const CommandChat = "claude_chat"

// Result is the terminal value of a chat request. The response text itself
// was already streamed incrementally, so the tag is the only payload.
type Result struct {
	Command string
}

// State tracks the request lifecycle. Failure is reachable from every
// non-terminal state; streaming is never skipped once a credential is
// available.
type State int

const (
	StateIdle State = iota
	StateAwaitingCredential
	StateStreaming
	StateCompleted
	StateFailed
)

// Completer issues one streaming completion request.
type Completer interface {
	StreamCompletion(ctx context.Context, promptText string) <-chan claude.Event
}

// ClientFactory constructs a completer once a credential is available.
type ClientFactory func(apiKey string) (Completer, error)

// Handler handles one chat request at a time. The completer is constructed
// lazily on first use and reused for the process lifetime.
type Handler struct {
	creds    *credentials.Store
	factory  ClientFactory
	reporter *report.Reporter
	client   Completer
	state    State
}

// NewHandler creates a handler. The reporter may be nil, in which case a
// default stderr reporter is used.
func NewHandler(creds *credentials.Store, factory ClientFactory, reporter *report.Reporter) *Handler {
	if reporter == nil {
		reporter = report.New(nil)
	}
	return &Handler{
		creds:    creds,
		factory:  factory,
		reporter: reporter,
		state:    StateIdle,
	}
}

// State returns the lifecycle state after the most recent request.
func (h *Handler) State() State {
	return h.state
}

func (h *Handler) ensureClient() (Completer, error) {
	if h.client != nil {
		return h.client, nil
	}

	h.state = StateAwaitingCredential
	apiKey, err := h.creds.GetOrPrompt()
	if err != nil {
		return nil, err
	}

	if h.factory == nil {
		return nil, claude.ErrUninitialized
	}
	client, err := h.factory(apiKey)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, claude.ErrUninitialized
	}

	h.client = client
	return client, nil
}

// Handle runs one chat request. Every chunk is relayed to the transcript
// as it arrives. Empty assembled input is a no-op, not an error. A terminal
// Result is always returned; failures are reported on the sink first.
func (h *Handler) Handle(ctx context.Context, input prompt.Input, transcript func(string), sink report.Sink) Result {
	h.state = StateIdle
	result := Result{Command: CommandChat}

	text := prompt.ToString(input)
	if text == "" {
		// Nothing to send; skip the remote call entirely.
		h.state = StateCompleted
		return result
	}

	client, err := h.ensureClient()
	if err != nil {
		h.reporter.Report(err, sink)
		h.state = StateFailed
		return result
	}

	h.state = StateStreaming
	for ev := range client.StreamCompletion(ctx, text) {
		switch ev.Kind {
		case claude.EventChunk:
			if transcript != nil {
				transcript(ev.Text)
			}
		case claude.EventError:
			h.reporter.Report(ev.Err, sink)
			h.state = StateFailed
			return result
		case claude.EventDone:
			h.state = StateCompleted
			return result
		}
	}

	// Channel closed without a terminal event: the request was cancelled.
	// The interaction still resolves, but nothing is surfaced to the user.
	h.state = StateFailed
	return result
}
