package chat

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cpulvermacher/claudechat/internal/claude"
	"github.com/cpulvermacher/claudechat/internal/config"
	"github.com/cpulvermacher/claudechat/internal/credentials"
	"github.com/cpulvermacher/claudechat/internal/prompt"
	"github.com/cpulvermacher/claudechat/internal/report"
	"github.com/spf13/viper"
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) ShowError(message string) {
	s.messages = append(s.messages, message)
}

func withTempHome(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	t.Cleanup(func() {
		os.Setenv("HOME", originalHome)
		viper.Reset()
	})
	os.Setenv("HOME", tmpDir)
	viper.Reset()
}

func quietReporter() *report.Reporter {
	return report.New(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func newTestHandler(t *testing.T, mock *claude.MockClient) *Handler {
	t.Helper()
	creds := credentials.NewStore(&config.Config{APIKey: "sk-ant-test"}, nil)
	factory := func(apiKey string) (Completer, error) {
		return mock, nil
	}
	return NewHandler(creds, factory, quietReporter())
}

func TestHandleStreamsChunksInOrder(t *testing.T) {
	withTempHome(t)
	mock := claude.NewMockClient("Big-O ", "notation ", "describes growth.")
	handler := newTestHandler(t, mock)

	var transcript []string
	result := handler.Handle(context.Background(), prompt.Text("What is Big-O notation?"), func(chunk string) {
		transcript = append(transcript, chunk)
	}, nil)

	if result.Command != CommandChat {
		t.Errorf("result command = %q, want %q", result.Command, CommandChat)
	}
	if handler.State() != StateCompleted {
		t.Errorf("state = %v, want StateCompleted", handler.State())
	}
	got := strings.Join(transcript, "")
	if got != "Big-O notation describes growth." {
		t.Errorf("transcript = %q, want chunks concatenated in arrival order", got)
	}
}

func TestHandleEmptyInput(t *testing.T) {
	withTempHome(t)

	tests := []struct {
		name  string
		input prompt.Input
	}{
		{name: "empty string", input: prompt.Text("")},
		{name: "empty message list", input: prompt.Messages{}},
		{name: "nil input", input: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := claude.NewMockClient("should not be sent")
			handler := newTestHandler(t, mock)

			result := handler.Handle(context.Background(), tt.input, nil, nil)

			if result.Command != CommandChat {
				t.Errorf("result command = %q, want %q", result.Command, CommandChat)
			}
			if handler.State() != StateCompleted {
				t.Errorf("state = %v, want StateCompleted", handler.State())
			}
			if mock.StreamCalls != 0 {
				t.Errorf("remote call count = %d, want 0 for empty input", mock.StreamCalls)
			}
		})
	}
}

func TestHandleTransportErrorMidStream(t *testing.T) {
	withTempHome(t)
	mock := claude.NewMockClient("partial ", "output")
	mock.FailAfter(2)
	handler := newTestHandler(t, mock)
	sink := &recordingSink{}

	var transcript []string
	result := handler.Handle(context.Background(), prompt.Text("prompt"), func(chunk string) {
		transcript = append(transcript, chunk)
	}, sink)

	// The handler still resolves the interaction.
	if result.Command != CommandChat {
		t.Errorf("result command = %q, want %q", result.Command, CommandChat)
	}
	if handler.State() != StateFailed {
		t.Errorf("state = %v, want StateFailed", handler.State())
	}
	// Exactly one error surfaced, previously delivered chunks retained.
	if len(sink.messages) != 1 {
		t.Fatalf("surfaced errors = %d, want 1", len(sink.messages))
	}
	if !strings.HasPrefix(sink.messages[0], "An error occurred: ") {
		t.Errorf("surfaced message = %q, want normalized prefix", sink.messages[0])
	}
	if strings.Join(transcript, "") != "partial output" {
		t.Errorf("transcript = %q, want partial output retained", strings.Join(transcript, ""))
	}
}

func TestHandleMissingCredential(t *testing.T) {
	withTempHome(t)
	creds := credentials.NewStore(&config.Config{}, func() (string, error) {
		return "", nil // user cancels
	})
	mock := claude.NewMockClient("never")
	handler := NewHandler(creds, func(apiKey string) (Completer, error) {
		return mock, nil
	}, quietReporter())
	sink := &recordingSink{}

	result := handler.Handle(context.Background(), prompt.Text("prompt"), nil, sink)

	if result.Command != CommandChat {
		t.Errorf("result command = %q, want %q", result.Command, CommandChat)
	}
	if handler.State() != StateFailed {
		t.Errorf("state = %v, want StateFailed", handler.State())
	}
	if mock.StreamCalls != 0 {
		t.Error("authenticated call made despite missing credential")
	}
	if len(sink.messages) != 1 {
		t.Errorf("surfaced errors = %d, want 1", len(sink.messages))
	}
}

func TestHandlePromptsAtMostOnce(t *testing.T) {
	withTempHome(t)
	prompts := 0
	creds := credentials.NewStore(&config.Config{}, func() (string, error) {
		prompts++
		return "sk-ant-prompted", nil
	})
	mock := claude.NewMockClient("reply")
	handler := NewHandler(creds, func(apiKey string) (Completer, error) {
		return mock, nil
	}, quietReporter())

	handler.Handle(context.Background(), prompt.Text("first"), nil, nil)
	handler.Handle(context.Background(), prompt.Text("second"), nil, nil)

	if prompts != 1 {
		t.Errorf("interactive prompt invoked %d times across two requests, want 1", prompts)
	}
	if mock.StreamCalls != 2 {
		t.Errorf("stream calls = %d, want 2", mock.StreamCalls)
	}
}

func TestHandleNilFactory(t *testing.T) {
	withTempHome(t)
	creds := credentials.NewStore(&config.Config{APIKey: "sk-ant-test"}, nil)
	handler := NewHandler(creds, nil, quietReporter())
	sink := &recordingSink{}

	result := handler.Handle(context.Background(), prompt.Text("prompt"), nil, sink)

	if result.Command != CommandChat {
		t.Errorf("result command = %q, want %q", result.Command, CommandChat)
	}
	if handler.State() != StateFailed {
		t.Errorf("state = %v, want StateFailed", handler.State())
	}
	if len(sink.messages) != 1 {
		t.Fatalf("surfaced errors = %d, want 1", len(sink.messages))
	}
	if !strings.Contains(sink.messages[0], claude.ErrUninitialized.Error()) {
		t.Errorf("surfaced message = %q, want uninitialized client error", sink.messages[0])
	}
}

func TestHandleCancellation(t *testing.T) {
	withTempHome(t)
	mock := claude.NewMockClient("a", "b", "c")
	handler := newTestHandler(t, mock)
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := handler.Handle(ctx, prompt.Text("prompt"), nil, sink)

	// Still terminal, but cancellation is not surfaced as a user error.
	if result.Command != CommandChat {
		t.Errorf("result command = %q, want %q", result.Command, CommandChat)
	}
	if handler.State() == StateStreaming {
		t.Error("handler left in non-terminal state after cancellation")
	}
}
