package claude

import (
	"context"
	"errors"
)

// MockClient is a scripted stand-in for Client used by handler and
// provider tests. It satisfies the same method set without any network.
type MockClient struct {
	chunks     []string
	failAfter  int // emit an error after this many chunks; -1 disables
	tokenCount int
	countErr   error

	// StreamCalls and CountCalls record how often each entry point ran.
	StreamCalls int
	CountCalls  int
}

// NewMockClient creates a mock that streams the given chunks then completes.
func NewMockClient(chunks ...string) *MockClient {
	return &MockClient{
		chunks:    chunks,
		failAfter: -1,
	}
}

// FailAfter makes the stream emit an error event after n chunks instead of
// completing.
func (m *MockClient) FailAfter(n int) {
	m.failAfter = n
}

// SetTokenCount sets the value returned by CountTokens.
func (m *MockClient) SetTokenCount(n int) {
	m.tokenCount = n
}

// SetCountError makes CountTokens fail.
func (m *MockClient) SetCountError(err error) {
	m.countErr = err
}

// StreamCompletion streams the scripted chunks followed by a terminal event.
func (m *MockClient) StreamCompletion(ctx context.Context, promptText string) <-chan Event {
	m.StreamCalls++
	events := make(chan Event)

	go func() {
		defer close(events)

		for i, chunk := range m.chunks {
			if m.failAfter >= 0 && i >= m.failAfter {
				break
			}
			select {
			case events <- Event{Kind: EventChunk, Text: chunk}:
			case <-ctx.Done():
				return
			}
		}

		if ctx.Err() != nil {
			return
		}

		if m.failAfter >= 0 {
			events <- Event{Kind: EventError, Err: errors.New("simulated transport error")}
			return
		}
		events <- Event{Kind: EventDone}
	}()

	return events
}

// CountTokens returns the scripted count or error.
func (m *MockClient) CountTokens(ctx context.Context, promptText string) (int, error) {
	if promptText == "" {
		return 0, nil
	}
	m.CountCalls++
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.tokenCount, nil
}
