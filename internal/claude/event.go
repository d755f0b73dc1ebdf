package claude

// EventKind identifies the payload carried by a stream Event.
type EventKind int

const (
	// EventChunk carries one incremental text fragment.
	EventChunk EventKind = iota
	// EventDone signals that the stream finished normally.
	EventDone
	// EventError signals an error that terminated the stream.
	EventError
)

// Event is one element of a completion stream: zero or more chunks
// followed by exactly one Done or Error. After cancellation the channel
// closes without a terminal event.
type Event struct {
	Kind EventKind
	Text string // set for EventChunk
	Err  error  // set for EventError
}
