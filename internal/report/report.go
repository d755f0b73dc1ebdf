// Package report is the terminal sink for failures: every error caught at
// the handler or provider boundary is logged and turned into a
// human-readable message here, and nothing propagates further.
package report

import (
	"log/slog"
	"os"
)

// Sink receives the user-visible form of a failure.
type Sink interface {
	ShowError(message string)
}

// Reporter normalizes errors into user-visible messages and logs them to a
// structured sink. Report never panics and never returns an error.
type Reporter struct {
	logger *slog.Logger
}

// New creates a reporter writing to the given logger. A nil logger falls
// back to a text handler on stderr.
func New(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Reporter{logger: logger}
}

// Report logs the failure and surfaces a normalized message on the sink.
// Errors with a descriptive message surface as "An error occurred: <msg>";
// anything else surfaces as a generic message. The sink may be nil when
// there is no UI to notify.
func (r *Reporter) Report(err error, sink Sink) {
	message := "An unknown error occurred"
	if err != nil && err.Error() != "" {
		message = "An error occurred: " + err.Error()
	}

	r.logger.Error("request failed", "error", err)

	if sink != nil {
		sink.ShowError(message)
	}
}
