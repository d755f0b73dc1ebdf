// Package credentials owns the API key: it loads the persisted secret,
// prompts the user at most once per process lifetime when the secret is
// missing, and persists a newly entered key before handing it out. The key
// never appears in log output or error messages.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cpulvermacher/claudechat/internal/config"
	"golang.org/x/term"
)

// ErrMissingCredential indicates the user cancelled or supplied no key.
// Callers must not proceed to make an authenticated call.
var ErrMissingCredential = errors.New("no API key provided")

// Prompter obtains a key interactively. Implementations must keep the
// input hidden. Returning an empty string signals cancellation.
type Prompter func() (string, error)

// Store loads and memoizes the API key. Lifecycle is one per process:
// once a key is loaded it is reused without re-prompting or re-reading
// storage. Not safe for concurrent use; all access happens on the single
// logical control thread of the caller.
type Store struct {
	cfg    *config.Config
	prompt Prompter
	loaded bool
	key    string
}

// NewStore creates a store backed by the given config. The prompter may be
// nil, in which case a missing key fails instead of prompting.
func NewStore(cfg *config.Config, prompt Prompter) *Store {
	return &Store{cfg: cfg, prompt: prompt}
}

// GetOrPrompt returns the API key, prompting the user if no key is
// persisted. A successfully entered key is persisted before returning.
// Fails with ErrMissingCredential when the user cancels or enters nothing.
func (s *Store) GetOrPrompt() (string, error) {
	if s.loaded {
		return s.key, nil
	}

	if s.cfg != nil && s.cfg.APIKey != "" {
		s.key = s.cfg.APIKey
		s.loaded = true
		return s.key, nil
	}

	if s.prompt == nil {
		return "", ErrMissingCredential
	}

	entered, err := s.prompt()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	entered = strings.TrimSpace(entered)
	if entered == "" {
		return "", ErrMissingCredential
	}

	if err := s.persist(entered); err != nil {
		return "", err
	}
	return s.key, nil
}

// Set stores a key entered outside the prompt flow (e.g. the first-run
// screen of the TUI) and persists it.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingCredential
	}
	return s.persist(key)
}

func (s *Store) persist(key string) error {
	if s.cfg != nil {
		s.cfg.APIKey = key
		if err := config.Save(s.cfg); err != nil {
			return fmt.Errorf("failed to persist API key: %w", err)
		}
	}
	s.key = key
	s.loaded = true
	return nil
}

// TerminalPrompter reads a hidden key from the controlling terminal.
func TerminalPrompter() Prompter {
	return func() (string, error) {
		fmt.Fprint(os.Stderr, "Anthropic API key: ")
		entered, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(entered), nil
	}
}
