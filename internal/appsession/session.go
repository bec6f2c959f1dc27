// Package appsession implements chabeau's Session context (C10): the
// current provider binding, model, active-stream bookkeeping and
// cancellation, plus the append-only session log writer (spec §3
// "Session", §6 "Persisted state... Optional append-only log file").
// Grounded on the teacher's Model provider/engine/modelName fields in
// internal/tui/chat/chat.go and its debuglog append-line discipline.
package appsession

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/chabeau/chabeau/internal/provider"
)

// Session is chabeau's process-wide-singleton-per-run session context
// (spec §3). It is owned exclusively by App; background tasks hold only
// clonable handles (HTTP client, cancellation token, dispatcher sender),
// never a reference to Session itself (spec §3 "Ownership").
type Session struct {
	mu sync.Mutex

	ProviderID          string
	DisplayName         string
	BaseURL             string
	APIKey              string
	Auth                provider.AuthStyle
	Model               string
	Client              *http.Client

	streamCancel    context.CancelFunc
	currentStreamID uint64

	LastRetryTime  time.Time
	RetryingIndex  int
	StartupEnvOnly bool

	logger *Logger
}

// New returns a Session bound to the given resolved provider.
func New(sess provider.Session, model string) *Session {
	return &Session{
		ProviderID:  sess.ProviderID,
		DisplayName: sess.ProviderDisplayName,
		BaseURL:     sess.BaseURL,
		APIKey:      sess.APIKey,
		Auth:        sess.Auth,
		Model:       model,
		Client:      http.DefaultClient,
	}
}

// StartStream increments current_stream_id and installs a fresh
// cancellation token, returning the new id and a context that is canceled
// by CancelStream (spec §3 invariant: "current_stream_id is monotonically
// nondecreasing").
func (s *Session) StartStream(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamCancel != nil {
		s.streamCancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.streamCancel = cancel
	s.currentStreamID++
	return ctx, s.currentStreamID
}

// CancelStream signals the active stream's cancellation token and clears
// it, so stream_cancel is non-nil iff a stream is active (spec §3
// invariant).
func (s *Session) CancelStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamCancel != nil {
		s.streamCancel()
		s.streamCancel = nil
	}
}

// FinishStream clears stream_cancel once a stream's terminal
// StreamCompleted has been observed (spec §5 "Cancellation... The token is
// dropped after the terminal StreamCompleted is observed"), without
// signalling cancellation (the stream already finished on its own).
func (s *Session) FinishStream(streamID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if streamID != s.currentStreamID {
		return
	}
	s.streamCancel = nil
}

// CurrentStreamID returns the session's current stream id, used by the
// action dispatcher's stream-id gate (spec §4.8).
func (s *Session) CurrentStreamID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStreamID
}

// StreamActive reports whether a stream cancellation token is installed.
func (s *Session) StreamActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCancel != nil
}

// SwitchProvider replaces the active provider/model binding, used by the
// provider/model picker (spec §4.6). Any in-flight stream is cancelled
// first since it was issued against the old binding (spec §5
// "Cancellation triggers:... provider/model switch via picker").
func (s *Session) SwitchProvider(sess provider.Session, model string) {
	s.CancelStream()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProviderID = sess.ProviderID
	s.DisplayName = sess.ProviderDisplayName
	s.BaseURL = sess.BaseURL
	s.APIKey = sess.APIKey
	s.Auth = sess.Auth
	s.Model = model
}

// SetLogger attaches the append-only session logger (spec §6), replacing
// any previous one.
func (s *Session) SetLogger(l *Logger) { s.logger = l }

// Logger returns the attached session logger, or nil if logging is off.
func (s *Session) Logger() *Logger { return s.logger }

// Logger is chabeau's append-only session log writer (spec §6 "Persisted
// state... Optional append-only log file"). Entries are appended as plain
// text lines; there is no structured format, matching the spec's
// "append-line discipline only" scoping note in §1.
type Logger struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenLogger opens (creating if absent, appending otherwise) the
// user-specified log file path.
func OpenLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{path: path, f: f}, nil
}

// LogUser appends a user turn, prefixed by the configured display name
// (spec §6: "user turns prefixed `<display>: `").
func (l *Logger) LogUser(displayName, text string) error {
	if l == nil {
		return nil
	}
	return l.write(displayName + ": " + text + "\n\n")
}

// LogAssistant appends an assistant turn verbatim (spec §6).
func (l *Logger) LogAssistant(text string) error {
	if l == nil {
		return nil
	}
	return l.write(text + "\n\n")
}

// LogMarker appends a "## "-prefixed paused/resumed marker (spec §6).
func (l *Logger) LogMarker(text string) error {
	if l == nil {
		return nil
	}
	return l.write("## " + text + "\n\n")
}

func (l *Logger) write(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.f.WriteString(s)
	return err
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}

// Path returns the log file's path, for display in status lines.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
