package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"fintrack/internal/log"
)

// DefaultLocale is the only recognition language the app asks for.
const DefaultLocale = "en-US"

var (
	ErrBusy        = errors.New("voice capture already in progress")
	ErrUnsupported = errors.New("speech recognition is not supported")
	ErrRecognition = errors.New("speech recognition failed")
	ErrNoResult    = errors.New("speech recognition ended without a result")
)

// State is the capture state shown next to the microphone button.
type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return "idle"
	}
}

// Settings are handed to the recognizer for every capture.
type Settings struct {
	Locale         string
	Continuous     bool
	InterimResults bool
}

// DefaultSettings returns single-shot, final-result-only recognition in DefaultLocale.
func DefaultSettings() Settings {
	return Settings{Locale: DefaultLocale}
}

// Recognizer produces one final transcript per call. An empty transcript with a nil
// error means the capture ended without a result.
type Recognizer interface {
	Recognize(ctx context.Context, settings Settings) (string, error)
}

// Session drives one microphone: Idle -> Recording -> Processing -> Idle.
type Session struct {
	mu         sync.Mutex
	state      State
	recognizer Recognizer
	settings   Settings
	available  func() bool
	logger     *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSettings overrides DefaultSettings.
func WithSettings(s Settings) Option {
	return func(sess *Session) { sess.settings = s }
}

// WithAvailability makes Capture fail with ErrUnsupported whenever fn returns false,
// e.g. while the app is offline.
func WithAvailability(fn func() bool) Option {
	return func(sess *Session) { sess.available = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(sess *Session) { sess.logger = l }
}

// NewSession creates an idle session. A nil recognizer is allowed and reports
// ErrUnsupported on every capture.
func NewSession(r Recognizer, opts ...Option) *Session {
	s := &Session{
		recognizer: r,
		settings:   DefaultSettings(),
		logger:     log.New(log.DefaultConfig()).WithComponent(log.ComponentVoice),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current capture state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Supported reports whether a capture could start right now.
func (s *Session) Supported() bool {
	return s.recognizer != nil && (s.available == nil || s.available())
}

// Capture records one utterance and parses it. ok is false with a nil error when the
// transcript could not be parsed; the caller should leave its draft untouched.
func (s *Session) Capture(ctx context.Context) (Candidate, bool, error) {
	if !s.Supported() {
		return Candidate{}, false, ErrUnsupported
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return Candidate{}, false, ErrBusy
	}
	s.state = Recording
	s.mu.Unlock()
	defer s.setState(Idle)

	transcript, err := s.recognizer.Recognize(ctx, s.settings)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, false, ctxErr
		}
		s.logger.WarnContext(ctx, "Speech recognition error", log.FieldError, err.Error())
		return Candidate{}, false, fmt.Errorf("%w: %w", ErrRecognition, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Candidate{}, false, ErrNoResult
	}

	s.setState(Processing)
	c, err := Parse(transcript)
	if err != nil {
		s.logger.DebugContext(ctx, "Transcript not parsed",
			log.FieldOperation, log.OpParse,
			log.FieldError, err.Error())
		return Candidate{}, false, nil
	}
	s.logger.DebugContext(ctx, "Transcript parsed",
		log.FieldTranscript, transcript,
		log.FieldEntryKind, string(c.Kind))
	return c, true, nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// TranscriptRecognizer returns a transcript that was already recognised elsewhere,
// typically by the browser's speech engine.
type TranscriptRecognizer string

func (t TranscriptRecognizer) Recognize(ctx context.Context, _ Settings) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(t), nil
}

// LineRecognizer treats each line read from r as one utterance.
type LineRecognizer struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
}

func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(r)}
}

// Recognize returns the next line. At end of input it returns io.EOF.
func (l *LineRecognizer) Recognize(ctx context.Context, _ Settings) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.scanner.Text(), nil
}
