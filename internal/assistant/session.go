package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowdeck/internal/domain"
)

// ErrEmptyCommand is returned when a submitted command is blank.
var ErrEmptyCommand = errors.New("empty command")

type job struct {
	intent Intent
	reply  chan domain.Message
}

// Session holds one conversation: an append-only message log plus a
// composing flag for the typing indicator. Submissions are accepted at any
// time (no input lock) but dispatched through a single worker, so responses
// land in submission order instead of racing on the artificial delay.
type Session struct {
	mu       sync.Mutex
	messages []domain.Message
	pending  int
	subs     []chan domain.Message

	dispatcher *Dispatcher
	delay      time.Duration
	Now        func() time.Time
	log        *zap.Logger

	jobs    chan job
	done    chan struct{}
	closeMu sync.RWMutex
	closed  bool
	once    sync.Once
}

func NewSession(d *Dispatcher, delay time.Duration, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		dispatcher: d,
		delay:      delay,
		Now:        time.Now,
		log:        log,
		jobs:       make(chan job, 16),
		done:       make(chan struct{}),
	}
	go s.loop()
	return s
}

// Submit fires a command and returns immediately; the response is appended to
// the log once composed.
func (s *Session) Submit(text string) {
	_, _ = s.submit(text, nil)
}

// SubmitWait fires a command and blocks until its response message is
// composed (or the context is done). Used by surfaces that need the reply
// inline, like the HTTP API and the CLI.
func (s *Session) SubmitWait(ctx context.Context, text string) (domain.Message, error) {
	reply := make(chan domain.Message, 1)
	if ok, err := s.submit(text, reply); !ok {
		return domain.Message{}, err
	}
	select {
	case m := <-reply:
		return m, nil
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

func (s *Session) submit(text string, reply chan domain.Message) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, ErrEmptyCommand
	}
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return false, errors.New("session closed")
	}
	s.append(domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   text,
		Kind:      domain.KindText,
		CreatedAt: s.Now().UTC().Format(time.RFC3339),
	})
	intent := Classify(text)
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	s.jobs <- job{intent: intent, reply: reply}
	return true, nil
}

func (s *Session) loop() {
	defer close(s.done)
	for j := range s.jobs {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		out := s.dispatcher.Dispatch(j.intent)
		msg := Compose(out, s.Now())
		s.append(msg)
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
		if j.reply != nil {
			j.reply <- msg
		}
	}
}

func (s *Session) append(m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	for _, sub := range s.subs {
		select {
		case sub <- m:
		default:
			s.log.Warn("dropping message for slow subscriber", zap.String("message_id", m.ID))
		}
	}
}

// Messages returns a snapshot of the log in chronological order.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Composing reports whether a response is still being produced.
func (s *Session) Composing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Subscribe returns a channel receiving every appended message. The channel
// is closed when the session closes.
func (s *Session) Subscribe() <-chan domain.Message {
	ch := make(chan domain.Message, 64)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Close stops accepting submissions, finishes in-flight responses and closes
// subscriber channels.
func (s *Session) Close() {
	s.once.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()
		close(s.jobs)
	})
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		close(sub)
	}
	s.subs = nil
}
