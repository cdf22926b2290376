// Package eventlog is the bounded narrative output of the game: a sequence of
// timestamped, typed messages that evicts its oldest entries past a fixed cap
// and pushes every new entry to subscribers.
package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies an entry for presentation.
type Kind string

const (
	KindCombat Kind = "combat"
	KindSystem Kind = "system"
	KindReward Kind = "reward"
	KindError  Kind = "error"
	KindCrit   Kind = "crit"
	KindSave   Kind = "save"
	KindParty  Kind = "party"
	KindLoot   Kind = "loot"
)

// DefaultCap is the number of entries retained when New is given no cap.
const DefaultCap = 100

// Entry is one log message.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Kind    Kind      `json:"kind"`
	Text    string    `json:"text"`
	Details string    `json:"details,omitempty"`
}

// Log is safe for concurrent use.
//
// Invariant: len(entries) <= cap; entries are in append order.
type Log struct {
	mu          sync.Mutex
	cap         int
	entries     []Entry
	subscribers map[chan<- Entry]struct{}
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger mirrors every entry to logger at a level derived from its kind.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New returns an empty Log holding at most capacity entries.
// A capacity below 1 selects DefaultCap.
func New(capacity int, opts ...Option) *Log {
	if capacity < 1 {
		capacity = DefaultCap
	}
	l := &Log{
		cap:         capacity,
		entries:     make([]Entry, 0, capacity),
		subscribers: make(map[chan<- Entry]struct{}),
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Add appends an entry and returns it.
//
// Postcondition: the oldest entry is evicted when the log was at capacity;
// each subscriber receives the entry unless its channel is full.
func (l *Log) Add(kind Kind, text string) Entry {
	return l.AddDetails(kind, text, "")
}

// Addf is Add with fmt.Sprintf formatting.
func (l *Log) Addf(kind Kind, format string, args ...any) Entry {
	return l.AddDetails(kind, fmt.Sprintf(format, args...), "")
}

// AddDetails appends an entry carrying optional detail text.
func (l *Log) AddDetails(kind Kind, text, details string) Entry {
	l.mu.Lock()
	e := Entry{ID: uuid.NewString(), Time: l.now(), Kind: kind, Text: text, Details: details}
	if len(l.entries) == l.cap {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.cap-1]
	}
	l.entries = append(l.entries, e)
	subs := make([]chan<- Entry, 0, len(l.subscribers))
	for ch := range l.subscribers {
		subs = append(subs, ch)
	}
	l.mu.Unlock()

	l.mirror(e)
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

func (l *Log) mirror(e Entry) {
	fields := []zap.Field{zap.String("kind", string(e.Kind))}
	if e.Details != "" {
		fields = append(fields, zap.String("details", e.Details))
	}
	switch e.Kind {
	case KindError:
		l.logger.Warn(e.Text, fields...)
	case KindCombat, KindCrit:
		l.logger.Debug(e.Text, fields...)
	default:
		l.logger.Info(e.Text, fields...)
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe registers ch to receive every subsequently added entry.
// If ch is full, the entry is dropped for that subscriber (non-blocking).
//
// Precondition: ch must not be nil.
func (l *Log) Subscribe(ch chan<- Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (l *Log) Unsubscribe(ch chan<- Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subscribers, ch)
}
