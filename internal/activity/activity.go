package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultLimit is the number of entries kept when New gets a non-positive limit.
const DefaultLimit = 50

// Level classifies an entry for display.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is one user-visible line of controller activity.
type Entry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Log keeps the most recent entries, newest first, and mirrors every entry
// to a zerolog logger. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
	now     func() time.Time
	log     *zerolog.Logger
}

// New creates a log holding at most limit entries. A nil logger discards the mirror.
func New(limit int, logger *zerolog.Logger) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Log{
		limit: limit,
		now:   time.Now,
		log:   logger,
	}
}

func (l *Log) Info(msg string) Entry {
	return l.add(LevelInfo, msg, nil)
}

func (l *Log) Warn(msg string) Entry {
	return l.add(LevelWarn, msg, nil)
}

// Error records msg with err appended to the visible message.
func (l *Log) Error(msg string, err error) Entry {
	return l.add(LevelError, msg, err)
}

// Entries returns a copy of the retained entries, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns how many entries of level are retained.
func (l *Log) Count(level Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (l *Log) add(level Level, msg string, err error) Entry {
	text := msg
	if err != nil {
		text = msg + ": " + err.Error()
	}
	entry := Entry{
		ID:      uuid.NewString(),
		At:      l.now(),
		Level:   level,
		Message: text,
	}

	l.mu.Lock()
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
	l.mu.Unlock()

	var ev *zerolog.Event
	switch level {
	case LevelWarn:
		ev = l.log.Warn()
	case LevelError:
		ev = l.log.Error().Err(err)
	default:
		ev = l.log.Info()
	}
	ev.Str("activity_id", entry.ID).Msg(msg)
	return entry
}
