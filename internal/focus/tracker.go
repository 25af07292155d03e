// Package focus keeps a sticky cursor over a host tree. The focused node,
// the history of previous focus positions and named marks all survive
// re-renders through anchor strategies.
package focus

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/livefir/anchor"
	"go.uber.org/zap"
)

var (
	// ErrNoFocus is returned when nothing has been focused yet.
	ErrNoFocus = errors.New("nothing focused")
	// ErrNoHistory is returned by Back when there is no previous focus.
	ErrNoHistory = errors.New("no focus history")
	// ErrUnknownMark is returned by Jump for a name that was never marked.
	ErrUnknownMark = errors.New("unknown mark")
	// ErrTooManyMarks is returned by Mark when the tracker is at capacity.
	ErrTooManyMarks = errors.New("too many marks")
)

// ReadCounter is notified on every read of the focused node.
type ReadCounter interface {
	IncrementRead()
}

// Config defines Tracker configuration
type Config struct {
	Kind        anchor.Kind     // Recovery kind for every anchor
	HistorySize int             // Previous focus positions kept for Back
	MaxMarks    int             // Maximum named marks
	Options     []anchor.Option // Extra strategy options, e.g. boundary or observer
	Reads       ReadCounter     // Optional read counter
	Logger      *zap.Logger
}

// DefaultConfig returns the default tracker configuration
func DefaultConfig() *Config {
	return &Config{
		Kind:        anchor.PathDescent,
		HistorySize: 32,
		MaxMarks:    64,
		Logger:      zap.NewNop(),
	}
}

// Tracker is a focus cursor. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	current *anchor.Strategy
	history []*anchor.Strategy
	marks   map[string]*anchor.Strategy
	config  Config
}

// NewTracker creates a tracker. A nil config uses DefaultConfig.
func NewTracker(config *Config) *Tracker {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.HistorySize < 0 {
		cfg.HistorySize = 0
	}

	return &Tracker{
		marks:  make(map[string]*anchor.Strategy),
		config: cfg,
	}
}

func (t *Tracker) anchorFor(node anchor.Node, name string) *anchor.Strategy {
	opts := make([]anchor.Option, 0, len(t.config.Options)+2)
	opts = append(opts, t.config.Options...)
	opts = append(opts, anchor.WithName(name), anchor.WithLogger(t.config.Logger))
	return anchor.New(node, t.config.Kind, opts...)
}

// Focus moves the cursor to node. The previous position goes onto the
// history; the oldest entry is dropped once the history is full.
func (t *Tracker) Focus(node anchor.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.focusLocked(node)
}

func (t *Tracker) focusLocked(node anchor.Node) {
	if t.current != nil && t.config.HistorySize > 0 {
		if len(t.history) == t.config.HistorySize {
			t.history = t.history[1:]
		}
		t.history = append(t.history, t.current)
	}
	t.current = t.anchorFor(node, "focus")
	t.config.Logger.Debug("focus moved", zap.Int("history", len(t.history)))
}

// Current returns the focused node, recovering it if it went stale.
func (t *Tracker) Current() (anchor.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil, ErrNoFocus
	}
	if t.config.Reads != nil {
		t.config.Reads.IncrementRead()
	}
	return t.current.Node(), nil
}

// Stale reports whether focus is lost: nothing is focused, or the focused
// node is stale and recovery could not replace it.
func (t *Tracker) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return true
	}
	return anchor.IsStale(t.current.Node())
}

// Back returns focus to the previous position.
func (t *Tracker) Back() (anchor.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return nil, ErrNoHistory
	}
	last := len(t.history) - 1
	t.current = t.history[last]
	t.history = t.history[:last]
	return t.current.Node(), nil
}

// History returns the number of positions Back can return to.
func (t *Tracker) History() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}

// Mark remembers the focused node under name, replacing any earlier mark
// with that name.
func (t *Tracker) Mark(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return ErrNoFocus
	}
	if _, exists := t.marks[name]; !exists && t.config.MaxMarks > 0 && len(t.marks) >= t.config.MaxMarks {
		return fmt.Errorf("mark %q: %w (%d)", name, ErrTooManyMarks, t.config.MaxMarks)
	}

	t.marks[name] = t.anchorFor(t.current.Node(), "mark:"+name)
	return nil
}

// Jump focuses the node remembered under name. The mark itself is kept.
func (t *Tracker) Jump(name string) (anchor.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mark, exists := t.marks[name]
	if !exists {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownMark)
	}

	node := mark.Node()
	t.focusLocked(node)
	return node, nil
}

// Unmark forgets a mark and reports whether it existed.
func (t *Tracker) Unmark(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.marks[name]
	delete(t.marks, name)
	return exists
}

// Marks returns the mark names in sorted order.
func (t *Tracker) Marks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.marks))
	for name := range t.marks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
