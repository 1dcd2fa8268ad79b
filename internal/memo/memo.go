// Package memo implements the bounded, in-memory insights log exposed as the
// memo://insights resource. Entries live only in process memory and are lost
// on restart.
package memo

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// EmptyMarker is returned by Render when no insights have been recorded.
const EmptyMarker = "No insights recorded yet."

// Memo is an ordered, bounded log of timestamped insight entries, newest
// first. All methods are safe for concurrent use; each mutation is a single
// atomic step — readers never observe a partially applied append or clear.
type Memo struct {
	mu         sync.Mutex
	maxEntries int
	entries    []string
	now        func() time.Time
}

// New creates a Memo bounded to maxEntries. Panics if maxEntries <= 0.
func New(maxEntries int) *Memo {
	if maxEntries <= 0 {
		panic(fmt.Sprintf("memo: maxEntries must be > 0, got %d", maxEntries))
	}
	return &Memo{maxEntries: maxEntries, now: time.Now}
}

// Append records an insight, optionally categorized, newest first. Entries
// beyond the bound are dropped oldest-first. Empty or whitespace-only text is
// rejected.
func (m *Memo) Append(text, category string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("memo: insight text must be non-empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.now().UTC().Format(time.RFC3339)
	var entry string
	if category != "" {
		entry = fmt.Sprintf("[%s] [%s] %s", ts, category, text)
	} else {
		entry = fmt.Sprintf("[%s] %s", ts, text)
	}

	m.entries = append([]string{entry}, m.entries...)
	if len(m.entries) > m.maxEntries {
		m.entries = m.entries[:m.maxEntries]
	}
	return nil
}

// Clear empties the memo and returns the number of entries removed.
func (m *Memo) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = nil
	return n
}

// Len returns the current entry count.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns a copy of the entries, newest first.
func (m *Memo) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

// Render returns the memo as text, one entry per line, or EmptyMarker when
// the memo is empty.
func (m *Memo) Render() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return EmptyMarker
	}
	return strings.Join(m.entries, "\n")
}
