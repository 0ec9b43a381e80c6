// Package gamelog keeps the player-visible audit trail: an append-only,
// bounded list of the most recent game events. It is a lossy record for
// display, never a source of truth.
package gamelog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxEntries bounds the log; the oldest entries are evicted first.
const MaxEntries = 100

// Kind tags a log entry for presentation.
type Kind string

const (
	KindNarration    Kind = "narration"
	KindDialogue     Kind = "dialogue"
	KindEvent        Kind = "event"
	KindReward       Kind = "reward"
	KindError        Kind = "error"
	KindLocation     Kind = "location"
	KindSystem       Kind = "system"
	KindCombat       Kind = "combat"
	KindCombatAction Kind = "combat_action"
	KindCombatResult Kind = "combat_result"
)

// Entry is one logged event.
type Entry struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"type"`
	Speaker   string `json:"speaker,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Log is the bounded entry list. Not safe for concurrent use; the
// session engine serializes access.
type Log struct {
	Entries []Entry `json:"entries"`
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Add appends an entry, evicting the oldest past MaxEntries.
func (l *Log) Add(kind Kind, message string) {
	l.AddSpoken(kind, "", message)
}

// Addf appends a formatted entry.
func (l *Log) Addf(kind Kind, format string, args ...any) {
	l.AddSpoken(kind, "", fmt.Sprintf(format, args...))
}

// AddSpoken appends an entry attributed to a speaker.
func (l *Log) AddSpoken(kind Kind, speaker, message string) {
	l.Entries = append(l.Entries, Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Speaker:   speaker,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
	if n := len(l.Entries); n > MaxEntries {
		l.Entries = append(l.Entries[:0], l.Entries[n-MaxEntries:]...)
	}
}

// Last returns the newest entry, or nil when empty.
func (l *Log) Last() *Entry {
	if len(l.Entries) == 0 {
		return nil
	}
	return &l.Entries[len(l.Entries)-1]
}

// Restore replaces the entries, re-applying the bound. Used when a
// saved session is loaded.
func (l *Log) Restore(entries []Entry) {
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}
	l.Entries = append([]Entry(nil), entries...)
}
