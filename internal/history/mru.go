package history

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/justyntemme/duonav/internal/debug"
)

const (
	// FilterMaxEntries caps a panel's filter query history.
	FilterMaxEntries = 16
	// SearchMaxEntries caps each find-files field history.
	SearchMaxEntries = 32
)

// MRU is a persisted most-recently-used list of query strings, newest first,
// without duplicates.
type MRU struct {
	key     string
	max     int
	prefs   Prefs
	entries []string
}

// NewFilterHistory returns the filter query history for a panel.
func NewFilterHistory(side Side, prefs Prefs, max int) *MRU {
	if max <= 0 {
		max = FilterMaxEntries
	}
	return NewMRU("panelFilterHistory."+string(side), prefs, max)
}

// NewSearchHistory returns the history of one find-files field, e.g.
// "fileNamePattern" or "searchText".
func NewSearchHistory(field string, prefs Prefs, max int) *MRU {
	if max <= 0 {
		max = SearchMaxEntries
	}
	return NewMRU("findFiles.history."+field, prefs, max)
}

// NewMRU loads the list stored under key.
func NewMRU(key string, prefs Prefs, max int) *MRU {
	m := &MRU{key: key, max: max, prefs: prefs}
	m.load()
	return m
}

// Add moves q to the front, trimming surrounding whitespace. Empty queries
// are ignored.
func (m *MRU) Add(q string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return
	}

	updated := make([]string, 0, len(m.entries)+1)
	updated = append(updated, q)
	for _, e := range m.entries {
		if e != q {
			updated = append(updated, e)
		}
	}
	if len(updated) > m.max {
		updated = updated[:m.max]
	}
	m.entries = updated
	m.save()
	debug.Log(debug.HISTORY, "MRU %s added %q, total %d", m.key, q, len(m.entries))
}

// Remove drops q if present.
func (m *MRU) Remove(q string) {
	kept := m.entries[:0]
	removed := false
	for _, e := range m.entries {
		if e == q {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return
	}
	m.entries = kept
	m.save()
}

// Entries returns the list, newest first.
func (m *MRU) Entries() []string {
	return append([]string(nil), m.entries...)
}

func (m *MRU) save() {
	if m.prefs == nil {
		return
	}
	data, err := json.Marshal(m.entries)
	if err != nil {
		log.Printf("History: encode %s: %v", m.key, err)
		return
	}
	if err := m.prefs.SetValue(m.key, string(data)); err != nil {
		log.Printf("History: save %s: %v", m.key, err)
	}
}

func (m *MRU) load() {
	if m.prefs == nil {
		return
	}
	raw, ok, err := m.prefs.Value(m.key)
	if err != nil {
		log.Printf("History: load %s: %v", m.key, err)
		return
	}
	if !ok {
		return
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("History: discarding unreadable %s: %v", m.key, err)
		return
	}
	if len(entries) > m.max {
		entries = entries[:m.max]
	}
	m.entries = entries
}
