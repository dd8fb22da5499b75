// Package history keeps per-panel back/forward navigation history and the
// smaller most-recently-used query lists shown in filter and search fields.
package history

// DefaultMaxEntries caps a panel's navigation history.
const DefaultMaxEntries = 100

// Store is an ordered list of visited locations with a cursor at the current
// one. Entries are oldest first. The zero value is not usable; use NewStore.
//
// Store does no path handling of its own; callers pass normalized paths.
type Store struct {
	entries []string
	cursor  int
	max     int
}

// NewStore returns an empty store holding at most max entries.
func NewStore(max int) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Store{cursor: -1, max: max}
}

// Push records a visit to path. Forward entries after the cursor are dropped
// first. A path equal to the tail is not appended again. The oldest entries are
// evicted when the store is over capacity.
//
// It reports whether the store changed, which includes a forward truncation
// followed by a suppressed duplicate.
func (s *Store) Push(path string) bool {
	if path == "" {
		return false
	}

	changed := false
	if s.cursor < len(s.entries)-1 {
		s.entries = s.entries[:s.cursor+1]
		changed = true
	}

	if n := len(s.entries); n > 0 && s.entries[n-1] == path {
		return changed
	}

	s.entries = append(s.entries, path)
	s.cursor = len(s.entries) - 1

	if excess := len(s.entries) - s.max; excess > 0 {
		s.entries = append([]string(nil), s.entries[excess:]...)
		s.cursor -= excess
		if s.cursor < 0 {
			s.cursor = 0
		}
	}
	return true
}

// Back moves the cursor one step toward older entries.
func (s *Store) Back() (string, bool) {
	if !s.CanGoBack() {
		return "", false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Forward moves the cursor one step toward newer entries.
func (s *Store) Forward() (string, bool) {
	if !s.CanGoForward() {
		return "", false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// Jump moves the cursor to the first entry equal to path. Entries are not
// reordered or truncated.
func (s *Store) Jump(path string) bool {
	for i, e := range s.entries {
		if e == path {
			s.cursor = i
			return true
		}
	}
	return false
}

func (s *Store) CanGoBack() bool    { return s.cursor > 0 }
func (s *Store) CanGoForward() bool { return s.cursor < len(s.entries)-1 }

// Current returns the entry at the cursor.
func (s *Store) Current() (string, bool) {
	if s.cursor < 0 || s.cursor >= len(s.entries) {
		return "", false
	}
	return s.entries[s.cursor], true
}

// BackList returns up to limit entries before the cursor, most recent first.
func (s *Store) BackList(limit int) []string {
	if s.cursor <= 0 || limit <= 0 {
		return nil
	}
	start := max(0, s.cursor-limit)
	out := make([]string, 0, s.cursor-start)
	for i := s.cursor - 1; i >= start; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// ForwardList returns up to limit entries after the cursor, oldest first.
func (s *Store) ForwardList(limit int) []string {
	if !s.CanGoForward() || limit <= 0 {
		return nil
	}
	end := min(len(s.entries), s.cursor+1+limit)
	return append([]string(nil), s.entries[s.cursor+1:end]...)
}

// Entries returns a copy of all entries, oldest first.
func (s *Store) Entries() []string {
	return append([]string(nil), s.entries...)
}

func (s *Store) Cursor() int { return s.cursor }
func (s *Store) Len() int    { return len(s.entries) }

// Reset empties the store.
func (s *Store) Reset() {
	s.entries = nil
	s.cursor = -1
}

// Restore replaces the contents with entries and a cursor, enforcing the
// store's invariants: adjacent duplicates collapse, capacity is applied from
// the oldest end, and the cursor is clamped into range. The cursor follows
// its entry through collapsing and eviction.
func (s *Store) Restore(entries []string, cursor int) {
	s.entries = nil
	s.cursor = -1

	target := -1
	for i, e := range entries {
		if e == "" {
			continue
		}
		if n := len(s.entries); n > 0 && s.entries[n-1] == e {
			if i == cursor {
				target = n - 1
			}
			continue
		}
		s.entries = append(s.entries, e)
		if i == cursor {
			target = len(s.entries) - 1
		}
	}

	if excess := len(s.entries) - s.max; excess > 0 {
		s.entries = s.entries[excess:]
		if target >= 0 {
			target = max(0, target-excess)
		}
	}

	switch {
	case len(s.entries) == 0:
		s.cursor = -1
	case target >= 0:
		s.cursor = target
	case cursor < 0:
		s.cursor = 0
	default:
		s.cursor = len(s.entries) - 1
	}
}

// Record is the persisted form of a Store.
type Record struct {
	History      []string `json:"history"`
	CurrentIndex int      `json:"currentIndex"`
}

// Record snapshots the store for persistence.
func (s *Store) Record() Record {
	h := s.Entries()
	if h == nil {
		h = []string{}
	}
	return Record{History: h, CurrentIndex: s.cursor}
}
