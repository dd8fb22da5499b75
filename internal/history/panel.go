package history

import (
	"encoding/json"
	"log"
	"path/filepath"
	"strings"

	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/fs"
)

// Side identifies one of the two panels.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// DefaultMenuLimit is the number of entries offered in a back/forward dropdown.
const DefaultMenuLimit = 10

// Prefs is the key-value preference store history is persisted in.
type Prefs interface {
	Value(key string) (value string, ok bool, err error)
	SetValue(key, value string) error
}

// Options tune a Panel. Zero values select defaults.
type Options struct {
	MaxEntries int
	Home       string                 // for ~ expansion; os.UserHomeDir when empty
	IsDir      func(path string) bool // directory check used on load; fs.IsDir when nil
}

// Panel is the navigation history of one panel. Every mutation is persisted
// and announced on Changes. Persistence failures are logged and otherwise
// ignored; history is best-effort.
//
// A Panel belongs to the goroutine that drives the UI and is not safe for
// concurrent use.
type Panel struct {
	side    Side
	key     string
	prefs   Prefs
	store   *Store
	home    string
	isDir   func(string) bool
	changes chan struct{}

	canGoBack    bool
	canGoForward bool
}

// NewPanel creates the history for side and loads any persisted state.
func NewPanel(side Side, prefs Prefs, opts Options) *Panel {
	p := &Panel{
		side:    side,
		key:     "PanelNavigationHistory." + string(side),
		prefs:   prefs,
		store:   NewStore(opts.MaxEntries),
		home:    opts.Home,
		isDir:   opts.IsDir,
		changes: make(chan struct{}, 1),
	}
	if p.isDir == nil {
		p.isDir = fs.IsDir
	}
	p.load()
	debug.Log(debug.HISTORY, "panel=%s loaded %d entries, cursor=%d", side, p.store.Len(), p.store.Cursor())
	return p
}

// NavigateTo records a visit to path.
func (p *Panel) NavigateTo(path string) {
	normalized := Normalize(path, p.home)
	if normalized == "" {
		return
	}

	debug.Log(debug.HISTORY, "NavigateTo panel=%s path=%s cursor=%d len=%d",
		p.side, normalized, p.store.Cursor(), p.store.Len())

	if !p.store.Push(normalized) {
		debug.Log(debug.HISTORY, "panel=%s skip duplicate: %s", p.side, normalized)
		return
	}
	p.commit()
	debug.Log(debug.HISTORY, "panel=%s added %s index=%d/%d",
		p.side, tail(normalized), p.store.Cursor(), p.store.Len())
}

// GoBack steps back and returns the location to show.
func (p *Panel) GoBack() (string, bool) {
	path, ok := p.store.Back()
	if !ok {
		debug.Log(debug.HISTORY, "panel=%s cannot go back", p.side)
		return "", false
	}
	p.commit()
	debug.Log(debug.HISTORY, "GoBack panel=%s -> %s index=%d", p.side, path, p.store.Cursor())
	return path, true
}

// GoForward steps forward and returns the location to show.
func (p *Panel) GoForward() (string, bool) {
	path, ok := p.store.Forward()
	if !ok {
		debug.Log(debug.HISTORY, "panel=%s cannot go forward", p.side)
		return "", false
	}
	p.commit()
	debug.Log(debug.HISTORY, "GoForward panel=%s -> %s index=%d", p.side, path, p.store.Cursor())
	return path, true
}

// JumpTo moves to an entry picked from a dropdown.
func (p *Panel) JumpTo(path string) bool {
	normalized := Normalize(path, p.home)
	if normalized == "" || !p.store.Jump(normalized) {
		return false
	}
	p.commit()
	debug.Log(debug.HISTORY, "panel=%s jumped to index=%d", p.side, p.store.Cursor())
	return true
}

// Clear drops all history.
func (p *Panel) Clear() {
	p.store.Reset()
	p.commit()
}

// BackHistory lists up to limit entries behind the cursor, most recent first.
func (p *Panel) BackHistory(limit int) []string { return p.store.BackList(limit) }

// ForwardHistory lists up to limit entries ahead of the cursor, oldest first.
func (p *Panel) ForwardHistory(limit int) []string { return p.store.ForwardList(limit) }

func (p *Panel) CanGoBack() bool    { return p.canGoBack }
func (p *Panel) CanGoForward() bool { return p.canGoForward }

// Current returns the location at the cursor.
func (p *Panel) Current() (string, bool) { return p.store.Current() }

func (p *Panel) Entries() []string { return p.store.Entries() }
func (p *Panel) Cursor() int       { return p.store.Cursor() }
func (p *Panel) Side() Side        { return p.side }

// Changes delivers a signal after each mutation. Signals coalesce; read the
// panel's state after receiving one.
func (p *Panel) Changes() <-chan struct{} { return p.changes }

// commit recomputes derived state, persists and notifies.
func (p *Panel) commit() {
	p.canGoBack = p.store.CanGoBack()
	p.canGoForward = p.store.CanGoForward()
	p.save()
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

func (p *Panel) save() {
	if p.prefs == nil {
		return
	}
	data, err := json.Marshal(p.store.Record())
	if err != nil {
		log.Printf("History: encode %s: %v", p.key, err)
		return
	}
	if err := p.prefs.SetValue(p.key, string(data)); err != nil {
		log.Printf("History: save %s: %v", p.key, err)
	}
}

func (p *Panel) load() {
	defer func() {
		p.canGoBack = p.store.CanGoBack()
		p.canGoForward = p.store.CanGoForward()
	}()
	if p.prefs == nil {
		return
	}

	raw, ok, err := p.prefs.Value(p.key)
	if err != nil {
		log.Printf("History: load %s: %v", p.key, err)
		return
	}
	if !ok {
		return
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Printf("History: discarding unreadable %s: %v", p.key, err)
		return
	}

	// Drop local entries that no longer exist; remote ones can't be checked
	kept := make([]string, 0, len(rec.History))
	cursor := -1
	for i, path := range rec.History {
		if path == "" {
			continue
		}
		if !IsRemotePath(path) && !p.isDir(path) {
			debug.Log(debug.HISTORY, "panel=%s dropping stale entry %s", p.side, path)
			continue
		}
		if i == rec.CurrentIndex {
			cursor = len(kept)
		}
		kept = append(kept, path)
	}

	// Current entry dropped: fall back to the newest survivor.
	// A negative stored index is left for Restore, which maps it to 0.
	if rec.CurrentIndex >= 0 && cursor < 0 {
		cursor = len(kept) - 1
	}
	p.store.Restore(kept, cursor)
}

// tail shortens a path to its last three elements for log lines.
func tail(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	return strings.Join(parts, "/")
}
