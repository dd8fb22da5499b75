package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/fs"
)

// VolumeChange lists remote volumes that appeared or went away.
type VolumeChange struct {
	Added   []fs.Volume
	Removed []fs.Volume
}

// VolumeWatcher watches mount roots and reports volume changes once the
// directory has been quiet for the debounce interval
type VolumeWatcher struct {
	watcher    *fsnotify.Watcher
	snapshot   func() fs.Snapshot
	mu         sync.Mutex
	watching   map[string]bool   // Currently watched roots
	notify     chan VolumeChange // Channel to send volume changes
	done       chan struct{}     // Shutdown signal
	debounceMs int               // Debounce interval in milliseconds
}

// NewVolumeWatcher creates a new volume watcher. snapshot lists the volumes
// to compare between changes.
func NewVolumeWatcher(snapshot func() fs.Snapshot, debounceMs int) (*VolumeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 200 // Default 200ms debounce
	}

	vw := &VolumeWatcher{
		watcher:    w,
		snapshot:   snapshot,
		watching:   make(map[string]bool),
		notify:     make(chan VolumeChange, 10),
		done:       make(chan struct{}),
		debounceMs: debounceMs,
	}

	go vw.run(snapshot())
	return vw, nil
}

// run processes filesystem events with debouncing
func (vw *VolumeWatcher) run(last fs.Snapshot) {
	var lastEvent time.Time
	pending := false
	debounce := time.Duration(vw.debounceMs) * time.Millisecond
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-vw.done:
			return

		case event, ok := <-vw.watcher.Events:
			if !ok {
				return
			}

			// Mounts and unmounts show up as creates, removes and renames in the root
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				vw.mu.Lock()
				if vw.watching[filepath.Dir(event.Name)] || vw.watching[event.Name] {
					lastEvent = time.Now()
					pending = true
					debug.Log(debug.FS, "FSNotify event: %s on %s", event.Op, event.Name)
				}
				vw.mu.Unlock()
			}

		case err, ok := <-vw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.FS, "FSNotify error: %v", err)

		case <-ticker.C:
			if !pending || time.Since(lastEvent) < debounce {
				continue
			}
			pending = false

			current := vw.snapshot()
			change := VolumeChange{Added: current.Added(last), Removed: last.Added(current)}
			last = current
			if len(change.Added) == 0 && len(change.Removed) == 0 {
				continue
			}
			select {
			case vw.notify <- change:
				debug.Log(debug.FS, "volume change: +%d -%d", len(change.Added), len(change.Removed))
			default:
				// Channel full, skip
			}
		}
	}
}

// Watch adds a mount root to the watch list
func (vw *VolumeWatcher) Watch(path string) error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.watching[path] {
		return nil // Already watching
	}

	if err := vw.watcher.Add(path); err != nil {
		return err
	}

	vw.watching[path] = true
	debug.Log(debug.FS, "Now watching mount root: %s", path)
	return nil
}

// Notify returns the channel that receives volume changes
func (vw *VolumeWatcher) Notify() <-chan VolumeChange {
	return vw.notify
}

// Close shuts down the watcher
func (vw *VolumeWatcher) Close() error {
	close(vw.done)
	return vw.watcher.Close()
}
