package mount

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/fs"
)

// PollForNewMount waits up to timeout for a remote volume that is not in
// before, checking every VolumePoll and whenever the mount root changes.
// It is used after handing a share to the system's own connect dialog.
func (c *Coordinator) PollForNewMount(ctx context.Context, before fs.Snapshot, timeout time.Duration) (fs.Volume, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		events chan fsnotify.Event
		errs   chan error
	)
	if w, err := fsnotify.NewWatcher(); err != nil {
		debug.Log(debug.MOUNT, "watcher unavailable: %v", err)
	} else {
		defer w.Close()
		if err := w.Add(c.opts.Root); err != nil {
			debug.Log(debug.MOUNT, "cannot watch %s: %v", c.opts.Root, err)
		} else {
			events, errs = w.Events, w.Errors
		}
	}

	tick := time.NewTicker(c.opts.VolumePoll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			debug.Log(debug.MOUNT, "no new volume within %s", timeout)
			return fs.Volume{}, false
		case ev := <-events:
			debug.Log(debug.MOUNT_POLL, "mount root changed: %s", ev)
		case err := <-errs:
			debug.Log(debug.MOUNT, "watch error: %v", err)
			continue
		case <-tick.C:
		}
		if added := c.opts.Volumes().Added(before); len(added) > 0 {
			debug.Log(debug.MOUNT, "new volume %s", added[0].Path)
			return added[0], true
		}
	}
}
