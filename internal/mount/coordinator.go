// Package mount mounts SMB and AFP shares without prompting and reports where
// they ended up, falling back to watching for new volumes when the mount
// utility fails.
package mount

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skratchdot/open-golang/open"
	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/fs"
)

// Source says how Mount found the share's local path.
type Source int

const (
	// SourceExisting means the share was already mounted at a known location.
	SourceExisting Source = iota
	// SourceMounted means the mount utility succeeded.
	SourceMounted
	// SourceDetected means a new volume appeared after the utility failed.
	SourceDetected
)

func (s Source) String() string {
	switch s {
	case SourceMounted:
		return "mounted"
	case SourceDetected:
		return "detected"
	default:
		return "existing"
	}
}

// Result is a successfully mounted share.
type Result struct {
	Path   string
	Source Source
}

// Options configures a Coordinator. Zero values take the defaults below.
type Options struct {
	Root           string
	ProcessTimeout time.Duration
	PollInterval   time.Duration
	FallbackDelay  time.Duration
	VolumePoll     time.Duration

	// Launcher starts the mount utility. Defaults to ExecLauncher.
	Launcher Launcher
	// Volumes snapshots mounted remote volumes. Defaults to fs.RemoteSnapshot.
	Volumes func() fs.Snapshot
	// Open hands unsupported URLs to the system. Defaults to open.Start.
	Open func(string) error
}

const (
	DefaultProcessTimeout = 10 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultFallbackDelay  = 800 * time.Millisecond
	DefaultVolumePoll     = time.Second
)

// Coordinator mounts shares under a single mount root.
type Coordinator struct {
	opts  Options
	group singleflight.Group
}

// NewCoordinator creates a Coordinator. Root must be set.
func NewCoordinator(opts Options) *Coordinator {
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = DefaultProcessTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.FallbackDelay <= 0 {
		opts.FallbackDelay = DefaultFallbackDelay
	}
	if opts.VolumePoll <= 0 {
		opts.VolumePoll = DefaultVolumePoll
	}
	if opts.Launcher == nil {
		opts.Launcher = ExecLauncher{}
	}
	if opts.Volumes == nil {
		opts.Volumes = fs.RemoteSnapshot
	}
	if opts.Open == nil {
		opts.Open = open.Start
	}
	return &Coordinator{opts: opts}
}

// Root returns the directory shares are mounted under.
func (c *Coordinator) Root() string { return c.opts.Root }

// Snapshot returns the currently mounted remote volumes.
func (c *Coordinator) Snapshot() fs.Snapshot { return c.opts.Volumes() }

// OpenExternally hands url to the system, e.g. to show its own connect dialog
// when a share needs credentials.
func (c *Coordinator) OpenExternally(url string) error {
	debug.Log(debug.MOUNT, "opening %s externally", url)
	return c.opts.Open(url)
}

// Mount makes shareURL available locally and returns its path. URLs that are
// not smb:// or afp:// are opened with the system handler and ErrNotHandled
// is returned. Concurrent calls for the same share share one attempt.
func (c *Coordinator) Mount(ctx context.Context, shareURL string) (Result, error) {
	t, err := ParseTarget(shareURL)
	if errors.Is(err, ErrNotHandled) {
		if oerr := c.OpenExternally(shareURL); oerr != nil {
			log.Printf("Mount: open %s: %v", shareURL, oerr)
		}
		return Result{}, ErrNotHandled
	}
	if err != nil {
		return Result{}, err
	}

	key := filepath.Join(c.opts.Root, t.MountName())
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.mount(ctx, t)
	})
	if shared {
		debug.Log(debug.MOUNT, "joined in-flight mount of %s", key)
	}
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Coordinator) mount(ctx context.Context, t Target) (Result, error) {
	before := c.opts.Volumes()

	if p, ok := c.existing(t); ok {
		debug.Log(debug.MOUNT, "%s already mounted at %s", t.URL, p)
		return Result{Path: p, Source: SourceExisting}, nil
	}

	mountPoint := filepath.Join(c.opts.Root, t.MountName())
	cause := c.attempt(ctx, t, mountPoint)
	if cause == nil {
		debug.Log(debug.MOUNT, "mounted %s at %s", t.URL, mountPoint)
		return Result{Path: mountPoint, Source: SourceMounted}, nil
	}
	if ctx.Err() != nil {
		return Result{}, &Error{URL: t.URL, Reason: ReasonCanceled, Err: ctx.Err()}
	}
	debug.Log(debug.MOUNT, "mount of %s failed: %v", t.URL, cause)

	// The utility may have failed after the system mounted the share anyway.
	timer := time.NewTimer(c.opts.FallbackDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return Result{}, &Error{URL: t.URL, Reason: ReasonCanceled, Err: ctx.Err()}
	}

	if v, ok := pickVolume(c.opts.Volumes().Added(before), t); ok {
		debug.Log(debug.MOUNT, "detected %s at %s", t.URL, v.Path)
		return Result{Path: v.Path, Source: SourceDetected}, nil
	}
	if p, ok := c.existing(t); ok {
		debug.Log(debug.MOUNT, "detected %s at %s", t.URL, p)
		return Result{Path: p, Source: SourceDetected}, nil
	}
	return Result{}, &Error{URL: t.URL, Reason: ReasonAuthRequired, Err: cause}
}

// attempt creates mountPoint and runs the mount utility on it. The directory
// is removed again if the mount fails.
func (c *Coordinator) attempt(ctx context.Context, t Target, mountPoint string) error {
	if err := os.MkdirAll(mountPoint, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	name, args := mountCommand(t, mountPoint)
	err := c.run(ctx, name, args, t.Password)
	if err != nil {
		// Only succeeds while empty, so a mount that did land is left alone.
		if rerr := os.Remove(mountPoint); rerr != nil && !os.IsNotExist(rerr) {
			debug.Log(debug.MOUNT, "leaving %s: %v", mountPoint, rerr)
		}
	}
	return err
}

// run launches name and polls it until it exits, the timeout passes or ctx
// ends. secret is masked in the log line.
func (c *Coordinator) run(ctx context.Context, name string, args []string, secret string) error {
	debug.Log(debug.MOUNT, "exec %s %s", name, redact(strings.Join(args, " "), secret))
	proc, err := c.opts.Launcher.Launch(name, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLaunch, name, err)
	}

	deadline := time.NewTimer(c.opts.ProcessTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.opts.PollInterval)
	defer tick.Stop()

	for {
		if code, done := proc.Exited(); done {
			if code == 0 {
				return nil
			}
			return &exitError{code: code, stderr: proc.Stderr()}
		}
		select {
		case <-tick.C:
			debug.Log(debug.MOUNT_POLL, "%s still running", name)
		case <-deadline.C:
			if err := proc.Kill(); err != nil {
				log.Printf("Mount: kill %s: %v", name, err)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, c.opts.ProcessTimeout)
		case <-ctx.Done():
			proc.Kill()
			return ctx.Err()
		}
	}
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.UserPassword("", secret).String()[1:], "xxxxx")
	return strings.ReplaceAll(s, secret, "xxxxx")
}

// existing returns the first candidate path that is already present.
func (c *Coordinator) existing(t Target) (string, bool) {
	for _, p := range t.Candidates(c.opts.Root) {
		if fs.IsDir(p) {
			return p, true
		}
	}
	return "", false
}

// pickVolume prefers a new volume named after the share.
func pickVolume(added []fs.Volume, t Target) (fs.Volume, bool) {
	if len(added) == 0 {
		return fs.Volume{}, false
	}
	for _, v := range added {
		if strings.EqualFold(v.Name, t.Share) || strings.EqualFold(v.Name, t.MountName()) {
			return v, true
		}
	}
	return added[0], true
}
