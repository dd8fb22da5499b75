package app

import (
	"context"
	"errors"
	"log"

	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/fs"
	"github.com/justyntemme/duonav/internal/mount"
	"github.com/justyntemme/duonav/internal/network"
)

// OpenShare mounts shareURL and moves panel onto the mounted path. When the
// share needs credentials, saved credentials for its host are tried first.
// Failing that the system connect dialog is shown and the panel follows
// whichever volume appears within the configured wait.
func (c *MountController) OpenShare(ctx context.Context, panel *PanelController, shareURL string) (mount.Result, error) {
	before := c.coord.Snapshot()

	res, err := c.coord.Mount(ctx, shareURL)
	if errors.Is(err, mount.ErrAuthRequired) {
		res, err = c.retryWithSaved(ctx, shareURL, err)
	}
	if errors.Is(err, mount.ErrAuthRequired) {
		log.Printf("Mount: %v", err)
		if oerr := c.coord.OpenExternally(shareURL); oerr != nil {
			log.Printf("Mount: open %s: %v", shareURL, oerr)
			return mount.Result{}, err
		}
		vol, ok := c.WaitForMount(ctx, before)
		if !ok {
			return mount.Result{}, err
		}
		res, err = mount.Result{Path: vol.Path, Source: mount.SourceDetected}, nil
	}
	if err != nil {
		return mount.Result{}, err
	}

	debug.Log(debug.APP, "panel=%s -> %s (%s)", panel.History.Side(), res.Path, res.Source)
	panel.Navigate(res.Path)
	return res, nil
}

// OpenHost mounts the share root of a discovered host, with its saved
// credentials when there are any.
func (c *MountController) OpenHost(ctx context.Context, panel *PanelController, host network.Host) (mount.Result, error) {
	creds, _ := savedCredentials(c.deps.Credentials, host.HostName)
	return c.OpenShare(ctx, panel, host.AuthenticatedURL(creds))
}

// retryWithSaved mounts shareURL again with the saved credentials of its
// host. authErr is returned when there are none to try.
func (c *MountController) retryWithSaved(ctx context.Context, shareURL string, authErr error) (mount.Result, error) {
	creds, ok := savedCredentials(c.deps.Credentials, network.URLHost(shareURL))
	if !ok {
		return mount.Result{}, authErr
	}
	authURL, err := network.WithCredentials(shareURL, creds)
	if err != nil || authURL == shareURL {
		return mount.Result{}, authErr
	}
	debug.Log(debug.APP, "retrying %s as %s", shareURL, creds.User)
	return c.coord.Mount(ctx, authURL)
}

// savedCredentials loads host's credentials. Keyring failures are logged and
// treated as nothing saved.
func savedCredentials(store network.CredentialStore, host string) (network.Credentials, bool) {
	if store == nil || host == "" {
		return network.Credentials{}, false
	}
	creds, ok, err := store.Load(host)
	if err != nil {
		log.Printf("Auth: %v", err)
		return network.Credentials{}, false
	}
	return creds, ok
}

// Root returns the mount root.
func (c *MountController) Root() string { return c.coord.Root() }

// Volumes returns the currently mounted remote volumes.
func (c *MountController) Volumes() fs.Snapshot { return c.coord.Snapshot() }

// WaitForMount waits up to the configured wait for a remote volume not in before.
func (c *MountController) WaitForMount(ctx context.Context, before fs.Snapshot) (fs.Volume, bool) {
	return c.coord.PollForNewMount(ctx, before, c.deps.Config.Mount.AuthWait.D())
}

// WatchVolumes starts a watcher that reports remote volumes coming and going
// under the mount root.
func (c *MountController) WatchVolumes(debounceMs int) (*VolumeWatcher, error) {
	w, err := NewVolumeWatcher(c.coord.Snapshot, debounceMs)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(c.coord.Root()); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
