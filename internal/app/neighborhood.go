package app

import (
	"context"
	"time"

	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/network"
)

// Scan starts discovery and stops it automatically after window. A zero
// window uses the configured scan window. Calling Scan while a scan runs
// extends it.
func (c *NeighborhoodController) Scan(window time.Duration) {
	if window <= 0 {
		window = c.deps.Config.Network.ScanWindow.D()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopTime != nil {
		c.stopTime.Stop()
	}
	c.gen++
	gen := c.gen
	c.engine.Start()
	c.stopTime = time.AfterFunc(window, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A later Scan or StopScan owns the engine now
		if c.gen != gen {
			return
		}
		debug.Log(debug.NET, "scan window of %s elapsed", window)
		c.stopTime = nil
		c.engine.Stop()
	})
	debug.Log(debug.NET, "scanning for %s", window)
}

// StopScan ends the current scan early.
func (c *NeighborhoodController) StopScan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.stopTime != nil {
		c.stopTime.Stop()
		c.stopTime = nil
	}
	c.engine.Stop()
}

// Hosts returns the discovered hosts, sorted by name.
func (c *NeighborhoodController) Hosts() []network.Host { return c.engine.Hosts() }

// IsScanning reports whether discovery is running.
func (c *NeighborhoodController) IsScanning() bool { return c.engine.IsScanning() }

// Changes signals whenever the host list changes.
func (c *NeighborhoodController) Changes() <-chan struct{} { return c.engine.Changes() }

// Shares lists the shares of host, using its saved credentials when there
// are any and browsing as a guest otherwise.
func (c *NeighborhoodController) Shares(ctx context.Context, host network.Host) []network.Share {
	creds, _ := savedCredentials(c.deps.Credentials, host.HostName)
	return network.ListShares(ctx, host, creds, c.deps.Config.Network.ShareTimeout.D())
}
