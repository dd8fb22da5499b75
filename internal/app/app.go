// Package app wires panel histories, network discovery and share mounting
// into the state behind duonav's two panels.
package app

import (
	"os"

	"github.com/justyntemme/duonav/internal/config"
	"github.com/justyntemme/duonav/internal/debug"
	"github.com/justyntemme/duonav/internal/fs"
	"github.com/justyntemme/duonav/internal/history"
	"github.com/justyntemme/duonav/internal/mount"
	"github.com/justyntemme/duonav/internal/network"
)

// Options supplies what App needs from outside. Nil fields use the real
// implementations.
type Options struct {
	Config  config.Config
	Prefs   history.Prefs
	Home    string
	Browser network.Browser
	Mount   mount.Options
	IsDir   func(string) bool
	// Credentials defaults to the system keyring.
	Credentials network.CredentialStore
}

// App owns both panels and the shared network services.
type App struct {
	deps *SharedDeps

	Left         *PanelController
	Right        *PanelController
	Neighborhood *NeighborhoodController
	Mounts       *MountController
}

// New builds an App and loads both panels' persisted histories.
func New(opts Options) *App {
	if opts.Home == "" {
		opts.Home, _ = os.UserHomeDir()
	}
	if opts.Browser == nil {
		opts.Browser = network.ZeroconfBrowser{}
	}
	if opts.IsDir == nil {
		opts.IsDir = fs.IsDir
	}
	if opts.Credentials == nil {
		opts.Credentials = network.Keyring{}
	}

	deps := &SharedDeps{
		Config:      opts.Config,
		Prefs:       opts.Prefs,
		Credentials: opts.Credentials,
		HomePath:    opts.Home,
	}
	a := &App{
		deps:         deps,
		Left:         NewPanelController(deps, history.Left, opts.IsDir),
		Right:        NewPanelController(deps, history.Right, opts.IsDir),
		Neighborhood: NewNeighborhoodController(deps, opts.Browser),
		Mounts:       NewMountController(deps, opts.Mount),
	}
	debug.Log(debug.APP, "started: left=%q right=%q", a.Left.CurrentPath(), a.Right.CurrentPath())
	return a
}

// Panel returns the controller for side.
func (a *App) Panel(side history.Side) *PanelController {
	if side == history.Right {
		return a.Right
	}
	return a.Left
}

// SearchHistory returns the find-files history for field, e.g. "name" or "content".
func (a *App) SearchHistory(field string) *history.MRU {
	return history.NewSearchHistory(field, a.deps.Prefs, a.deps.Config.History.SearchMaxEntries)
}

// Close stops background discovery.
func (a *App) Close() {
	a.Neighborhood.StopScan()
}
