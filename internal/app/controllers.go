package app

import (
	"sync"
	"time"

	"github.com/justyntemme/duonav/internal/config"
	"github.com/justyntemme/duonav/internal/history"
	"github.com/justyntemme/duonav/internal/mount"
	"github.com/justyntemme/duonav/internal/network"
)

// SharedDeps holds references to shared dependencies that multiple controllers need.
// All controllers receive a pointer to this struct rather than copying fields.
type SharedDeps struct {
	Config      config.Config
	Prefs       history.Prefs
	Credentials network.CredentialStore
	HomePath    string
}

// PanelController handles path navigation and the histories of one panel.
type PanelController struct {
	deps *SharedDeps

	History *history.Panel
	Filters *history.MRU
}

// NewPanelController creates the controller for side and loads its persisted history.
func NewPanelController(deps *SharedDeps, side history.Side, isDir func(string) bool) *PanelController {
	hc := deps.Config.History
	return &PanelController{
		deps: deps,
		History: history.NewPanel(side, deps.Prefs, history.Options{
			MaxEntries: hc.MaxEntries,
			Home:       deps.HomePath,
			IsDir:      isDir,
		}),
		Filters: history.NewFilterHistory(side, deps.Prefs, hc.FilterMaxEntries),
	}
}

// NeighborhoodController runs network discovery in bounded scan windows.
type NeighborhoodController struct {
	deps   *SharedDeps
	engine *network.Engine

	mu       sync.Mutex
	gen      uint64 // bumped by every Scan and StopScan
	stopTime *time.Timer
}

// NewNeighborhoodController creates a discovery controller over browser.
func NewNeighborhoodController(deps *SharedDeps, browser network.Browser) *NeighborhoodController {
	nc := deps.Config.Network
	return &NeighborhoodController{
		deps: deps,
		engine: network.NewEngine(browser, network.Options{
			ServiceTypes:   nc.ServiceTypes,
			Domain:         nc.Domain,
			ResolveTimeout: nc.ResolveTimeout.D(),
		}),
	}
}

// MountController mounts shares and moves panels onto them.
type MountController struct {
	deps  *SharedDeps
	coord *mount.Coordinator
}

// NewMountController creates a mount controller. Fields of opts that are
// unset are taken from the mount configuration.
func NewMountController(deps *SharedDeps, opts mount.Options) *MountController {
	mc := deps.Config.Mount
	if opts.Root == "" {
		opts.Root = mc.Root
	}
	if opts.ProcessTimeout == 0 {
		opts.ProcessTimeout = mc.ProcessTimeout.D()
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = mc.PollInterval.D()
	}
	if opts.FallbackDelay == 0 {
		opts.FallbackDelay = mc.FallbackDelay.D()
	}
	if opts.VolumePoll == 0 {
		opts.VolumePoll = mc.VolumePoll.D()
	}
	return &MountController{deps: deps, coord: mount.NewCoordinator(opts)}
}
