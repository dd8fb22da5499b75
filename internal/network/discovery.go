package network

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/duonav/internal/debug"
)

// DefaultServiceTypes are browsed when Options.ServiceTypes is empty.
var DefaultServiceTypes = []string{
	"_smb._tcp",
	"_afpovertcp._tcp",
	"_device-info._tcp",
}

// Options tune an Engine. Zero values select defaults.
type Options struct {
	ServiceTypes   []string
	Domain         string
	ResolveTimeout time.Duration
	CacheSize      int
	CacheTTL       time.Duration
}

func (o *Options) setDefaults() {
	if len(o.ServiceTypes) == 0 {
		o.ServiceTypes = DefaultServiceTypes
	}
	if o.Domain == "" {
		o.Domain = "local."
	}
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = 5 * time.Second
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 256
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 2 * time.Minute
	}
}

// engineEvent is anything the scan loop applies to the registry.
type engineEvent struct {
	browse   *BrowseEvent
	resolved *Resolved
	key      string
	err      error
}

// Engine drives service discovery and owns the host registry. A scan moves
// idle -> scanning -> idle. All registry changes happen on one loop goroutine
// per scan; readers take a snapshot under the lock.
type Engine struct {
	browser Browser
	opts    Options
	cache   *expirable.LRU[string, Resolved]
	changes chan struct{}

	mu       sync.Mutex
	registry Registry
	current  *scan
	pending  map[string]context.CancelFunc
}

// scan is one Start..Stop cycle. done closes once all of its goroutines exit.
type scan struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates an idle engine. A nil browser selects ZeroconfBrowser.
func NewEngine(browser Browser, opts Options) *Engine {
	opts.setDefaults()
	if browser == nil {
		browser = ZeroconfBrowser{}
	}
	return &Engine{
		browser: browser,
		opts:    opts,
		cache:   expirable.NewLRU[string, Resolved](opts.CacheSize, nil, opts.CacheTTL),
		changes: make(chan struct{}, 1),
	}
}

// Start begins a scan. It is a no-op while a scan is running. The registry is
// cleared and one browse per service type runs until Stop.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &scan{cancel: cancel, done: make(chan struct{})}
	e.current = s
	e.pending = make(map[string]context.CancelFunc)
	e.registry.Clear()
	e.notify()

	debug.Log(debug.NET, "Start: browsing %s in %s", strings.Join(e.opts.ServiceTypes, ", "), e.opts.Domain)

	events := make(chan engineEvent, 16)
	browseEvents := make(chan BrowseEvent, 16)

	var g errgroup.Group
	for _, st := range e.opts.ServiceTypes {
		g.Go(func() error {
			if err := e.browser.Browse(ctx, st, e.opts.Domain, browseEvents); err != nil {
				// No network access is an expected environment, not a failure
				debug.Log(debug.NET, "browse %s failed: %v", st, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		e.loop(ctx, browseEvents, events)
		return nil
	})
	go func() {
		g.Wait()
		close(s.done)
	}()
}

// Stop cancels all browse and resolve operations and returns to idle. It is
// safe to call in any state and waits for the stopped scan's work to unwind.
func (e *Engine) Stop() {
	e.mu.Lock()
	s := e.current
	if s == nil {
		e.mu.Unlock()
		return
	}
	s.cancel()
	for _, c := range e.pending {
		c()
	}
	e.pending = nil
	e.current = nil
	e.mu.Unlock()

	<-s.done
	e.notify()
	debug.Log(debug.NET, "Stop: %d hosts", e.Len())
}

func (e *Engine) loop(ctx context.Context, browseEvents <-chan BrowseEvent, events chan engineEvent) {
	var resolvers sync.WaitGroup
	defer resolvers.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-browseEvents:
			e.apply(ctx, engineEvent{browse: &ev}, events, &resolvers)
		case ev := <-events:
			e.apply(ctx, ev, events, &resolvers)
		}
	}
}

func (e *Engine) apply(ctx context.Context, ev engineEvent, events chan engineEvent, resolvers *sync.WaitGroup) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	switch {
	case ev.browse != nil && ev.browse.Kind == ServiceFound:
		e.found(ctx, ev.browse.Service, events, resolvers)
	case ev.browse != nil:
		e.removed(*ev.browse)
	default:
		e.resolveDone(ev)
	}
}

// found starts a resolve unless one is pending or a cached answer exists.
// Caller holds e.mu.
func (e *Engine) found(ctx context.Context, ref ServiceRef, events chan engineEvent, resolvers *sync.WaitGroup) {
	key := ref.key()
	if _, busy := e.pending[key]; busy {
		return
	}
	if res, ok := e.cache.Get(key); ok {
		debug.Log(debug.NET, "cached resolve for %q", ref.Instance)
		e.addResolved(res)
		return
	}

	rctx, cancel := context.WithTimeout(ctx, e.opts.ResolveTimeout)
	e.pending[key] = cancel
	resolvers.Add(1)
	go func() {
		defer resolvers.Done()
		defer cancel()
		res, err := e.browser.Resolve(rctx, ref)
		ev := engineEvent{key: key, err: err}
		if err == nil {
			ev.resolved = &res
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}()
}

// Caller holds e.mu.
func (e *Engine) resolveDone(ev engineEvent) {
	delete(e.pending, ev.key)
	if ev.err != nil {
		debug.Log(debug.NET, "failed to resolve %s: %v", ev.key, ev.err)
		return
	}
	e.cache.Add(ev.key, *ev.resolved)
	e.addResolved(*ev.resolved)
}

// Caller holds e.mu.
func (e *Engine) addResolved(res Resolved) {
	if res.HostName == "" {
		return
	}
	host := NewHost(res.Service.Instance, res.HostName, FilterAddresses(res.IPs), res.Service.Type, res.Port)
	if e.registry.Add(host) {
		debug.Log(debug.NET, "resolved: %s -> %s:%d (%s) %v",
			host.Name, host.HostName, host.Port, host.ServiceType, host.Addresses)
		e.notify()
	}
}

// Caller holds e.mu.
func (e *Engine) removed(ev BrowseEvent) {
	key := ev.Service.key()
	hostName := ev.HostName
	if hostName == "" {
		if res, ok := e.cache.Peek(key); ok {
			hostName = res.HostName
		}
	}
	e.cache.Remove(key)
	if c, ok := e.pending[key]; ok {
		c()
		delete(e.pending, key)
	}
	if hostName == "" {
		return
	}
	if n := e.registry.RemoveHostName(hostName); n > 0 {
		debug.Log(debug.NET, "removed %s (%d)", hostName, n)
		e.notify()
	}
}

func (e *Engine) notify() {
	select {
	case e.changes <- struct{}{}:
	default:
	}
}

// Hosts returns the discovered hosts in display order.
func (e *Engine) Hosts() []Host {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Hosts()
}

// Lookup finds a discovered host by HostName.
func (e *Engine) Lookup(hostName string) (Host, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Lookup(hostName)
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Len()
}

func (e *Engine) IsScanning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// PendingResolves reports how many resolutions are in flight.
func (e *Engine) PendingResolves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Changes delivers a coalesced signal whenever hosts or scan state change.
func (e *Engine) Changes() <-chan struct{} { return e.changes }
