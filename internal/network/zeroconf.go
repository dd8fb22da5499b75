package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/justyntemme/duonav/internal/debug"
)

// ErrNotResolved is returned when a lookup ends without an answer.
var ErrNotResolved = errors.New("network: service not resolved")

// DefaultSweep is how long one browse round listens before services that did
// not answer are reported as removed.
const DefaultSweep = 15 * time.Second

// ZeroconfBrowser implements Browser with multicast DNS-SD.
//
// The resolver delivers each service once per query and swallows goodbye
// packets, so Browse queries in rounds of Sweep and reports services missing
// from a whole round as removed.
type ZeroconfBrowser struct {
	Sweep time.Duration
}

func (b ZeroconfBrowser) sweep() time.Duration {
	if b.Sweep <= 0 {
		return DefaultSweep
	}
	return b.Sweep
}

func (b ZeroconfBrowser) Browse(ctx context.Context, serviceType, domain string, events chan<- BrowseEvent) error {
	var p presence
	for round := 0; ; round++ {
		rctx, cancel := context.WithTimeout(ctx, b.sweep())
		err := browseRound(rctx, serviceType, domain, func(e *zeroconf.ServiceEntry) bool {
			ev, changed := p.seen(entryEvent(e, serviceType, domain))
			if !changed {
				return true
			}
			debug.Log(debug.NET_PACKET, "browse %s %s %q host=%s", serviceType, ev.Kind, ev.Service.Instance, ev.HostName)
			return send(ctx, events, ev)
		})
		if err != nil {
			cancel()
			if round == 0 {
				return err
			}
			debug.Log(debug.NET, "browse %s round %d: %v", serviceType, round, err)
			select {
			case <-ctx.Done():
			case <-time.After(b.sweep()):
			}
		}
		cancel()
		if ctx.Err() != nil {
			return nil
		}

		for _, ev := range p.endRound() {
			debug.Log(debug.NET_PACKET, "browse %s %s %q (silent for a round)", serviceType, ev.Kind, ev.Service.Instance)
			if !send(ctx, events, ev) {
				return nil
			}
		}
	}
}

// browseRound runs one resolver until ctx ends, calling found for every entry
// until it returns false.
func browseRound(ctx context.Context, serviceType, domain string, found func(*zeroconf.ServiceEntry) bool) error {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return fmt.Errorf("mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Browse(ctx, serviceType, domain, entries); err != nil {
		drain(entries)
		return fmt.Errorf("browse %s: %w", serviceType, err)
	}
	// The resolver closes entries once ctx ends. Its receive loop blocks on
	// sends, so keep reading until then or its sockets are never closed.
	defer drain(entries)

	for e := range entries {
		if !found(e) {
			return nil
		}
	}
	return nil
}

func drain(entries <-chan *zeroconf.ServiceEntry) {
	for range entries {
	}
}

func send(ctx context.Context, events chan<- BrowseEvent, ev BrowseEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// entryEvent maps a resolver entry to a found event.
func entryEvent(e *zeroconf.ServiceEntry, serviceType, domain string) BrowseEvent {
	return BrowseEvent{
		Kind: ServiceFound,
		Service: ServiceRef{
			Instance: e.Instance,
			Type:     serviceType,
			Domain:   domain,
		},
		HostName: e.HostName,
	}
}

// presence tracks which services answered in the current and earlier rounds.
type presence struct {
	known map[string]BrowseEvent // by instance
	round map[string]bool
}

// seen records ev for this round. It reports whether ev is news: a service
// not known before, or one that moved to another host.
func (p *presence) seen(ev BrowseEvent) (BrowseEvent, bool) {
	if p.known == nil {
		p.known = make(map[string]BrowseEvent)
	}
	if p.round == nil {
		p.round = make(map[string]bool)
	}
	inst := ev.Service.Instance
	p.round[inst] = true
	if old, ok := p.known[inst]; ok && old.HostName == ev.HostName {
		return ev, false
	}
	p.known[inst] = ev
	return ev, true
}

// endRound closes the current round and returns removal events for known
// services that did not answer in it, ordered by instance.
func (p *presence) endRound() []BrowseEvent {
	var gone []BrowseEvent
	for inst, ev := range p.known {
		if p.round[inst] {
			continue
		}
		ev.Kind = ServiceRemoved
		gone = append(gone, ev)
		delete(p.known, inst)
	}
	p.round = nil
	sort.Slice(gone, func(i, j int) bool { return gone[i].Service.Instance < gone[j].Service.Instance })
	return gone
}

func (ZeroconfBrowser) Resolve(ctx context.Context, ref ServiceRef) (Resolved, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return Resolved{}, fmt.Errorf("mdns resolver: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Lookup(ctx, ref.Instance, ref.Type, ref.Domain, entries); err != nil {
		cancel()
		drain(entries)
		return Resolved{}, fmt.Errorf("lookup %q: %w", ref.Instance, err)
	}
	defer func() {
		cancel()
		drain(entries)
	}()

	for {
		select {
		case <-ctx.Done():
			return Resolved{}, fmt.Errorf("%w: %q: %v", ErrNotResolved, ref.Instance, ctx.Err())
		case e, ok := <-entries:
			if !ok {
				return Resolved{}, fmt.Errorf("%w: %q", ErrNotResolved, ref.Instance)
			}
			if e.HostName == "" {
				continue
			}
			return resolvedFrom(ref, e), nil
		}
	}
}

// resolvedFrom maps a lookup answer to connection details.
func resolvedFrom(ref ServiceRef, e *zeroconf.ServiceEntry) Resolved {
	ips := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
	ips = append(ips, e.AddrIPv4...)
	ips = append(ips, e.AddrIPv6...)
	return Resolved{
		Service:  ref,
		HostName: e.HostName,
		Port:     e.Port,
		IPs:      ips,
	}
}
