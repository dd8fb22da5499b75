package network

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync"
	"testing"
	"time"
)

// fakeBrowser replays scripted browse events and answers resolves from a table.
type fakeBrowser struct {
	mu       sync.Mutex
	scripts  map[string][]BrowseEvent
	failing  map[string]bool
	answers  map[string]Resolved // by instance
	slow     map[string]bool     // resolves that never answer
	live     chan BrowseEvent
	browses  int
	resolves int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		scripts: make(map[string][]BrowseEvent),
		failing: make(map[string]bool),
		answers: make(map[string]Resolved),
		slow:    make(map[string]bool),
		live:    make(chan BrowseEvent),
	}
}

func (f *fakeBrowser) offer(instance, serviceType, hostName string, ips ...string) {
	ref := ServiceRef{Instance: instance, Type: serviceType, Domain: "local."}
	f.scripts[serviceType] = append(f.scripts[serviceType], BrowseEvent{Kind: ServiceFound, Service: ref})
	res := Resolved{Service: ref, HostName: hostName, Port: 445}
	for _, ip := range ips {
		res.IPs = append(res.IPs, net.ParseIP(ip))
	}
	f.answers[instance] = res
}

func (f *fakeBrowser) Browse(ctx context.Context, serviceType, domain string, events chan<- BrowseEvent) error {
	f.mu.Lock()
	f.browses++
	fail := f.failing[serviceType]
	script := f.scripts[serviceType]
	f.mu.Unlock()

	if fail {
		return errors.New("no route to host")
	}
	for _, ev := range script {
		select {
		case events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
	for {
		select {
		case ev := <-f.live:
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (f *fakeBrowser) Resolve(ctx context.Context, ref ServiceRef) (Resolved, error) {
	f.mu.Lock()
	f.resolves++
	slow := f.slow[ref.Instance]
	res, ok := f.answers[ref.Instance]
	f.mu.Unlock()

	if slow {
		<-ctx.Done()
		return Resolved{}, ctx.Err()
	}
	if !ok {
		return Resolved{}, ErrNotResolved
	}
	return res, nil
}

func (f *fakeBrowser) counts() (browses, resolves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.browses, f.resolves
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func hostNames(hosts []Host) []string {
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Name
	}
	return names
}

func TestEngineDiscoversAndSorts(t *testing.T) {
	f := newFakeBrowser()
	f.offer("zeta", "_smb._tcp", "zeta.local.", "192.168.1.20")
	f.offer("Alpha", "_smb._tcp", "alpha.local.", "192.168.1.10", "fe80::1", "2001:db8::5")
	f.offer("beta", "_afpovertcp._tcp", "beta.local.", "192.168.1.11")
	f.offer("Alpha-info", "_device-info._tcp", "alpha.local.")

	e := NewEngine(f, Options{})
	e.Start()
	defer e.Stop()

	waitFor(t, "three hosts", func() bool { return e.Len() == 3 })
	waitFor(t, "resolves to settle", func() bool { return e.PendingResolves() == 0 })

	hosts := e.Hosts()
	if got := hostNames(hosts); !slices.Equal(got[1:], []string{"beta", "zeta"}) {
		t.Errorf("order = %v, want Alpha*, beta, zeta", got)
	}

	alpha, ok := e.Lookup("alpha.local.")
	if !ok {
		t.Fatal("alpha.local. not registered")
	}
	if alpha.Name == "Alpha" && !slices.Equal(alpha.Addresses, []string{"192.168.1.10", "2001:db8::5"}) {
		t.Errorf("Addresses = %v, link-local should be filtered", alpha.Addresses)
	}
	if !e.IsScanning() {
		t.Error("engine should still be scanning")
	}
}

func TestEngineBrowseFailureSwallowed(t *testing.T) {
	f := newFakeBrowser()
	f.failing["_smb._tcp"] = true
	f.offer("mac", "_afpovertcp._tcp", "mac.local.", "10.0.0.2")

	e := NewEngine(f, Options{})
	e.Start()
	defer e.Stop()

	waitFor(t, "afp host", func() bool { return e.Len() == 1 })
	if !e.IsScanning() {
		t.Error("a failing browse should not end the scan")
	}
}

func TestEngineStartStopIdempotent(t *testing.T) {
	f := newFakeBrowser()
	e := NewEngine(f, Options{ServiceTypes: []string{"_smb._tcp", "_afpovertcp._tcp"}})

	e.Stop() // idle Stop is a no-op
	e.Start()
	e.Start()
	waitFor(t, "browses to start", func() bool { b, _ := f.counts(); return b >= 2 })

	e.Stop()
	e.Stop()
	if e.IsScanning() {
		t.Error("still scanning after Stop")
	}
	if b, _ := f.counts(); b != 2 {
		t.Errorf("browses = %d, want 2 (second Start is a no-op)", b)
	}

	// A new scan starts cleanly after Stop
	e.Start()
	defer e.Stop()
	waitFor(t, "second scan", func() bool { b, _ := f.counts(); return b == 4 })
}

func TestEngineRemoval(t *testing.T) {
	f := newFakeBrowser()
	f.offer("nas", "_smb._tcp", "nas.local.", "192.168.1.5")
	f.offer("printer", "_smb._tcp", "printer.local.", "192.168.1.6")

	e := NewEngine(f, Options{ServiceTypes: []string{"_smb._tcp"}})
	e.Start()
	defer e.Stop()
	waitFor(t, "two hosts", func() bool { return e.Len() == 2 })

	// Removal without a host name falls back to the cached resolve
	f.live <- BrowseEvent{
		Kind:    ServiceRemoved,
		Service: ServiceRef{Instance: "nas", Type: "_smb._tcp", Domain: "local."},
	}
	waitFor(t, "nas removal", func() bool { return e.Len() == 1 })

	if _, ok := e.Lookup("nas.local."); ok {
		t.Error("nas.local. still registered")
	}
}

func TestEngineResolveTimeout(t *testing.T) {
	f := newFakeBrowser()
	f.offer("sleepy", "_smb._tcp", "sleepy.local.")
	f.slow["sleepy"] = true

	e := NewEngine(f, Options{ServiceTypes: []string{"_smb._tcp"}, ResolveTimeout: 30 * time.Millisecond})
	e.Start()
	defer e.Stop()

	waitFor(t, "resolve to start", func() bool { _, r := f.counts(); return r == 1 })
	waitFor(t, "resolve to time out", func() bool { return e.PendingResolves() == 0 })
	if e.Len() != 0 {
		t.Errorf("timed-out resolve registered %d hosts", e.Len())
	}
}

func TestEngineStopCancelsPendingResolves(t *testing.T) {
	f := newFakeBrowser()
	f.offer("sleepy", "_smb._tcp", "sleepy.local.")
	f.slow["sleepy"] = true

	e := NewEngine(f, Options{ServiceTypes: []string{"_smb._tcp"}, ResolveTimeout: time.Hour})
	e.Start()
	waitFor(t, "resolve to start", func() bool { return e.PendingResolves() == 1 })

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop hung on an in-flight resolve")
	}
	if e.PendingResolves() != 0 {
		t.Errorf("pending = %d after Stop", e.PendingResolves())
	}
}

func TestEngineRescanUsesCache(t *testing.T) {
	f := newFakeBrowser()
	f.offer("nas", "_smb._tcp", "nas.local.", "192.168.1.5")

	e := NewEngine(f, Options{ServiceTypes: []string{"_smb._tcp"}})
	e.Start()
	waitFor(t, "first scan", func() bool { return e.Len() == 1 })
	e.Stop()

	e.Start()
	defer e.Stop()
	waitFor(t, "second scan", func() bool { return e.Len() == 1 })
	if _, r := f.counts(); r != 1 {
		t.Errorf("resolves = %d, want 1 (second scan served from cache)", r)
	}
}

func TestEngineStopWaitsOnlyForItsScan(t *testing.T) {
	f := newFakeBrowser()
	e := NewEngine(f, Options{ServiceTypes: []string{"_smb._tcp"}})

	for i := 0; i < 50; i++ {
		e.Start()
		stopped := make(chan struct{})
		go func() {
			e.Stop()
			close(stopped)
		}()
		e.Start() // may land before or after the Stop above
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Fatalf("iteration %d: Stop blocked on a later scan", i)
		}
		e.Stop()
	}
	if e.IsScanning() {
		t.Error("still scanning")
	}
}
