package network

import (
	"context"
	"net"
)

// ServiceRef names one advertised service instance.
type ServiceRef struct {
	Instance string
	Type     string
	Domain   string
}

func (s ServiceRef) key() string {
	return s.Instance + "|" + s.Type + "|" + s.Domain
}

// EventKind distinguishes browse events.
type EventKind int

const (
	ServiceFound EventKind = iota
	ServiceRemoved
)

func (k EventKind) String() string {
	if k == ServiceRemoved {
		return "removed"
	}
	return "found"
}

// BrowseEvent reports a service appearing or going away. HostName is set
// when the browse layer already knows it.
type BrowseEvent struct {
	Kind     EventKind
	Service  ServiceRef
	HostName string
}

// Resolved is the connectable detail of one service.
type Resolved struct {
	Service  ServiceRef
	HostName string
	Port     int
	IPs      []net.IP
}

// Browser is the local-network service browse/resolve layer.
type Browser interface {
	// Browse reports services of serviceType in domain until ctx is done. It
	// returns nil when ctx ends and an error when browsing cannot run. Sends
	// on events must give up once ctx is done.
	Browse(ctx context.Context, serviceType, domain string, events chan<- BrowseEvent) error

	// Resolve looks up connection details for ref. Callers bound it with a
	// context deadline.
	Resolve(ctx context.Context, ref ServiceRef) (Resolved, error)
}
