package network

import (
	"sort"
	"strings"
)

// Registry is the set of discovered hosts, at most one per HostName, kept
// sorted case-insensitively by Name.
type Registry struct {
	hosts []Host
}

// Add inserts h unless a host with the same HostName is present. The first
// host seen for a name wins.
func (r *Registry) Add(h Host) bool {
	for _, existing := range r.hosts {
		if existing.HostName == h.HostName {
			return false
		}
	}
	r.hosts = append(r.hosts, h)
	sort.SliceStable(r.hosts, func(i, j int) bool {
		return strings.ToLower(r.hosts[i].Name) < strings.ToLower(r.hosts[j].Name)
	})
	return true
}

// RemoveHostName drops hosts named hostName and returns how many were removed.
func (r *Registry) RemoveHostName(hostName string) int {
	kept := r.hosts[:0]
	removed := 0
	for _, h := range r.hosts {
		if h.HostName == hostName {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	clear(r.hosts[len(kept):])
	r.hosts = kept
	return removed
}

// Lookup returns the host registered under hostName.
func (r *Registry) Lookup(hostName string) (Host, bool) {
	for _, h := range r.hosts {
		if h.HostName == hostName {
			return h, true
		}
	}
	return Host{}, false
}

func (r *Registry) Clear() { r.hosts = nil }

func (r *Registry) Len() int { return len(r.hosts) }

// Hosts returns a copy in display order.
func (r *Registry) Hosts() []Host {
	return append([]Host(nil), r.hosts...)
}
