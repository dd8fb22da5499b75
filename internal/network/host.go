// Package network discovers file-sharing hosts on the local network and lists
// the shares they offer.
package network

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Host is a resolved network host. Hosts are replaced, never mutated.
type Host struct {
	ID          uuid.UUID // session scoped, not persisted
	Name        string    // service instance name, shown to the user
	HostName    string    // resolvable name, unique within a Registry
	Addresses   []string
	ServiceType string
	Port        int
}

// NewHost builds a Host with a fresh ID.
func NewHost(name, hostName string, addresses []string, serviceType string, port int) Host {
	return Host{
		ID:          uuid.New(),
		Name:        name,
		HostName:    hostName,
		Addresses:   addresses,
		ServiceType: serviceType,
		Port:        port,
	}
}

// Scheme returns "afp" for AFP services and "smb" for everything else.
func (h Host) Scheme() string {
	if strings.Contains(h.ServiceType, "_afp") {
		return "afp"
	}
	return "smb"
}

// MountURL returns the share-root URL for the host, e.g. smb://nas.local/.
// The port is included only when it differs from the scheme default.
func (h Host) MountURL() string {
	u := url.URL{Scheme: h.Scheme(), Host: h.mountHost(), Path: "/"}
	if h.Port > 0 && h.Port != defaultPort(u.Scheme) {
		u.Host = net.JoinHostPort(u.Host, strconv.Itoa(h.Port))
	}
	return u.String()
}

// mountHost prefers the advertised host name without its trailing dot.
func (h Host) mountHost() string {
	hn := strings.TrimSuffix(h.HostName, ".")
	if hn == "" || hn == h.Name {
		name := h.Name
		if !strings.HasSuffix(name, ".local") {
			name += ".local"
		}
		return name
	}
	return hn
}

func defaultPort(scheme string) int {
	switch scheme {
	case "afp":
		return 548
	case "smb":
		return 445
	}
	return 0
}

// FilterAddresses renders ips numerically, dropping IPv6 link-local addresses
// which cannot be used to mount a share without a zone.
func FilterAddresses(ips []net.IP) []string {
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		if ip == nil {
			continue
		}
		s := ip.String()
		if strings.HasPrefix(s, "fe80") {
			continue
		}
		out = append(out, s)
	}
	return out
}
