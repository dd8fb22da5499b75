package network

import (
	"bufio"
	"context"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/justyntemme/duonav/internal/debug"
)

// Share is one mountable share offered by a host.
type Share struct {
	Name string
	URL  string
}

// ListShares asks the platform SMB client which disk shares host offers,
// as a guest when creds is empty. Hidden administrative shares ending in "$"
// are skipped. AFP hosts and failures yield no shares; the caller falls back
// to asking for credentials.
func ListShares(ctx context.Context, host Host, creds Credentials, timeout time.Duration) []Share {
	if host.Scheme() != "smb" {
		return nil
	}
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hostname := host.mountHost()

	name, args := shareListCommand(runtime.GOOS, hostname, creds)
	parse := parseSmbclientList
	if runtime.GOOS == "darwin" {
		parse = parseSmbutilView
	}

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil && len(out) == 0 {
		debug.Log(debug.NET, "share listing for %s failed: %v", hostname, err)
		return nil
	}

	names := parse(string(out))
	shares := make([]Share, 0, len(names))
	for _, n := range names {
		u := url.URL{Scheme: "smb", Host: hostname, Path: "/" + n}
		shares = append(shares, Share{Name: n, URL: u.String()})
	}
	debug.Log(debug.NET, "%d shares on %s", len(shares), hostname)
	return shares
}

// shareListCommand returns the share listing invocation for goos.
func shareListCommand(goos, hostname string, creds Credentials) (string, []string) {
	if goos == "darwin" {
		if creds.User == "" {
			return "/usr/bin/smbutil", []string{"view", "-N", "//" + hostname}
		}
		user := url.UserPassword(creds.User, creds.Password).String()
		return "/usr/bin/smbutil", []string{"view", "//" + user + "@" + hostname}
	}
	if creds.User == "" {
		return "smbclient", []string{"-L", "//" + hostname, "-N", "-g"}
	}
	return "smbclient", []string{"-L", "//" + hostname, "-U", creds.User + "%" + creds.Password, "-g"}
}

// parseSmbutilView reads the table printed by `smbutil view`:
//
//	Share                                           Type    Comments
//	-------------------------------
//	Media                                           Disk
//	IPC$                                            Pipe    IPC Service
func parseSmbutilView(output string) []string {
	var names []string
	inTable := false
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			inTable = true
			continue
		}
		if !inTable || line == "" {
			continue
		}
		parts := strings.Fields(line)
		diskIdx := -1
		for i, p := range parts {
			if strings.EqualFold(p, "disk") {
				diskIdx = i
				break
			}
		}
		if diskIdx <= 0 {
			continue
		}
		name := strings.Join(parts[:diskIdx], " ")
		if strings.HasSuffix(name, "$") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// parseSmbclientList reads `smbclient -g` output lines like "Disk|Media|comment".
func parseSmbclientList(output string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "|", 3)
		if len(fields) < 2 || fields[0] != "Disk" {
			continue
		}
		name := fields[1]
		if name == "" || strings.HasSuffix(name, "$") {
			continue
		}
		names = append(names, name)
	}
	return names
}
