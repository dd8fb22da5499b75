// Package fs answers the file-system questions the history and mount code asks:
// does a directory exist, and which volumes are mounted right now.
package fs

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Volume represents a mounted drive/volume
type Volume struct {
	Name   string
	Path   string
	FSType string
	Remote bool
}

// remoteFSTypes are filesystem types backed by a network share
var remoteFSTypes = map[string]bool{
	"smbfs":      true,
	"cifs":       true,
	"smb3":       true,
	"afpfs":      true,
	"fuse.afpfs": true,
	"nfs":        true,
	"nfs4":       true,
	"webdav":     true,
	"davfs":      true,
}

// IsRemoteFSType reports whether fsType names a network filesystem
func IsRemoteFSType(fsType string) bool {
	return remoteFSTypes[strings.ToLower(fsType)]
}

// IsDir reports whether path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Snapshot is a set of mounted volumes keyed by mount path
type Snapshot map[string]Volume

// NewSnapshot indexes vols by path
func NewSnapshot(vols []Volume) Snapshot {
	s := make(Snapshot, len(vols))
	for _, v := range vols {
		s[v.Path] = v
	}
	return s
}

// RemoteSnapshot returns the currently mounted remote volumes
func RemoteSnapshot() Snapshot {
	var remote []Volume
	for _, v := range ListVolumes() {
		if v.Remote {
			remote = append(remote, v)
		}
	}
	return NewSnapshot(remote)
}

// Added returns volumes in s that are not in before, sorted by path
func (s Snapshot) Added(before Snapshot) []Volume {
	var added []Volume
	for p, v := range s {
		if _, ok := before[p]; !ok {
			added = append(added, v)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Path < added[j].Path })
	return added
}

// parseMountTable reads /proc/mounts formatted text.
// Octal escapes (\040 for space) in mount points are decoded.
func parseMountTable(r io.Reader) []Volume {
	var vols []Volume
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		mountPoint := unescapeMount(fields[1])
		fsType := fields[2]

		// Skip virtual filesystems
		if strings.HasPrefix(mountPoint, "/sys") ||
			strings.HasPrefix(mountPoint, "/proc") ||
			strings.HasPrefix(mountPoint, "/dev") ||
			strings.HasPrefix(mountPoint, "/snap") ||
			fsType == "tmpfs" ||
			fsType == "devtmpfs" ||
			fsType == "cgroup" ||
			fsType == "cgroup2" {
			continue
		}
		if seen[mountPoint] {
			continue
		}
		seen[mountPoint] = true

		name := filepath.Base(mountPoint)
		if mountPoint == "/" {
			name = "/ (Root)"
		}
		vols = append(vols, Volume{
			Name:   name,
			Path:   mountPoint,
			FSType: fsType,
			Remote: IsRemoteFSType(fsType),
		})
	}
	return vols
}

func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			o := s[i+1 : i+4]
			if o[0] >= '0' && o[0] <= '3' && o[1] >= '0' && o[1] <= '7' && o[2] >= '0' && o[2] <= '7' {
				b.WriteByte((o[0]-'0')<<6 | (o[1]-'0')<<3 | (o[2] - '0'))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// listVolumeDir returns the direct child directories of root, e.g. /Volumes.
// fsType reports the filesystem type of each child; it may be nil.
func listVolumeDir(root string, fsType func(path string) string) []Volume {
	var vols []Volume
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: true}

	err := fastwalk.Walk(conf, root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if fullPath == root {
			return nil
		}

		// Only process direct children (skip nested entries)
		if filepath.Dir(fullPath) != root {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		// The boot volume is a symlink to /
		if target, err := os.Readlink(fullPath); err == nil && target == "/" {
			mu.Lock()
			vols = append(vols, Volume{Name: d.Name(), Path: "/"})
			mu.Unlock()
			return fastwalk.SkipDir
		}

		if _, err := os.Stat(fullPath); err != nil {
			return fastwalk.SkipDir
		}

		v := Volume{Name: d.Name(), Path: fullPath}
		if fsType != nil {
			v.FSType = fsType(fullPath)
			v.Remote = IsRemoteFSType(v.FSType)
		}
		mu.Lock()
		vols = append(vols, v)
		mu.Unlock()

		return fastwalk.SkipDir // Don't recurse into volumes
	})
	if err != nil {
		return nil
	}

	sort.Slice(vols, func(i, j int) bool { return vols[i].Path < vols[j].Path })
	return vols
}
