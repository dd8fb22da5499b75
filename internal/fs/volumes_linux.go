//go:build linux

package fs

import (
	"os"

	"github.com/justyntemme/duonav/internal/debug"
)

// ListVolumes returns mounted filesystems on Linux from /proc/mounts
func ListVolumes() []Volume {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		debug.Log(debug.FS, "ListVolumes: %v", err)
		return []Volume{{Name: "/ (Root)", Path: "/"}}
	}
	defer file.Close()

	vols := parseMountTable(file)
	debug.Log(debug.FS, "ListVolumes: %d entries in /proc/mounts", len(vols))
	return vols
}
