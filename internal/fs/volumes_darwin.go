//go:build darwin

package fs

import (
	"syscall"

	"github.com/justyntemme/duonav/internal/debug"
)

// ListVolumes returns mounted volumes on macOS by walking /Volumes
func ListVolumes() []Volume {
	vols := listVolumeDir("/Volumes", statfsType)
	if len(vols) == 0 {
		// Fallback to just root
		return []Volume{{Name: "Macintosh HD", Path: "/", FSType: "apfs"}}
	}
	debug.Log(debug.FS, "ListVolumes: %d under /Volumes", len(vols))
	return vols
}

// statfsType returns the f_fstypename of the filesystem holding path
func statfsType(path string) string {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return ""
	}
	b := make([]byte, 0, len(st.Fstypename))
	for _, c := range st.Fstypename {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
