//go:build !darwin

package mount

import (
	"fmt"
	"os"
)

// mountCommand returns the no-prompt mount invocation for t at mountPoint.
func mountCommand(t Target, mountPoint string) (string, []string) {
	if t.Scheme == "afp" {
		return "mount_afp", []string{"afp:" + t.remote(true), mountPoint}
	}
	opts := fmt.Sprintf("guest,uid=%d,gid=%d", os.Getuid(), os.Getgid())
	if t.User != "" {
		opts = fmt.Sprintf("username=%s,password=%s,uid=%d,gid=%d", t.User, t.Password, os.Getuid(), os.Getgid())
	}
	return "mount", []string{"-t", "cifs", t.remote(false), mountPoint, "-o", opts}
}
