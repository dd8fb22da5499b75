//go:build darwin

package mount

// mountCommand returns the no-prompt mount invocation for t at mountPoint.
func mountCommand(t Target, mountPoint string) (string, []string) {
	if t.Scheme == "afp" {
		return "/sbin/mount_afp", []string{"afp:" + t.remote(true), mountPoint}
	}
	return "/sbin/mount_smbfs", []string{"-N", t.remote(true), mountPoint}
}
