package history

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// remotePrefixes mark addresses that are not local file-system paths.
// "/sftp:" and "/ftp:" are the display form of an active remote connection.
var remotePrefixes = []string{
	"smb://",
	"afp://",
	"sftp://",
	"ftp://",
	"/sftp:",
	"/ftp:",
}

// IsRemotePath reports whether path addresses a remote location rather than
// the local file system.
func IsRemotePath(path string) bool {
	lower := strings.ToLower(path)
	for _, p := range remotePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Normalize expands and cleans a path string, handling:
// - ~ for home directory
// - Relative paths (resolved against the working directory)
// - Remote addresses, which are kept verbatim apart from a trailing slash
//
// It returns "" for input that cannot name a location.
func Normalize(input, home string) string {
	input = strings.TrimSpace(input)
	if input == "" || strings.ContainsRune(input, 0) {
		return ""
	}

	if IsRemotePath(input) {
		trimmed := strings.TrimRight(input, "/")
		if strings.HasSuffix(trimmed, ":") {
			// "smb://" alone or "/sftp:" keeps its separator
			return input
		}
		return trimmed
	}

	if strings.HasPrefix(input, "~") {
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		if input == "~" {
			input = home
		} else if strings.HasPrefix(input, "~/") || strings.HasPrefix(input, "~\\") {
			input = filepath.Join(home, input[2:])
		}
	}

	if isAbsolutePath(input) {
		return filepath.Clean(input)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return ""
	}
	return abs
}

// isAbsolutePath checks if a path is absolute, handling both Unix and Windows paths.
func isAbsolutePath(path string) bool {
	if len(path) == 0 {
		return false
	}

	if path[0] == '/' {
		return true
	}

	if runtime.GOOS == "windows" {
		// Drive letter paths: C:\, D:\, C:/, etc.
		if len(path) >= 2 && isLetter(path[0]) && path[1] == ':' {
			return true
		}
		// UNC paths: \\server\share
		if len(path) >= 2 && path[0] == '\\' && path[1] == '\\' {
			return true
		}
	}

	return false
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
