//go:build !debug

// Package debug provides a centralized, categorized debug logging system.
// This is the no-op version for release builds.
package debug

// Enabled indicates whether debug logging is active
const Enabled = false

// Category represents a debug logging category
type Category string

const (
	APP        Category = "APP"
	HISTORY    Category = "HISTORY"
	NET        Category = "NET"
	MOUNT      Category = "MOUNT"
	STORE      Category = "STORE"
	FS         Category = "FS"
	NET_PACKET Category = "NET_PACKET"
	MOUNT_POLL Category = "MOUNT_POLL"
)

// Log is a no-op in release builds
func Log(cat Category, format string, args ...interface{}) {}

// Configure is a no-op in release builds
func Configure(spec string) {}

// ListEnabled returns nil in release builds
func ListEnabled() []Category { return nil }
