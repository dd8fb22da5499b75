//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	// Core categories
	APP     Category = "APP"     // Wiring, panels, command dispatch
	HISTORY Category = "HISTORY" // Panel navigation and query history
	NET     Category = "NET"     // Service browse/resolve, host registry
	MOUNT   Category = "MOUNT"   // Share mounting and volume polling
	STORE   Category = "STORE"   // Preference store reads and writes
	FS      Category = "FS"      // Volume snapshots, directory checks

	// Detailed subcategories (use sparingly - can be verbose)
	NET_PACKET Category = "NET_PACKET" // Every browse/resolve event (very verbose)
	MOUNT_POLL Category = "MOUNT_POLL" // Each poll tick while waiting on a mount
)

var (
	// enabledCategories controls which categories are active
	// By default, all main categories are enabled
	enabledCategories = map[Category]bool{
		APP:     true,
		HISTORY: true,
		NET:     true,
		MOUNT:   true,
		STORE:   true,
		FS:      true,
		// Verbose categories disabled by default
		NET_PACKET: false,
		MOUNT_POLL: false,
	}
	categoryMu sync.RWMutex

	// Output destination
	logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
)

func init() {
	// Format: DUONAV_DEBUG=APP,MOUNT or DUONAV_DEBUG=all or DUONAV_DEBUG=none
	if env := os.Getenv("DUONAV_DEBUG"); env != "" {
		Configure(env)
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	msg := fmt.Sprintf(format, args...)
	logger.Printf("[%s] %s", cat, msg)
}

// Configure selects categories from a spec: "all", "none", or a comma
// separated list such as "NET,MOUNT" which enables exactly those.
func Configure(spec string) {
	categoryMu.Lock()
	defer categoryMu.Unlock()

	spec = strings.ToUpper(strings.TrimSpace(spec))
	all := spec == "ALL"
	for cat := range enabledCategories {
		enabledCategories[cat] = all
	}
	if all || spec == "NONE" {
		return
	}
	for _, cat := range strings.Split(spec, ",") {
		if cat = strings.TrimSpace(cat); cat != "" {
			enabledCategories[Category(cat)] = true
		}
	}
}

// ListEnabled returns the enabled categories in name order
func ListEnabled() []Category {
	categoryMu.RLock()
	defer categoryMu.RUnlock()

	var enabled []Category
	for cat, on := range enabledCategories {
		if on {
			enabled = append(enabled, cat)
		}
	}
	slices.Sort(enabled)
	return enabled
}
