package app

import (
	"path/filepath"
	"strings"

	"github.com/justyntemme/duonav/internal/history"
)

// Navigate expands path against the panel's current location and records the visit.
// It returns the location the panel should show, or "" if input was unusable;
// unusable input leaves history untouched.
func (n *PanelController) Navigate(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	path := n.ExpandPath(input)
	if path == "" {
		return ""
	}
	n.History.NavigateTo(path)
	current, _ := n.History.Current()
	return current
}

// GoBack returns the previous location in history.
func (n *PanelController) GoBack() (string, bool) {
	return n.History.GoBack()
}

// GoForward returns the next location in history.
func (n *PanelController) GoForward() (string, bool) {
	return n.History.GoForward()
}

// GoUp navigates to the parent of the current local directory.
func (n *PanelController) GoUp() (string, bool) {
	current, ok := n.History.Current()
	if !ok || history.IsRemotePath(current) {
		return "", false
	}
	parent := filepath.Dir(current)
	if parent == current {
		return "", false // Already at root
	}
	return n.Navigate(parent), true
}

// GoHome navigates to the user's home directory.
func (n *PanelController) GoHome() string {
	return n.Navigate(n.deps.HomePath)
}

// JumpTo moves to path if it is in the panel's history.
func (n *PanelController) JumpTo(path string) bool {
	return n.History.JumpTo(path)
}

// Menus returns the back and forward dropdown entries.
func (n *PanelController) Menus() (back, forward []string) {
	limit := n.deps.Config.History.MenuLimit
	return n.History.BackHistory(limit), n.History.ForwardHistory(limit)
}

// ApplyFilter records a panel filter query.
func (n *PanelController) ApplyFilter(query string) {
	n.Filters.Add(query)
}

// CurrentPath returns the location the panel shows, or "" before any navigation.
func (n *PanelController) CurrentPath() string {
	p, _ := n.History.Current()
	return p
}

// ExpandPath expands and normalizes a path string, handling:
// - ~ for home directory
// - Relative paths (../, ./), resolved against the current location
// - Absolute and remote paths
func (n *PanelController) ExpandPath(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return n.CurrentPath()
	}
	if history.IsRemotePath(input) || strings.HasPrefix(input, "~") || filepath.IsAbs(input) {
		return history.Normalize(input, n.deps.HomePath)
	}

	// Handle relative paths - join with current directory
	current := n.CurrentPath()
	if current == "" || history.IsRemotePath(current) {
		return history.Normalize(input, n.deps.HomePath)
	}
	return filepath.Clean(filepath.Join(current, input))
}
