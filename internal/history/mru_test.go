package history

import (
	"fmt"
	"slices"
	"testing"
)

func TestMRUAdd(t *testing.T) {
	prefs := newMemPrefs()
	m := NewFilterHistory(Left, prefs, 0)

	m.Add("  *.go ")
	m.Add("")
	m.Add("   ")
	m.Add("*.md")
	m.Add("*.go")

	if got := m.Entries(); !slices.Equal(got, []string{"*.go", "*.md"}) {
		t.Errorf("Entries = %v, want [*.go *.md]", got)
	}
	if prefs.values["panelFilterHistory.left"] != `["*.go","*.md"]` {
		t.Errorf("stored = %s", prefs.values["panelFilterHistory.left"])
	}
}

func TestMRUCap(t *testing.T) {
	m := NewFilterHistory(Right, newMemPrefs(), 0)
	for i := 0; i < 20; i++ {
		m.Add(fmt.Sprintf("q%d", i))
	}

	got := m.Entries()
	if len(got) != FilterMaxEntries {
		t.Fatalf("len = %d, want %d", len(got), FilterMaxEntries)
	}
	if got[0] != "q19" || got[len(got)-1] != "q4" {
		t.Errorf("Entries = %v", got)
	}
}

func TestMRURemoveAndReload(t *testing.T) {
	prefs := newMemPrefs()
	m := NewSearchHistory("fileNamePattern", prefs, 0)
	m.Add("a")
	m.Add("b")
	m.Add("c")
	m.Remove("b")
	m.Remove("missing")

	reloaded := NewSearchHistory("fileNamePattern", prefs, 0)
	if got := reloaded.Entries(); !slices.Equal(got, []string{"c", "a"}) {
		t.Errorf("reloaded Entries = %v, want [c a]", got)
	}
	if _, ok := prefs.values["findFiles.history.fileNamePattern"]; !ok {
		t.Error("search history stored under unexpected key")
	}
}
