package history

import (
	"fmt"
	"slices"
	"testing"
)

func TestPushDistinct(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	for i := 0; i < 20; i++ {
		if !s.Push(fmt.Sprintf("/p/%d", i)) {
			t.Fatalf("Push %d reported no change", i)
		}
		if s.Len() != i+1 {
			t.Errorf("after %d pushes Len = %d", i+1, s.Len())
		}
		if s.Cursor() != s.Len()-1 {
			t.Errorf("after %d pushes Cursor = %d, want %d", i+1, s.Cursor(), s.Len()-1)
		}
	}
}

func TestPushDuplicateSuppressed(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	s.Push("/a")
	s.Push("/b")
	if s.Push("/b") {
		t.Error("duplicate Push reported a change")
	}
	if got := s.Entries(); !slices.Equal(got, []string{"/a", "/b"}) {
		t.Errorf("Entries = %v", got)
	}

	// Non-adjacent repeats are kept
	s.Push("/a")
	if got := s.Entries(); !slices.Equal(got, []string{"/a", "/b", "/a"}) {
		t.Errorf("Entries = %v", got)
	}
}

func TestPushTruncatesForward(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	s.Push("/A")
	s.Push("/B")
	s.Push("/C")
	s.Back()
	s.Back()
	s.Push("/D")

	if got := s.Entries(); !slices.Equal(got, []string{"/A", "/D"}) {
		t.Errorf("Entries = %v, want [/A /D]", got)
	}
	if cur, _ := s.Current(); cur != "/D" || s.Cursor() != 1 {
		t.Errorf("Current = %q cursor %d, want /D at 1", cur, s.Cursor())
	}
	if s.CanGoForward() {
		t.Error("forward history should be gone")
	}
}

func TestPushCurrentFromMiddleStillTruncates(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	s.Push("/A")
	s.Push("/B")
	s.Back()

	if !s.Push("/A") {
		t.Error("truncation should count as a change")
	}
	if got := s.Entries(); !slices.Equal(got, []string{"/A"}) {
		t.Errorf("Entries = %v, want [/A]", got)
	}
}

func TestPushEvictsOldest(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	for i := 0; i < 105; i++ {
		s.Push(fmt.Sprintf("/p/%d", i))
	}

	if s.Len() != 100 {
		t.Fatalf("Len = %d, want 100", s.Len())
	}
	entries := s.Entries()
	if entries[0] != "/p/5" {
		t.Errorf("oldest = %s, want /p/5", entries[0])
	}
	if cur, _ := s.Current(); cur != "/p/104" {
		t.Errorf("Current = %s, want /p/104", cur)
	}
	if s.Cursor() != 99 {
		t.Errorf("Cursor = %d, want 99", s.Cursor())
	}
}

func TestBackForwardBounds(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	if _, ok := s.Back(); ok {
		t.Error("Back on empty store succeeded")
	}
	if _, ok := s.Forward(); ok {
		t.Error("Forward on empty store succeeded")
	}
	if s.Cursor() != -1 || s.Len() != 0 {
		t.Errorf("empty store mutated: cursor %d len %d", s.Cursor(), s.Len())
	}

	s.Push("/a")
	if _, ok := s.Back(); ok {
		t.Error("Back with a single entry succeeded")
	}

	s.Push("/b")
	s.Push("/c")
	if p, ok := s.Back(); !ok || p != "/b" {
		t.Errorf("Back = %q %v, want /b", p, ok)
	}
	if p, ok := s.Forward(); !ok || p != "/c" {
		t.Errorf("Forward = %q %v, want /c", p, ok)
	}
	if _, ok := s.Forward(); ok {
		t.Error("Forward at tail succeeded")
	}
}

func TestJump(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		s.Push(p)
	}

	if !s.Jump("/b") {
		t.Fatal("Jump(/b) failed")
	}
	if s.Cursor() != 1 || s.Len() != 4 {
		t.Errorf("cursor %d len %d, want 1 and 4", s.Cursor(), s.Len())
	}
	if s.Jump("/zzz") {
		t.Error("Jump to unknown path succeeded")
	}
	if s.Cursor() != 1 {
		t.Error("failed Jump moved the cursor")
	}
}

func TestBackAndForwardLists(t *testing.T) {
	s := NewStore(DefaultMaxEntries)
	for _, p := range []string{"/1", "/2", "/3", "/4", "/5", "/6"} {
		s.Push(p)
	}
	s.Jump("/4")

	testCases := []struct {
		name string
		got  []string
		want []string
	}{
		{"back all", s.BackList(10), []string{"/3", "/2", "/1"}},
		{"back limited", s.BackList(2), []string{"/3", "/2"}},
		{"back zero", s.BackList(0), nil},
		{"forward all", s.ForwardList(10), []string{"/5", "/6"}},
		{"forward limited", s.ForwardList(1), []string{"/5"}},
	}

	for _, tc := range testCases {
		if !slices.Equal(tc.got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}

	if s.Cursor() != 3 {
		t.Error("listing mutated the cursor")
	}
}

func TestRestore(t *testing.T) {
	testCases := []struct {
		name        string
		entries     []string
		cursor      int
		max         int
		wantEntries []string
		wantCursor  int
	}{
		{"empty", nil, 3, 10, nil, -1},
		{"in range", []string{"/a", "/b"}, 0, 10, []string{"/a", "/b"}, 0},
		{"past end", []string{"/a", "/b"}, 7, 10, []string{"/a", "/b"}, 1},
		{"negative", []string{"/a", "/b"}, -1, 10, []string{"/a", "/b"}, 0},
		{"collapse duplicates", []string{"/a", "/a", "/b", "/b", "/c"}, 3, 10, []string{"/a", "/b", "/c"}, 1},
		{"over capacity", []string{"/a", "/b", "/c", "/d"}, 3, 2, []string{"/c", "/d"}, 1},
		{"cursor evicted", []string{"/a", "/b", "/c", "/d"}, 0, 2, []string{"/c", "/d"}, 0},
		{"past end over capacity", []string{"/a", "/b", "/c", "/d"}, 9, 2, []string{"/c", "/d"}, 1},
		{"negative over capacity", []string{"/a", "/b", "/c", "/d"}, -1, 2, []string{"/c", "/d"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(tc.max)
			s.Restore(tc.entries, tc.cursor)
			if got := s.Entries(); !slices.Equal(got, tc.wantEntries) {
				t.Errorf("Entries = %v, want %v", got, tc.wantEntries)
			}
			if s.Cursor() != tc.wantCursor {
				t.Errorf("Cursor = %d, want %d", s.Cursor(), tc.wantCursor)
			}
		})
	}
}
