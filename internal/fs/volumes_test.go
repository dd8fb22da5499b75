package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMountTable(t *testing.T) {
	table := `sysfs /sys sysfs rw,nosuid 0 0
proc /proc proc rw 0 0
/dev/nvme0n1p2 / ext4 rw,relatime 0 0
tmpfs /run/user/1000 tmpfs rw 0 0
//nas.local/Media /home/me/mnt/Media cifs rw,vers=3.0 0 0
//nas.local/My\040Photos /home/me/mnt/My\040Photos cifs rw 0 0
server:/export /mnt/nfs nfs4 rw 0 0
/dev/sdb1 /media/usb vfat rw 0 0
/dev/sdb1 /media/usb vfat rw 0 0
short line
`
	vols := parseMountTable(strings.NewReader(table))

	byPath := make(map[string]Volume)
	for _, v := range vols {
		byPath[v.Path] = v
	}

	testCases := []struct {
		path    string
		present bool
		remote  bool
		name    string
	}{
		{"/sys", false, false, ""},
		{"/proc", false, false, ""},
		{"/run/user/1000", false, false, ""},
		{"/", true, false, "/ (Root)"},
		{"/home/me/mnt/Media", true, true, "Media"},
		{"/home/me/mnt/My Photos", true, true, "My Photos"},
		{"/mnt/nfs", true, true, "nfs"},
		{"/media/usb", true, false, "usb"},
	}

	for _, tc := range testCases {
		v, ok := byPath[tc.path]
		if ok != tc.present {
			t.Errorf("%s: present = %v, want %v", tc.path, ok, tc.present)
			continue
		}
		if !ok {
			continue
		}
		if v.Remote != tc.remote {
			t.Errorf("%s: Remote = %v, want %v", tc.path, v.Remote, tc.remote)
		}
		if v.Name != tc.name {
			t.Errorf("%s: Name = %q, want %q", tc.path, v.Name, tc.name)
		}
	}

	if len(vols) != 5 {
		t.Errorf("expected 5 volumes (duplicates collapsed), got %d", len(vols))
	}
}

func TestListVolumeDir(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"Macintosh HD", "Media", "Backup"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// Nested entries and plain files are ignored
	if err := os.Mkdir(filepath.Join(root, "Media", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".DS_Store"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	vols := listVolumeDir(root, func(path string) string {
		if filepath.Base(path) == "Media" {
			return "smbfs"
		}
		return "apfs"
	})

	if len(vols) != 3 {
		t.Fatalf("expected 3 volumes, got %d: %+v", len(vols), vols)
	}
	for _, v := range vols {
		wantRemote := v.Name == "Media"
		if v.Remote != wantRemote {
			t.Errorf("%s: Remote = %v, want %v", v.Name, v.Remote, wantRemote)
		}
		if filepath.Dir(v.Path) != root {
			t.Errorf("%s: unexpected path %s", v.Name, v.Path)
		}
	}
}

func TestSnapshotAdded(t *testing.T) {
	before := NewSnapshot([]Volume{{Name: "A", Path: "/Volumes/A"}})
	after := NewSnapshot([]Volume{
		{Name: "A", Path: "/Volumes/A"},
		{Name: "C", Path: "/Volumes/C"},
		{Name: "B", Path: "/Volumes/B"},
	})

	added := after.Added(before)
	if len(added) != 2 || added[0].Path != "/Volumes/B" || added[1].Path != "/Volumes/C" {
		t.Errorf("Added = %+v, want B then C", added)
	}
	if got := before.Added(after); len(got) != 0 {
		t.Errorf("reverse diff should be empty, got %+v", got)
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !IsDir(dir) {
		t.Error("IsDir(dir) = false")
	}
	if IsDir(file) {
		t.Error("IsDir(file) = true")
	}
	if IsDir(filepath.Join(dir, "missing")) {
		t.Error("IsDir(missing) = true")
	}
}
