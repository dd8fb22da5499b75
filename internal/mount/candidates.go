package mount

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Target is a parsed smb:// or afp:// share URL.
type Target struct {
	URL      string // password redacted
	Scheme   string
	User     string
	Password string
	Host     string // host[:port] as given
	Share    string // decoded first path segment, may be empty
}

// ParseTarget parses a share URL. A non-smb/afp scheme yields ErrNotHandled.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "smb" && scheme != "afp" {
		return Target{}, ErrNotHandled
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}

	t := Target{URL: raw, Scheme: scheme, Host: u.Host}
	if u.User != nil {
		t.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			t.Password = pw
			t.URL = u.Redacted()
		}
	}
	share, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	t.Share = share
	return t, nil
}

// hostName is Host without a port or a trailing dot.
func (t Target) hostName() string {
	h := t.Host
	if i := strings.LastIndex(h, ":"); i >= 0 && !strings.HasSuffix(h, "]") {
		h = h[:i]
	}
	return strings.TrimSuffix(h, ".")
}

// MountName is the directory name used under the mount root: the share name
// with spaces and slashes replaced by underscores, or the host name when the
// URL names no share.
func (t Target) MountName() string {
	name := t.Share
	if name == "" {
		name = t.hostName()
	}
	return strings.NewReplacer(" ", "_", "/", "_").Replace(name)
}

// Candidates lists the paths under root where this share may already be
// mounted, in lookup order.
func (t Target) Candidates(root string) []string {
	name := t.MountName()
	short := strings.TrimSuffix(t.hostName(), ".local")

	paths := []string{
		filepath.Join(root, name),
		filepath.Join(root, short+"-"+name),
	}
	if t.Share != "" && t.Share != name && !strings.Contains(t.Share, "/") {
		paths = append(paths, filepath.Join(root, t.Share))
	}
	return paths
}

// remote is the //[user[:password]@]host/share form mount utilities take.
func (t Target) remote(withUser bool) string {
	var b strings.Builder
	b.WriteString("//")
	if withUser && t.User != "" {
		if t.Password != "" {
			b.WriteString(url.UserPassword(t.User, t.Password).String())
		} else {
			b.WriteString(url.User(t.User).String())
		}
		b.WriteByte('@')
	}
	b.WriteString(t.Host)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(t.Share))
	return b.String()
}
