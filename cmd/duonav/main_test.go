package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/justyntemme/duonav/internal/config"
	"github.com/justyntemme/duonav/internal/network"
	"github.com/justyntemme/duonav/internal/store"
)

func TestRunConfigUsesManagerPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom", "duonav.json")
	m := config.NewManagerAt(path)

	testCases := []struct {
		args    []string
		wantErr bool
	}{
		{[]string{"init"}, false},
		{[]string{"set-root", "/mnt/shares"}, false},
		{[]string{"set-types", "_smb._tcp, ,_afpovertcp._tcp"}, false},
		{[]string{"set-root"}, true},
		{[]string{}, true},
	}
	for _, tc := range testCases {
		err := runConfig(m, tc.args)
		if (err != nil) != tc.wantErr {
			t.Errorf("runConfig(%q) error = %v, wantErr %v", tc.args, err, tc.wantErr)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}
	reloaded := config.NewManagerAt(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	cfg := reloaded.Get()
	if cfg.Mount.Root != "/mnt/shares" {
		t.Errorf("mount root = %q", cfg.Mount.Root)
	}
	if !slices.Equal(cfg.Network.ServiceTypes, []string{"_smb._tcp", "_afpovertcp._tcp"}) {
		t.Errorf("service types = %v", cfg.Network.ServiceTypes)
	}
}

func TestRunAuth(t *testing.T) {
	keyring.MockInit()
	creds := network.Keyring{Service: "duonav-cli-test"}

	if err := runAuth(creds, []string{"save", "nas.local", "bob"}, strings.NewReader("s3cret\n")); err != nil {
		t.Fatal(err)
	}
	c, ok, err := creds.Load("nas.local")
	if err != nil || !ok || c != (network.Credentials{User: "bob", Password: "s3cret"}) {
		t.Fatalf("Load = %+v, %v, %v", c, ok, err)
	}
	if err := runAuth(creds, []string{"nas.local"}, nil); err != nil {
		t.Errorf("show: %v", err)
	}
	if err := runAuth(creds, []string{"delete", "nas.local"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := creds.Load("nas.local"); ok {
		t.Error("credentials survived auth delete")
	}
	if err := runAuth(creds, []string{"save", "nas.local"}, nil); err == nil {
		t.Error("auth save without user succeeded")
	}
}

func TestRunPrefs(t *testing.T) {
	db := store.NewDB()
	if err := db.Open(filepath.Join(t.TempDir(), "prefs.db")); err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, k := range []string{"history.left", "history.right", "filters.left"} {
		if err := db.SetValue(k, "[]"); err != nil {
			t.Fatal(err)
		}
	}

	if err := runPrefs(db, []string{"delete", "history.left"}); err != nil {
		t.Fatal(err)
	}
	keys, err := db.Keys("history.")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(keys, []string{"history.right"}) {
		t.Errorf("keys after delete = %v", keys)
	}
	if err := runPrefs(db, []string{"list", "filters."}); err != nil {
		t.Errorf("list: %v", err)
	}
	if err := runPrefs(db, []string{"delete"}); err == nil {
		t.Error("prefs delete without key succeeded")
	}
}
