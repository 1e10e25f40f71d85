package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LISTEN_ADDR", "STORAGE_ROOT", "CACHE_TTL", "SUPERNOTE_HOST",
		"SUPERNOTE_ACCESS_TOKEN", "ACCOUNT_SCOPE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SUPERNOTE_ACCOUNT", "user@example.com")
	t.Setenv("SUPERNOTE_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StorageRoot != "./data" {
		t.Errorf("StorageRoot = %q", cfg.StorageRoot)
	}
	if cfg.CacheTTL.Hours() != 1 {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.Scope != "user-example.com" {
		t.Errorf("Scope = %q", cfg.Scope)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("ACCOUNT_SCOPE", "personal")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.CacheTTL.Minutes() != 30 {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.Scope != "personal" {
		t.Errorf("Scope = %q", cfg.Scope)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing account",
			env:  map[string]string{"SUPERNOTE_PASSWORD": "secret"},
			want: "SUPERNOTE_ACCOUNT",
		},
		{
			name: "missing credentials",
			env:  map[string]string{"SUPERNOTE_ACCOUNT": "user@example.com"},
			want: "SUPERNOTE_PASSWORD or SUPERNOTE_ACCESS_TOKEN",
		},
		{
			name: "bad ttl",
			env: map[string]string{
				"SUPERNOTE_ACCOUNT":  "user@example.com",
				"SUPERNOTE_PASSWORD": "secret",
				"CACHE_TTL":          "soon",
			},
			want: "CACHE_TTL",
		},
		{
			name: "scope with separator",
			env: map[string]string{
				"SUPERNOTE_ACCOUNT":  "user@example.com",
				"SUPERNOTE_PASSWORD": "secret",
				"ACCOUNT_SCOPE":      "a/b",
			},
			want: "must not contain",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SUPERNOTE_ACCOUNT", "")
			t.Setenv("SUPERNOTE_PASSWORD", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestScopeFromAccount(t *testing.T) {
	if got := ScopeFromAccount("+49 151 1234"); got != "-49-151-1234" {
		t.Errorf("ScopeFromAccount = %q", got)
	}
}
