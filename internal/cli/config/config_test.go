package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), dirName, fileName)
	t.Setenv(PathEnv, p)
	return p
}

func TestConfig_Path(t *testing.T) {
	t.Run("defaults to user config dir", func(t *testing.T) {
		t.Setenv(PathEnv, "")
		path, err := Path()
		if err != nil {
			t.Skipf("no user config dir on this platform: %v", err)
		}
		if filepath.Base(path) != fileName {
			t.Errorf("expected filename %s, got %s", fileName, filepath.Base(path))
		}
		if filepath.Base(filepath.Dir(path)) != dirName {
			t.Errorf("expected parent dir %s, got %s", dirName, filepath.Dir(path))
		}
	})

	t.Run("environment override wins", func(t *testing.T) {
		want := useTempConfig(t)
		got, err := Path()
		if err != nil {
			t.Fatalf("Path() returned error: %v", err)
		}
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestConfig_Load(t *testing.T) {
	t.Run("returns defaults when file does not exist", func(t *testing.T) {
		useTempConfig(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if cfg.ServerURL != DefaultURL {
			t.Errorf("expected ServerURL %s, got %s", DefaultURL, cfg.ServerURL)
		}
		if cfg.HasToken() {
			t.Error("expected no token")
		}
	})

	t.Run("fills in missing server url", func(t *testing.T) {
		p := useTempConfig(t)
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			t.Fatalf("failed to create config dir: %v", err)
		}
		if err := os.WriteFile(p, []byte(`{"token":"abc"}`), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if cfg.ServerURL != DefaultURL || cfg.Token != "abc" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		p := useTempConfig(t)
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			t.Fatalf("failed to create config dir: %v", err)
		}
		if err := os.WriteFile(p, []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := Load(); err == nil {
			t.Fatal("expected error for malformed config")
		}
	})
}

func TestConfig_SaveAndClear(t *testing.T) {
	p := useTempConfig(t)

	in := &Config{
		ServerURL:    "http://example.com",
		Token:        "tok",
		RefreshToken: "ref",
		ExpiresAt:    time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		Email:        "a@b.com",
	}
	if err := Save(in); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	info, err := os.Stat(p)
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if info.Mode().Perm() != filePerms {
		t.Errorf("expected perms %o, got %o", filePerms, info.Mode().Perm())
	}

	out, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Errorf("expected expiry %s, got %s", in.ExpiresAt, out.ExpiresAt)
	}
	out.ExpiresAt = in.ExpiresAt
	if *out != *in {
		t.Errorf("expected %+v, got %+v", in, out)
	}

	if err := Clear(); err != nil {
		t.Fatalf("Clear() returned error: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected config file to be removed, got %v", err)
	}
	if err := Clear(); err != nil {
		t.Errorf("expected second Clear() to succeed, got %v", err)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := &Config{ServerURL: DefaultURL, Token: "file", RefreshToken: "ref", ExpiresAt: time.Now()}

	t.Setenv(ServerEnv, "")
	t.Setenv(TokenEnv, "")
	cfg.ApplyEnv()
	if cfg.Token != "file" || cfg.ServerURL != DefaultURL {
		t.Fatalf("expected unset variables to change nothing, got %+v", cfg)
	}

	t.Setenv(ServerEnv, "https://reelshare.example")
	t.Setenv(TokenEnv, "ci-token")
	cfg.ApplyEnv()
	if cfg.ServerURL != "https://reelshare.example" || cfg.Token != "ci-token" {
		t.Fatalf("expected overrides, got %+v", cfg)
	}
	if cfg.RefreshToken != "" || !cfg.ExpiresAt.IsZero() {
		t.Fatalf("expected injected token to drop refresh state, got %+v", cfg)
	}
}

func TestConfig_NeedsRefresh(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "no expiry recorded", cfg: Config{RefreshToken: "r"}, want: false},
		{name: "no refresh token", cfg: Config{ExpiresAt: now.Add(-time.Hour)}, want: false},
		{name: "still valid", cfg: Config{RefreshToken: "r", ExpiresAt: now.Add(time.Hour)}, want: false},
		{name: "inside leeway", cfg: Config{RefreshToken: "r", ExpiresAt: now.Add(10 * time.Second)}, want: true},
		{name: "expired", cfg: Config{RefreshToken: "r", ExpiresAt: now.Add(-time.Minute)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.NeedsRefresh(now); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
