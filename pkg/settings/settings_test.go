package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/rgosc/pkg/util"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetFormat(); got != "yaml" {
		t.Errorf("GetFormat() default = %q, want %q", got, "yaml")
	}
	if got := s.GetWorkers(); got != DefaultWorkers {
		t.Errorf("GetWorkers() default = %d, want %d", got, DefaultWorkers)
	}
	if got := s.GetRedisAddr(); got != "127.0.0.1:6379" {
		t.Errorf("GetRedisAddr() default = %q", got)
	}
	if got := s.GetSSHUser(); got != "admin" {
		t.Errorf("GetSSHUser() default = %q", got)
	}
	if got := s.GetAuditLog(); !strings.HasSuffix(got, "history.log") {
		t.Errorf("GetAuditLog() default = %q", got)
	}
}

func TestSettings_Set(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr bool
		check   func(s *Settings) bool
	}{
		{"format", "json", false, func(s *Settings) bool { return s.GetFormat() == "json" }},
		{"format", "xml", true, nil},
		{"workers", "8", false, func(s *Settings) bool { return s.GetWorkers() == 8 }},
		{"workers", "many", true, nil},
		{"workers", "-1", true, nil},
		{"redis_addr", "redis:6380", false, func(s *Settings) bool { return s.GetRedisAddr() == "redis:6380" }},
		{"redis_db", "4", false, func(s *Settings) bool { return s.RedisDB == 4 }},
		{"redis_db", "16", true, nil},
		{"ssh_user", "ops", false, func(s *Settings) bool { return s.GetSSHUser() == "ops" }},
		{"audit_log", "/var/log/rgosc.log", false, func(s *Settings) bool { return s.GetAuditLog() == "/var/log/rgosc.log" }},
		{"colour", "blue", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := &Settings{}
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				if diff := cmp.Diff(&Settings{}, s); diff != "" {
					t.Errorf("failed Set modified settings (-want +got):\n%s", diff)
				}
				return
			}
			if !tt.check(s) {
				t.Errorf("Set(%q, %q) not applied: %+v", tt.key, tt.value, s)
			}
		})
	}
}

func TestSettings_SetValidationError(t *testing.T) {
	s := &Settings{}
	err := s.Set("format", "toml")
	if !errors.Is(err, util.ErrValidationFailed) {
		t.Errorf("Set() error = %v, want ErrValidationFailed", err)
	}
	err = s.Set("workers", "x")
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("Set() error = %v, want ErrInvalidConfig", err)
	}
	err = s.Set("colour", "blue")
	var nf *util.NotFoundError
	if !errors.As(err, &nf) || nf.Name != "colour" || !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Set(colour) error = %v, want setting not found", err)
	}
}

func TestSettings_Effective(t *testing.T) {
	s := &Settings{Format: "json", Workers: 2, AuditLog: "/tmp/h.log"}
	want := map[string]string{
		"format":     "json",
		"workers":    "2",
		"redis_addr": DefaultRedisAddr,
		"redis_db":   "0",
		"ssh_user":   DefaultSSHUser,
		"audit_log":  "/tmp/h.log",
	}
	if diff := cmp.Diff(want, s.Effective()); diff != "" {
		t.Errorf("Effective() mismatch (-want +got):\n%s", diff)
	}
	wantKeys := []string{"audit_log", "format", "redis_addr", "redis_db", "ssh_user", "workers"}
	if diff := cmp.Diff(wantKeys, Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{Format: "json", Workers: 3, RedisDB: 2, SSHUser: "ops"}
	s.Clear()
	if diff := cmp.Diff(&Settings{}, s); diff != "" {
		t.Errorf("Clear() left fields set (-want +got):\n%s", diff)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.json")

	s := &Settings{Format: "json", Workers: 6, RedisAddr: "r:1", RedisDB: 4, SSHUser: "ops", AuditLog: "/a"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if diff := cmp.Diff(s, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if s.Format != "" || s.Workers != 0 {
		t.Errorf("LoadFrom() of missing file = %+v, want empty", s)
	}
}

func TestSettings_LoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"bad json", "{not json", nil},
		{"bad format", `{"format": "xml"}`, util.ErrValidationFailed},
		{"bad db", `{"redis_db": 99}`, util.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil {
				t.Fatal("LoadFrom() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("LoadFrom() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveTo_MkdirError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := (&Settings{}).SaveTo(filepath.Join(blocker, "sub", "settings.json")); err == nil {
		t.Error("SaveTo() under a regular file should fail")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := DefaultSettingsPath(); got != "/home/tester/.rgosc/settings.json" {
		t.Errorf("DefaultSettingsPath() = %q", got)
	}
	if got := DefaultAuditPath(); got != "/home/tester/.rgosc/history.log" {
		t.Errorf("DefaultAuditPath() = %q", got)
	}
}
