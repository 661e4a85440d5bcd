// Package settings manages persistent user settings for the rgosc CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/newtron-network/rgosc/pkg/util"
)

// Defaults used when a setting is unset.
const (
	DefaultFormat    = "yaml"
	DefaultWorkers   = 4
	DefaultRedisAddr = "127.0.0.1:6379"
	DefaultSSHUser   = "admin"
)

// Settings holds persistent user preferences. Zero values mean "use the
// default"; read them through the getters.
type Settings struct {
	// Format is the canonical output format, yaml or json
	Format string `json:"format,omitempty"`

	// Workers bounds concurrent compilations
	Workers int `json:"workers,omitempty"`

	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`

	// SSHUser is the login for rgosc fetch
	SSHUser string `json:"ssh_user,omitempty"`

	// AuditLog is the compile history file; empty disables history.
	AuditLog string `json:"audit_log,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rgosc_settings.json"
	}
	return filepath.Join(home, ".rgosc", "settings.json")
}

// DefaultAuditPath returns the history file used when AuditLog is unset.
func DefaultAuditPath() string {
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "history.log")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields empty
// settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	vb := &util.ValidationBuilder{}
	vb.Add(s.Format == "" || s.Format == "yaml" || s.Format == "json",
		fmt.Sprintf("format must be yaml or json, got %q", s.Format))
	vb.Add(s.Workers >= 0, fmt.Sprintf("workers must not be negative, got %d", s.Workers))
	vb.Add(s.RedisDB >= 0 && s.RedisDB < 16, fmt.Sprintf("redis_db must be 0-15, got %d", s.RedisDB))
	return vb.Build()
}

// GetFormat returns the output format (with fallback)
func (s *Settings) GetFormat() string {
	if s.Format != "" {
		return s.Format
	}
	return DefaultFormat
}

// GetWorkers returns the worker count (with fallback)
func (s *Settings) GetWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return DefaultWorkers
}

// GetRedisAddr returns the Redis address (with fallback)
func (s *Settings) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	return DefaultRedisAddr
}

// GetSSHUser returns the SSH login (with fallback)
func (s *Settings) GetSSHUser() string {
	if s.SSHUser != "" {
		return s.SSHUser
	}
	return DefaultSSHUser
}

// GetAuditLog returns the history path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return DefaultAuditPath()
}

// Set assigns one setting by its JSON name.
func (s *Settings) Set(key, value string) error {
	next := *s
	switch key {
	case "format":
		next.Format = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("workers: %w", util.ErrInvalidConfig)
		}
		next.Workers = n
	case "redis_addr":
		next.RedisAddr = value
	case "redis_db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("redis_db: %w", util.ErrInvalidConfig)
		}
		next.RedisDB = n
	case "ssh_user":
		next.SSHUser = value
	case "audit_log":
		next.AuditLog = value
	default:
		return fmt.Errorf("%w (valid: %v)", util.NewNotFoundError("setting", key), Keys())
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Effective returns every setting with defaults applied, keyed by JSON name.
func (s *Settings) Effective() map[string]string {
	return map[string]string{
		"format":     s.GetFormat(),
		"workers":    strconv.Itoa(s.GetWorkers()),
		"redis_addr": s.GetRedisAddr(),
		"redis_db":   strconv.Itoa(s.RedisDB),
		"ssh_user":   s.GetSSHUser(),
		"audit_log":  s.GetAuditLog(),
	}
}

// Keys lists the settable names.
func Keys() []string {
	keys := make([]string, 0, 6)
	for k := range (&Settings{}).Effective() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
