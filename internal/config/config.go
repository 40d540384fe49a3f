package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/homesweep/internal/category"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/platform"
	"github.com/fenilsonani/homesweep/internal/security"
	"github.com/fenilsonani/homesweep/pkg/utils"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Home           string              `yaml:"home,omitempty"`      // Defaults to the current user's home
	TrashDir       string              `yaml:"trash_dir,omitempty"` // Defaults per platform
	MinSize        string              `yaml:"min_size"`            // e.g. "50MB", empty for no limit
	MinAgeDays     int                 `yaml:"min_age_days"`
	CacheTTL       string              `yaml:"cache_ttl"` // Go duration, e.g. "60s"
	ExtraDenyPaths []string            `yaml:"extra_deny_paths"`
	ExternalTools  ExternalToolsConfig `yaml:"external_tools"`
	Server         ServerConfig        `yaml:"server"`
	Log            LogConfig           `yaml:"log"`
	Schedules      []ScheduleConfig    `yaml:"schedules,omitempty"`
	Notifications  NotificationConfig  `yaml:"notifications,omitempty"`
}

// ExternalToolsConfig bounds queries to package managers for cache locations
type ExternalToolsConfig struct {
	Timeout string `yaml:"timeout"`
}

// ServerConfig holds the HTTP front-end settings
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// ScheduleConfig defines a scheduled report-only scan
type ScheduleConfig struct {
	Name       string   `yaml:"name"`
	Schedule   string   `yaml:"schedule"` // Cron expression
	Categories []string `yaml:"categories"`
	MinSize    string   `yaml:"min_size,omitempty"`
	MinAgeDays int      `yaml:"min_age_days,omitempty"`
	ReportDir  string   `yaml:"report_dir,omitempty"`
	KeepDays   int      `yaml:"keep_days,omitempty"` // Prune saved reports older than this
}

// NotificationConfig posts a webhook after scheduled scans
type NotificationConfig struct {
	WebhookURL     string            `yaml:"webhook_url,omitempty"`
	Method         string            `yaml:"method,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	MinReclaimable string            `yaml:"min_reclaimable,omitempty"` // Only notify above this size
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Home != "" && !filepath.IsAbs(expandHome(c.Home)) {
		return fmt.Errorf("home must be absolute: %s", c.Home)
	}
	if c.TrashDir != "" && !filepath.IsAbs(expandHome(c.TrashDir)) {
		return fmt.Errorf("trash_dir must be absolute: %s", c.TrashDir)
	}

	if _, err := utils.ParseSize(c.MinSize); err != nil {
		return fmt.Errorf("min_size: %w", err)
	}
	if c.MinAgeDays < 0 {
		return fmt.Errorf("min_age_days must be >= 0")
	}

	if _, err := parseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("cache_ttl: %w", err)
	}
	if _, err := parseDuration(c.ExternalTools.Timeout); err != nil {
		return fmt.Errorf("external_tools.timeout: %w", err)
	}

	for _, entry := range c.ExtraDenyPaths {
		if err := security.ValidateDenyEntry(entry); err != nil {
			return fmt.Errorf("extra_deny_paths: %w", err)
		}
	}

	if c.Log.Level != "" {
		if _, ok := logger.LookupLevel(c.Log.Level); !ok {
			return fmt.Errorf("log.level must be one of debug, info, warn, error: %s", c.Log.Level)
		}
	}

	if err := c.Notifications.validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	names := make(map[string]bool)
	for i, s := range c.Schedules {
		if err := s.validate(); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		if names[s.Name] {
			return fmt.Errorf("schedules[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
	}

	return nil
}

func (s ScheduleConfig) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := cron.ParseStandard(s.Schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.Schedule, err)
	}
	// Scheduled scans, like manual ones, need an explicit selection
	if _, err := category.ParseSelection(s.Categories, nil); err != nil {
		return err
	}
	if _, err := utils.ParseSize(s.MinSize); err != nil {
		return fmt.Errorf("min_size: %w", err)
	}
	if s.MinAgeDays < 0 || s.KeepDays < 0 {
		return fmt.Errorf("min_age_days and keep_days must be >= 0")
	}
	return nil
}

func (n NotificationConfig) validate() error {
	if n.WebhookURL != "" {
		u, err := url.Parse(n.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("webhook_url must be an http(s) URL: %s", n.WebhookURL)
		}
	}
	switch strings.ToUpper(n.Method) {
	case "", "POST", "PUT":
	default:
		return fmt.Errorf("method must be POST or PUT: %s", n.Method)
	}
	if _, err := utils.ParseSize(n.MinReclaimable); err != nil {
		return fmt.Errorf("min_reclaimable: %w", err)
	}
	return nil
}

// MinReclaimableBytes returns min_reclaimable in bytes
func (n NotificationConfig) MinReclaimableBytes() int64 {
	b, _ := utils.ParseSize(n.MinReclaimable)
	return b
}

// ResolveHome returns the canonical home directory to operate on
func (c *Config) ResolveHome() (string, error) {
	if c.Home == "" {
		return platform.HomeDir()
	}
	home, err := filepath.EvalSymlinks(expandHome(c.Home))
	if err != nil {
		return "", fmt.Errorf("failed to resolve home %s: %w", c.Home, err)
	}
	return home, nil
}

// ResolveTrashDir returns the trash directory for info's platform
func (c *Config) ResolveTrashDir(info *platform.Info) string {
	if c.TrashDir != "" {
		return filepath.Clean(expandHome(c.TrashDir))
	}
	return info.TrashDir
}

// MinSizeBytes returns min_size in bytes
func (c *Config) MinSizeBytes() int64 {
	n, _ := utils.ParseSize(c.MinSize)
	return n
}

// CacheTTLDuration returns cache_ttl, or zero for the cache default
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := parseDuration(c.CacheTTL)
	return d
}

// ToolTimeout returns the external tool timeout, or zero for the default
func (c *Config) ToolTimeout() time.Duration {
	d, _ := parseDuration(c.ExternalTools.Timeout)
	return d
}

// MinSizeBytes returns the schedule's min_size in bytes
func (s ScheduleConfig) MinSizeBytes() int64 {
	n, _ := utils.ParseSize(s.MinSize)
	return n
}

// ResolveReportDir returns report_dir with ~ expanded
func (s ScheduleConfig) ResolveReportDir() string {
	if s.ReportDir == "" {
		return ""
	}
	return filepath.Clean(expandHome(s.ReportDir))
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0: %s", s)
	}
	return d, nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := platform.GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "homesweep", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
