package config

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		MinSize:        "",
		MinAgeDays:     0,
		CacheTTL:       "60s",
		ExtraDenyPaths: []string{},
		ExternalTools: ExternalToolsConfig{
			Timeout: "5s",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# homesweep configuration
# Location: ~/.config/homesweep/config.yaml

# Home directory to operate on. Nothing outside it is ever scanned or removed.
# home: "~"

# Where trash mode moves items. Defaults to ~/.Trash on macOS and
# ~/.local/share/homesweep/trash elsewhere.
# trash_dir: "~/.Trash"

# Default scan filters, inclusive lower bounds. Empty or 0 means no limit.
min_size: ""       # e.g. "50MB"
min_age_days: 0    # e.g. 30

# How long a scan report is reused for identical requests
cache_ttl: "60s"

# Extra subtrees (relative to home) that must never be scanned or removed.
# Pictures, Desktop, Documents, Library/Mail and Library/Mobile Documents are
# always protected.
extra_deny_paths:
  # - "Projects/keep"

# Timeout for asking brew, npm, go, yarn and pip where their caches live
external_tools:
  timeout: "5s"

# HTTP front-end (homesweep serve)
server:
  listen: "127.0.0.1:8787"
  # static_dir: "/path/to/web/ui"

log:
  level: "info"    # debug, info, warn, error
  # file: "~/.local/state/homesweep/homesweep.log"

# Scheduled report-only scans, run by homesweep serve. They never remove anything.
# schedules:
#   - name: "weekly-caches"
#     schedule: "0 9 * * 1"           # Cron expression
#     categories: ["user-caches", "pkg", "dev"]
#     min_size: "10MB"
#     min_age_days: 30
#     report_dir: "~/.local/state/homesweep/reports"
#     keep_days: 60

# Webhook posted after each scheduled scan
# notifications:
#   webhook_url: "https://hooks.example.com/homesweep"
#   method: "POST"
#   headers:
#     Authorization: "Bearer ..."
#   min_reclaimable: "1GB"        # Stay quiet below this
`
}
