package category

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/homesweep/internal/platform"
)

// Root is a directory scanned for one category
type Root struct {
	Path   string
	Reason string
}

// ToolRunner runs an external command and returns its trimmed stdout
type ToolRunner func(ctx context.Context, name string, args ...string) (string, error)

// toolQuery asks a package manager where its cache lives
type toolQuery struct {
	name   string
	args   []string
	reason string
}

// Registry resolves categories to roots for one home directory
type Registry struct {
	info        *platform.Info
	runTool     ToolRunner
	toolTimeout time.Duration
}

// Option configures a Registry
type Option func(*Registry)

// WithToolRunner replaces the external command runner
func WithToolRunner(run ToolRunner) Option {
	return func(r *Registry) { r.runTool = run }
}

// WithToolTimeout bounds each external cache-location query
func WithToolTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.toolTimeout = d
		}
	}
}

// NewRegistry creates a Registry for the platform layout in info
func NewRegistry(info *platform.Info, opts ...Option) *Registry {
	r := &Registry{
		info:        info,
		runTool:     execTool,
		toolTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Home returns the home directory the registry resolves against
func (r *Registry) Home() string {
	return r.info.HomeDir
}

// Resolve returns the roots of c: fixed roots first, then roots reported by
// external tools. Failed tool queries are skipped. Roots are not checked for
// existence.
func (r *Registry) Resolve(ctx context.Context, c Category) []Root {
	var roots []Root
	seen := make(map[string]bool)
	add := func(path, reason string) {
		if path == "" || !filepath.IsAbs(path) {
			return
		}
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true
		roots = append(roots, Root{Path: path, Reason: reason})
	}

	for _, root := range r.fixedRoots(c) {
		add(root.Path, root.Reason)
	}

	for _, q := range r.toolQueries(c) {
		if ctx.Err() != nil {
			break
		}
		add(r.queryTool(ctx, q), q.reason)
	}

	return roots
}

func (r *Registry) queryTool(ctx context.Context, q toolQuery) string {
	ctx, cancel := context.WithTimeout(ctx, r.toolTimeout)
	defer cancel()

	out, err := r.runTool(ctx, q.name, q.args...)
	if err != nil {
		return ""
	}
	// Some tools print extra lines; the location is the first one
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line)
}

func (r *Registry) fixedRoots(c Category) []Root {
	home := r.info.HomeDir
	join := func(rel string) string { return filepath.Join(home, filepath.FromSlash(rel)) }
	mac := r.info.OS == platform.MacOS

	switch c {
	case UserCaches:
		return []Root{{r.info.CacheDir, "Application cache, rebuilt on demand"}}

	case Browsers:
		if mac {
			return []Root{
				{join("Library/Caches/Google/Chrome"), "Chrome cache"},
				{join("Library/Caches/Firefox"), "Firefox cache"},
				{join("Library/Caches/com.apple.Safari"), "Safari cache"},
				{join("Library/Caches/Microsoft Edge"), "Edge cache"},
				{join("Library/Caches/BraveSoftware"), "Brave cache"},
			}
		}
		return []Root{
			{join(".cache/google-chrome"), "Chrome cache"},
			{join(".cache/chromium"), "Chromium cache"},
			{join(".cache/mozilla/firefox"), "Firefox cache"},
			{join(".cache/microsoft-edge"), "Edge cache"},
			{join(".cache/BraveSoftware"), "Brave cache"},
		}

	case Dev:
		roots := []Root{
			{join(".gradle/caches"), "Gradle build cache"},
			{join(".cargo/registry/cache"), "Cargo crate archives"},
		}
		if mac {
			return append([]Root{
				{join("Library/Developer/Xcode/DerivedData"), "Xcode derived data, rebuilt on next build"},
				{join("Library/Developer/CoreSimulator/Caches"), "iOS Simulator caches"},
				{join("Library/Caches/go-build"), "Go build cache"},
			}, roots...)
		}
		return append([]Root{{join(".cache/go-build"), "Go build cache"}}, roots...)

	case Pkg:
		roots := []Root{
			{join(".npm/_cacache"), "npm package cache"},
			{join(".pnpm-store"), "pnpm content store"},
			{join(".m2/repository"), "Maven local repository"},
			{join(".gem/cache"), "RubyGems cache"},
			{join(".composer/cache"), "Composer cache"},
		}
		if mac {
			return append([]Root{
				{join("Library/Caches/Homebrew"), "Homebrew downloads"},
				{join("Library/Caches/pip"), "pip wheel cache"},
				{join("Library/Caches/Yarn"), "Yarn cache"},
				{join("Library/Caches/CocoaPods"), "CocoaPods cache"},
			}, roots...)
		}
		return append([]Root{
			{join(".cache/pip"), "pip wheel cache"},
			{join(".cache/yarn"), "Yarn cache"},
		}, roots...)

	case Downloads:
		return []Root{{join("Downloads"), "Downloaded file, review before removing"}}

	case Deep:
		if mac {
			return []Root{
				{join("Library/Containers"), "Sandboxed app container data"},
				{join("Library/Developer/CoreSimulator/Devices"), "iOS Simulator device data"},
				{join("Library/Developer/Xcode/Archives"), "Xcode archive"},
				{r.info.LogDir, "Application log"},
			}
		}
		return []Root{
			{join(".var/app"), "Flatpak app data"},
			{r.info.LogDir, "Application state and logs"},
		}

	default:
		// Docker is reserved and has no roots
		return nil
	}
}

func (r *Registry) toolQueries(c Category) []toolQuery {
	switch c {
	case Dev:
		return []toolQuery{{"go", []string{"env", "GOCACHE"}, "Go build cache"}}
	case Pkg:
		return []toolQuery{
			{"brew", []string{"--cache"}, "Homebrew downloads"},
			{"npm", []string{"config", "get", "cache"}, "npm package cache"},
			{"yarn", []string{"cache", "dir"}, "Yarn cache"},
			{"pip", []string{"cache", "dir"}, "pip wheel cache"},
		}
	default:
		return nil
	}
}

func execTool(ctx context.Context, name string, args ...string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
