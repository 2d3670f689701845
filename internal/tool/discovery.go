package tool

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/wagiedev/agent-runner-go/internal/errors"
)

// ProbeTimeout caps the auxiliary invocations used for availability and
// version checks. Probes never block longer than this.
const ProbeTimeout = 2 * time.Second

var versionRe = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// Config holds configuration for tool discovery.
type Config struct {
	// Name is the executable name searched for in PATH and common
	// locations. Required.
	Name string

	// Path is an explicit binary path that skips the search.
	Path string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the wrapped tool binary and probes its version.
type Discoverer interface {
	// Discover locates the tool binary. Returns the path to the binary
	// or a ToolNotFoundError.
	Discover(ctx context.Context) (string, error)

	// Version invokes the tool with --version under ProbeTimeout and
	// returns the parsed semantic version.
	Version(ctx context.Context) (string, error)
}

type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new tool discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "tool_discovery"),
	}
}

// Discover locates the tool binary.
func (d *discoverer) Discover(_ context.Context) (string, error) {
	// If explicit path provided, use it and only it
	if d.cfg.Path != "" {
		d.log.Debug("Using explicit tool path", "path", d.cfg.Path)

		if _, err := os.Stat(d.cfg.Path); err == nil {
			return d.cfg.Path, nil
		}

		return "", &errors.ToolNotFoundError{
			Tool:          d.cfg.Name,
			SearchedPaths: []string{d.cfg.Path},
		}
	}

	searchedPaths := make([]string, 0, 4)

	d.log.Debug("Searching for tool in PATH", "tool", d.cfg.Name)

	if path, err := exec.LookPath(d.cfg.Name); err == nil {
		d.log.Debug("Found tool in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	commonPaths := []string{
		filepath.Join("/usr/local/bin", d.cfg.Name),
		filepath.Join("/usr/bin", d.cfg.Name),
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".local/bin", d.cfg.Name))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if _, err := os.Stat(path); err == nil {
			d.log.Debug("Found tool at common path", "path", path)

			return path, nil
		}
	}

	d.log.Warn("Tool not found in any searched paths", "tool", d.cfg.Name, "searched_paths", searchedPaths)

	return "", &errors.ToolNotFoundError{
		Tool:          d.cfg.Name,
		SearchedPaths: searchedPaths,
	}
}

// Version invokes the tool with --version and parses a semantic version out
// of its output.
func (d *discoverer) Version(ctx context.Context) (string, error) {
	path, err := d.Discover(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")

	output, err := cmd.Output()
	if err != nil {
		d.log.Debug("Version probe failed", "error", err)

		return "", &errors.SpawnError{Executable: path, Err: err}
	}

	versionStr := strings.TrimSpace(string(output))

	match := versionRe.FindStringSubmatch(versionStr)
	if match == nil {
		// Fall back to the raw output when it does not look like semver.
		return versionStr, nil
	}

	return match[1], nil
}
