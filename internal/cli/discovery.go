package cli

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/agentbridge-go/internal/errors"
)

// Config holds configuration for worker discovery.
type Config struct {
	// Command is the executable name or path to locate.
	Command string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the worker executable.
type Discoverer interface {
	// Discover returns the absolute path to the worker executable or an error.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new worker discoverer with the given configuration.
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
		log: log,
	}
}

// Discover locates the worker executable.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.log.Debug("Discovering worker executable", "command", d.cfg.Command)

	path, err := d.find()
	if err != nil {
		d.log.Error("Failed to find worker executable", "error", err)

		return "", err
	}

	d.log.Debug("Found worker executable", "path", path)

	return path, nil
}

func (d *discoverer) find() (string, error) {
	command := d.cfg.Command
	if command == "" {
		return "", &errors.WorkerNotFoundError{SearchedPaths: []string{}}
	}

	// Paths are used as given and only checked for existence.
	if strings.ContainsRune(command, os.PathSeparator) || strings.ContainsRune(command, '/') {
		if _, err := os.Stat(command); err == nil {
			return command, nil
		}

		d.log.Debug("Explicit worker path not found", "path", command)

		return "", &errors.WorkerNotFoundError{SearchedPaths: []string{command}}
	}

	searchedPaths := make([]string, 0, 5)

	d.log.Debug("Searching for worker in PATH", "command", command)

	if path, err := exec.LookPath(command); err == nil {
		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	for _, dir := range commonDirs() {
		path := filepath.Join(dir, command)
		searchedPaths = append(searchedPaths, path)

		d.log.Debug("Checking common path", "path", path)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	d.log.Warn("Worker executable not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.WorkerNotFoundError{SearchedPaths: searchedPaths}
}

// commonDirs lists installation directories that GUI-launched processes
// often miss from PATH.
func commonDirs() []string {
	dirs := make([]string, 0, 4)

	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(homeDir, ".local", "bin"),
			filepath.Join(homeDir, ".cargo", "bin"),
		)
	}

	return append(dirs, "/usr/local/bin", "/opt/homebrew/bin")
}
