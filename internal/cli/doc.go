// Package cli provides worker discovery and command building for the
// agent worker process.
//
// # Worker Discovery
//
// The Discoverer interface locates the worker executable:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    Command: "uv",
//	    Logger:  slog.Default(),
//	})
//	path, err := discoverer.Discover(ctx)
//
// A command containing a path separator is used as-is and must exist.
// A bare name is searched in the system PATH and then in common user
// installation directories (~/.local/bin, ~/.cargo/bin, /usr/local/bin,
// /opt/homebrew/bin).
//
// # Command Building
//
// The package derives the invocation from the configured build mode and
// builds the worker environment:
//
//	name, args := cli.Invocation(options)
//	env := cli.BuildEnvironment(log, options)
package cli
