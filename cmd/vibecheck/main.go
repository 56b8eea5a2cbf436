package main

import (
	"os"

	"github.com/zballl/vibecheck-app/internal/cmd"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-10-14"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version info for commands to access
	cmd.SetVersionInfo(version, commit, buildDate)

	// Set version info for HTTP handlers
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		code := cmd.ExitCodeFor(err)
		if cmd.IsQuiet(err) {
			// Already rendered to the user
			os.Exit(int(code))
		}
		if logger := observability.Logger(); logger != nil {
			cmd.ExitWithCode(logger, code, "Command execution failed", err)
		}
		cmd.ExitWithCodeStderr(code, "Command execution failed", err)
	}
}
