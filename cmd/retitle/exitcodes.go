package main

// Exit codes reported by the CLI.
const (
	ExitSuccess     = 0 // Run completed; per-file failures do not change this
	ExitError       = 1 // Fatal error or cancelled run
	ExitConfigError = 2 // Configuration error (bad flag or config value)
)
