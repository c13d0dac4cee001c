// Package logging sets up the process's structured logger. It plays
// the role the teacher's debug.DropMessage filled — a lightweight,
// always-on diagnostic channel for setup, errors and session
// lifecycle events — but backed by zap, the library the rest of the
// retrieval pack (spanreed-netcode-proxy, finalex) reaches for instead
// of the teacher's bare log.Printf.
package logging

import "go.uber.org/zap"

// New builds a production logger unless debug is true, in which case
// it builds a development logger with human-readable, colorized
// output — useful when iterating against --debug-level=2.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Named returns a child logger tagged with the given stage name, so
// a stage's log lines are attributable at a glance. session_runner.go
// uses it for the rx and tx stages.
func Named(base *zap.Logger, stage string) *zap.Logger {
	return base.Named(stage)
}
