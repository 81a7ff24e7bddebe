// Package pkg provides shared utilities for the gd32vf103 peripheral
// access layer.
//
// This package contains common functionality used across the peripheral
// drivers, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for driver errors
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentUSBFS, "device enabled", "speed", "full")
//
// # Errors
//
// Common driver errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrEndpointOverflow) {
//	    // No free endpoint slot for this direction
//	}
package pkg
