// Package logging configures structured slog output for seekr.
// Logs are JSON lines written to a size-rotated file under ~/.seekr/logs/
// and, unless the node speaks a stdio protocol, mirrored to stderr.
package logging
