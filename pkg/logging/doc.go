// Package logging provides the process-wide structured logger: subsystem-
// tagged Debug/Info/Warn/Error calls over log/slog, plus an Audit helper
// for credential-adjacent events that must never carry raw secret values.
package logging
