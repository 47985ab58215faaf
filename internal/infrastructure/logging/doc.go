// Package logging provides structured logging for NeuroAIR Core.
//
// It wraps log/slog with the service defaults used across the binary:
// JSON, text or coloured console output, level filtering, and service/version attributes
// on every entry.
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text, console (coloured, for terminals)
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	ctrl.SetLogger(logger.Component("device"))
//	logger.Info("dispatch handled", "stage", "command")
//
// *Logger satisfies the small Logger interfaces declared by the domain
// packages (device, dispatch, speech, platform, api).
//
// Never log secrets, tokens or passwords.
package logging
