// Package logger provides a structured logging interface for pdharvest.
//
// It wraps zerolog behind a small Logger interface so components can be
// handed a logger (or a TestLogger in tests) instead of reaching for a
// global:
//
//	log := logger.GetLogger().WithField("component", "authenticator")
//	log.InfoWithFields("login submitted", map[string]interface{}{
//	    "status": 200,
//	})
//
// Console output goes to stderr; when LoggingConfig.File is set, records are
// also appended to that file.
package logger
