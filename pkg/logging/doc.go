// Package logging builds the structured loggers used across mockroute.
//
// It wraps log/slog so every component logs the same way:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Info("route loaded", "method", "GET", "path", "/greet")
//	logger.Warn("route not found", "path", "/missing")
//
// Components accept a *slog.Logger through an option and fall back to Nop().
package logging
