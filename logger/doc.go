// Package logger provides structured logging for streamkit applications
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("sse-relay")
//	log.Info("relay started", logger.Fields(logger.FieldStream, "ticks"))
package logger
