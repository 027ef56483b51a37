// Package logger sets up the structured JSON logger used across the service
// and carries request-scoped loggers through context.Context.
package logger
