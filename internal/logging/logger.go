// Package logging builds the service's structured loggers.
package logging

import (
	"go.uber.org/zap"
)

// NewLogger creates a production logger tagged with the service name.
func NewLogger(serviceName string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}
	return config.Build()
}

// NewDevelopment creates a human-readable logger for CLI commands.
func NewDevelopment() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// WithRequestID returns a logger with a request_id field.
func WithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}
