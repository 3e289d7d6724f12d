package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the process logger: JSON output at info level in
// prod, console output at debug level everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
