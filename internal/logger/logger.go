// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
)

// New returns a sugared logger tuned for the environment: JSON output in
// production, console output with colors everywhere else.
func New(env string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
