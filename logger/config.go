package logger

import (
	"context"

	"harmony-chat/config"
)

// ConfigAdapter adapts config.Config to implement LoggerConfig
type ConfigAdapter struct {
	config *config.Config
}

// NewConfigAdapter creates a new ConfigAdapter
func NewConfigAdapter(cfg *config.Config) LoggerConfig {
	return &ConfigAdapter{config: cfg}
}

// GetMinLogLevel returns the minimum log level. Conversation logging
// pulls the threshold down to DEBUG so full turns are visible.
func (c *ConfigAdapter) GetMinLogLevel() Level {
	if c.config.ConversationLoggingEnabled {
		return DEBUG
	}
	return INFO
}

// ShouldMaskAPIKeys returns whether API keys should be masked in logs
func (c *ConfigAdapter) ShouldMaskAPIKeys() bool {
	return true
}

// NewFromConfig creates a new logger using the existing config
func NewFromConfig(ctx context.Context, cfg *config.Config) Logger {
	return New(ctx, NewConfigAdapter(cfg))
}

// ContextLoggerFromConfig creates a logger and stores it in context for easy access
func ContextLoggerFromConfig(ctx context.Context, cfg *config.Config) (context.Context, Logger) {
	logger := NewFromConfig(ctx, cfg)
	newCtx := context.WithValue(ctx, loggerContextKey, logger)
	return newCtx, logger
}
