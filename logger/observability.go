package logger

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ObservabilityLogger provides structured JSON logging using logrus
// so chat sessions can be inspected and shipped to a log aggregator.
type ObservabilityLogger struct {
	logger *logrus.Logger
	file   *os.File
}

// Component constants for consistent labeling
const (
	ComponentSession   = "session"
	ComponentGenerator = "generator"
	ComponentParser    = "parser"
	ComponentEngine    = "engine"
	ComponentConfig    = "configuration"
)

// Category constants for log classification
const (
	CategoryTurn       = "turn"
	CategoryGeneration = "generation"
	CategoryParsing    = "parsing"
	CategorySuccess    = "success"
	CategoryWarning    = "warning"
	CategoryError      = "error"
	CategoryHealth     = "health"
	CategoryFailover   = "failover"
	CategoryDebug      = "debug"
)

// NewObservabilityLogger creates a new structured logger writing JSON
// lines under logDir.
func NewObservabilityLogger(logDir string) (*ObservabilityLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(logDir, "harmony-chat.jsonl")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetLevel(logrus.InfoLevel)

	// Add service field to all logs
	logger = logger.WithField("service", "harmony-chat").Logger

	return &ObservabilityLogger{
		logger: logger,
		file:   file,
	}, nil
}

// Close closes the log file
func (o *ObservabilityLogger) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

// createEntry creates a logrus entry with standard fields
func (o *ObservabilityLogger) createEntry(component, category, turnID string, fields map[string]interface{}) *logrus.Entry {
	entry := o.logger.WithFields(logrus.Fields{
		"component": component,
		"category":  category,
	})

	if turnID != "" {
		entry = entry.WithField("turn_id", turnID)
	}

	if fields != nil {
		entry = entry.WithFields(fields)
	}

	return entry
}

// Debug logs a debug message
func (o *ObservabilityLogger) Debug(component, category, turnID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, turnID, fields).Debug(message)
}

// Info logs an info message
func (o *ObservabilityLogger) Info(component, category, turnID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, turnID, fields).Info(message)
}

// Warn logs a warning message
func (o *ObservabilityLogger) Warn(component, category, turnID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, turnID, fields).Warn(message)
}

// Error logs an error message
func (o *ObservabilityLogger) Error(component, category, turnID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, turnID, fields).Error(message)
}

// Turn logs a completed conversation turn
func (o *ObservabilityLogger) Turn(turnID, message string, fields map[string]interface{}) {
	o.Info(ComponentSession, CategoryTurn, turnID, message, fields)
}

// ReplyFallback logs the raw-text fallback taken when no final-channel
// segment was present in the model output
func (o *ObservabilityLogger) ReplyFallback(turnID string, rawLen int) {
	o.Warn(ComponentParser, CategoryParsing, turnID, "No final-channel segment, using raw text as reply", map[string]interface{}{
		"raw_length": rawLen,
	})
}

// EngineFailover logs an endpoint failover event
func (o *ObservabilityLogger) EngineFailover(turnID, endpoint string, err error) {
	o.Warn(ComponentEngine, CategoryFailover, turnID, "Engine endpoint failed, rotating", map[string]interface{}{
		"endpoint": endpoint,
		"error":    err.Error(),
	})
}
