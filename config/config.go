// Package config loads harmony-chat settings from a .env file plus an
// optional identity_overrides.yaml, and tracks inference endpoint
// health for failover.
package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"harmony-chat/types"
)

// EndpointHealth tracks the health status of an inference endpoint.
type EndpointHealth struct {
	URL             string    `json:"url"`
	FailureCount    int       `json:"failure_count"`
	LastFailureTime time.Time `json:"last_failure_time"`
	CircuitOpen     bool      `json:"circuit_open"`
	NextRetryTime   time.Time `json:"next_retry_time"`
}

// CircuitBreakerConfig controls circuit breaker behavior.
type CircuitBreakerConfig struct {
	FailureThreshold   int           `json:"failure_threshold"`    // Number of failures before opening circuit
	BackoffDuration    time.Duration `json:"backoff_duration"`     // How long to wait before retrying failed endpoint
	MaxBackoffDuration time.Duration `json:"max_backoff_duration"` // Maximum backoff time
	ResetTimeout       time.Duration `json:"reset_timeout"`        // Time to reset failure count after success
}

// DefaultCircuitBreakerConfig returns sensible defaults for the circuit breaker.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:   2,
		BackoffDuration:    30 * time.Second,
		MaxBackoffDuration: 5 * time.Minute,
		ResetTimeout:       1 * time.Minute,
	}
}

// Config represents the harmony-chat configuration - all settings from .env
type Config struct {
	// Model and prompt dialect
	Model           string                `json:"model"`
	Dialect         string                `json:"dialect"`          // "harmony" or "plain"
	ReasoningEffort types.ReasoningEffort `json:"reasoning_effort"` // low/medium/high
	MaxTokens       int                   `json:"max_tokens"`

	// Whether analysis-channel segments are printed alongside replies
	ShowAnalysis bool `json:"show_analysis"`

	// Engine endpoint configuration - supports multiple endpoints
	EngineEndpoints []string `json:"engine_endpoints"`
	EngineAPIKey    string   `json:"engine_api_key"`

	// Metrics endpoint; empty disables the /metrics listener
	MetricsPort string `json:"metrics_port"`

	// Conversation logging settings
	ConversationLoggingEnabled bool   `json:"conversation_logging_enabled"`
	LogDir                     string `json:"log_dir"`

	// Identity overrides (loaded from identity_overrides.yaml)
	IdentityOverrides IdentityOverrides `json:"identity_overrides"`

	// Endpoint rotation state (not serialized)
	engineIndex int        `json:"-"`
	mutex       sync.Mutex `json:"-"`

	// Circuit breaker configuration and health tracking
	CircuitBreaker    CircuitBreakerConfig       `json:"circuit_breaker"`
	EndpointHealthMap map[string]*EndpointHealth `json:"-"`
	healthMutex       sync.RWMutex               `json:"-"`
}

// GetDefaultConfig returns a default configuration for testing
func GetDefaultConfig() *Config {
	return &Config{
		Model:                      "gpt-oss-20b",
		Dialect:                    "harmony",
		ReasoningEffort:            types.EffortMedium,
		MaxTokens:                  2048,
		ShowAnalysis:               false,
		EngineEndpoints:            []string{},
		MetricsPort:                "",
		ConversationLoggingEnabled: false,
		LogDir:                     "logs",
		IdentityOverrides:          IdentityOverrides{},
		CircuitBreaker:             DefaultCircuitBreakerConfig(),
	}
}

// LoadConfigWithEnv loads configuration from the .env file in the
// current directory. ENGINE_ENDPOINT and MODEL are required; everything
// else has a default.
func LoadConfigWithEnv() (*Config, error) {
	envVars, err := loadEnvFile()
	if err != nil {
		return nil, fmt.Errorf(".env file is required for configuration: %v", err)
	}

	cfg := GetDefaultConfig()

	if model, exists := envVars["MODEL"]; exists && model != "" {
		cfg.Model = model
		log.Printf("🔧 Configured MODEL: %s", model)
	} else {
		return nil, fmt.Errorf("MODEL must be set in .env file")
	}

	// Parse ENGINE_ENDPOINT (comma-separated list)
	if engineEndpoints, exists := envVars["ENGINE_ENDPOINT"]; exists && engineEndpoints != "" {
		cfg.EngineEndpoints = splitCommaList(engineEndpoints)
		log.Printf("🔧 Configured ENGINE_ENDPOINT: %v (%d endpoints)", cfg.EngineEndpoints, len(cfg.EngineEndpoints))
	} else {
		return nil, fmt.Errorf("ENGINE_ENDPOINT must be set in .env file")
	}

	if apiKey, exists := envVars["ENGINE_API_KEY"]; exists && apiKey != "" {
		cfg.EngineAPIKey = apiKey
		log.Printf("🔧 Configured ENGINE_API_KEY: %s", maskAPIKey(apiKey))
	}

	// Parse DIALECT (optional, defaults to harmony)
	if dialect, exists := envVars["DIALECT"]; exists && dialect != "" {
		switch strings.ToLower(dialect) {
		case "harmony", "plain":
			cfg.Dialect = strings.ToLower(dialect)
			log.Printf("🔧 Configured DIALECT: %s", cfg.Dialect)
		default:
			log.Printf("⚠️  Warning: Invalid DIALECT '%s', using default 'harmony'", dialect)
		}
	}

	// Parse REASONING_EFFORT (optional, defaults to medium)
	if effort, exists := envVars["REASONING_EFFORT"]; exists && effort != "" {
		cfg.ReasoningEffort = types.ParseReasoningEffort(effort)
		log.Printf("🔧 Configured REASONING_EFFORT: %s", cfg.ReasoningEffort)
	}

	// Parse MAX_TOKENS (optional)
	if maxTokens, exists := envVars["MAX_TOKENS"]; exists && maxTokens != "" {
		var n int
		if _, err := fmt.Sscanf(maxTokens, "%d", &n); err == nil && n > 0 {
			cfg.MaxTokens = n
			log.Printf("🔧 Configured MAX_TOKENS: %d", n)
		} else {
			log.Printf("⚠️  Warning: Invalid MAX_TOKENS '%s', using default %d", maxTokens, cfg.MaxTokens)
		}
	}

	// Parse SHOW_ANALYSIS (optional, defaults to false)
	if showAnalysis, exists := envVars["SHOW_ANALYSIS"]; exists {
		if showAnalysis == "true" || showAnalysis == "1" {
			cfg.ShowAnalysis = true
			log.Printf("🔍 Configured SHOW_ANALYSIS: enabled")
		} else {
			cfg.ShowAnalysis = false
			log.Printf("🔍 Configured SHOW_ANALYSIS: disabled")
		}
	}

	// Parse METRICS_PORT (optional, disabled when unset)
	if metricsPort, exists := envVars["METRICS_PORT"]; exists && metricsPort != "" {
		cfg.MetricsPort = metricsPort
		log.Printf("📊 Configured METRICS_PORT: %s", metricsPort)
	}

	// Parse CONVERSATION_LOGGING_ENABLED (optional, defaults to false)
	if conversationLogging, exists := envVars["CONVERSATION_LOGGING_ENABLED"]; exists {
		if conversationLogging == "true" || conversationLogging == "1" {
			cfg.ConversationLoggingEnabled = true
			log.Printf("💬 Configured CONVERSATION_LOGGING_ENABLED: enabled")
		} else {
			cfg.ConversationLoggingEnabled = false
			log.Printf("💬 Configured CONVERSATION_LOGGING_ENABLED: disabled")
		}
	}

	// Parse LOG_DIR (optional, defaults to logs)
	if logDir, exists := envVars["LOG_DIR"]; exists && logDir != "" {
		cfg.LogDir = logDir
		log.Printf("🔧 Configured LOG_DIR: %s", logDir)
	}

	// Load identity overrides from YAML file
	identityOverrides, err := LoadIdentityOverrides()
	if err != nil {
		log.Printf("⚠️  Warning: Failed to load identity overrides from identity_overrides.yaml: %v", err)
		// Continue with empty overrides instead of failing
	} else {
		cfg.IdentityOverrides = identityOverrides
	}

	// Initialize circuit breaker health tracking
	cfg.InitializeEndpointHealthMap()

	return cfg, nil
}

// splitCommaList splits a comma-separated env value, trimming entries
// and dropping empty ones.
func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			filtered = append(filtered, part)
		}
	}
	return filtered
}

// maskAPIKey masks an API key for safe logging
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
}

// loadEnvFile loads environment variables from .env file in current directory
func loadEnvFile() (map[string]string, error) {
	envVars := make(map[string]string)

	file, err := os.Open(".env")
	if err != nil {
		return envVars, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE format
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove comments from value
		if commentIndex := strings.Index(value, "#"); commentIndex != -1 {
			value = strings.TrimSpace(value[:commentIndex])
		}

		envVars[key] = value
	}

	return envVars, scanner.Err()
}

// GetEngineEndpoint returns the next engine endpoint with round-robin rotation
func (c *Config) GetEngineEndpoint() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.EngineEndpoints) == 0 {
		return ""
	}

	endpoint := c.EngineEndpoints[c.engineIndex]
	c.engineIndex = (c.engineIndex + 1) % len(c.EngineEndpoints)
	return endpoint
}

// GetHealthyEngineEndpoint returns the next engine endpoint whose
// circuit is closed, falling back to plain rotation when every circuit
// is open.
func (c *Config) GetHealthyEngineEndpoint() string {
	c.mutex.Lock()

	if len(c.EngineEndpoints) == 0 {
		c.mutex.Unlock()
		return ""
	}

	startIndex := c.engineIndex
	for i := 0; i < len(c.EngineEndpoints); i++ {
		endpoint := c.EngineEndpoints[c.engineIndex]
		c.engineIndex = (c.engineIndex + 1) % len(c.EngineEndpoints)

		if c.IsEndpointHealthy(endpoint) {
			c.mutex.Unlock()
			return endpoint
		}

		if c.engineIndex == startIndex {
			break
		}
	}
	c.mutex.Unlock()

	// All endpoints unhealthy; degrade to plain rotation as a last resort
	return c.GetEngineEndpoint()
}

// InitializeEndpointHealthMap initializes health tracking for all endpoints
func (c *Config) InitializeEndpointHealthMap() {
	c.healthMutex.Lock()
	defer c.healthMutex.Unlock()

	if c.EndpointHealthMap == nil {
		c.EndpointHealthMap = make(map[string]*EndpointHealth)
	}

	for _, endpoint := range c.EngineEndpoints {
		if _, exists := c.EndpointHealthMap[endpoint]; !exists {
			c.EndpointHealthMap[endpoint] = &EndpointHealth{
				URL:          endpoint,
				FailureCount: 0,
				CircuitOpen:  false,
			}
		}
	}
}

// IsEndpointHealthy checks if an endpoint is available (circuit closed)
func (c *Config) IsEndpointHealthy(endpoint string) bool {
	c.healthMutex.RLock()
	defer c.healthMutex.RUnlock()

	health, exists := c.EndpointHealthMap[endpoint]
	if !exists {
		return true // Unknown endpoints are assumed healthy
	}

	// If circuit is open, check if it's time to retry
	if health.CircuitOpen {
		return time.Now().After(health.NextRetryTime)
	}

	return true
}

// RecordEndpointFailure marks an endpoint as failed and potentially opens its circuit
func (c *Config) RecordEndpointFailure(endpoint string) {
	c.healthMutex.Lock()
	defer c.healthMutex.Unlock()

	health, exists := c.EndpointHealthMap[endpoint]
	if !exists {
		health = &EndpointHealth{URL: endpoint}
		c.EndpointHealthMap[endpoint] = health
	}

	health.FailureCount++
	health.LastFailureTime = time.Now()

	// Open circuit if failure threshold exceeded
	if health.FailureCount >= c.CircuitBreaker.FailureThreshold {
		health.CircuitOpen = true

		// Exponential backoff capped at max; hitting the threshold means
		// at least 1x backoff
		failuresOverThreshold := health.FailureCount - c.CircuitBreaker.FailureThreshold + 1
		if failuresOverThreshold < 1 {
			failuresOverThreshold = 1
		}
		backoff := time.Duration(int64(c.CircuitBreaker.BackoffDuration) * int64(failuresOverThreshold))
		if backoff > c.CircuitBreaker.MaxBackoffDuration {
			backoff = c.CircuitBreaker.MaxBackoffDuration
		}

		health.NextRetryTime = time.Now().Add(backoff)

		log.Printf("🚨 Circuit breaker opened for endpoint %s (failures: %d, retry in: %v)",
			endpoint, health.FailureCount, backoff)
	} else {
		log.Printf("⚠️ Endpoint failure recorded: %s (failures: %d/%d)",
			endpoint, health.FailureCount, c.CircuitBreaker.FailureThreshold)
	}
}

// RecordEndpointSuccess marks an endpoint as successful and potentially closes its circuit
func (c *Config) RecordEndpointSuccess(endpoint string) {
	c.healthMutex.Lock()
	defer c.healthMutex.Unlock()

	health, exists := c.EndpointHealthMap[endpoint]
	if !exists {
		health = &EndpointHealth{URL: endpoint}
		c.EndpointHealthMap[endpoint] = health
	}

	if health.CircuitOpen {
		health.CircuitOpen = false
		health.FailureCount = 0
		health.NextRetryTime = time.Time{}
		log.Printf("✅ Circuit breaker closed for endpoint %s (recovered)", endpoint)
	} else if health.FailureCount > 0 {
		health.FailureCount = 0
		log.Printf("✅ Endpoint recovered: %s (failure count reset)", endpoint)
	}
}
