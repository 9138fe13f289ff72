package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"harmony-chat/chat"
	"harmony-chat/config"
	"harmony-chat/engine"
	"harmony-chat/logger"
	"harmony-chat/types"
)

func main() {
	// Print version information
	fmt.Println(GetBuildInfo())
	fmt.Println()

	// Load configuration with .env support
	cfg, err := config.LoadConfigWithEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured JSON logging
	obsLogger, err := logger.NewObservabilityLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize observability logger: %v", err)
	}
	defer obsLogger.Close()

	obsLogger.Info(logger.ComponentConfig, logger.CategoryTurn, "", "harmony-chat configuration loaded", map[string]interface{}{
		"model":            cfg.Model,
		"dialect":          cfg.Dialect,
		"reasoning_effort": string(cfg.ReasoningEffort),
		"engine_endpoints": len(cfg.EngineEndpoints),
		"show_analysis":    cfg.ShowAnalysis,
		"version":          GetVersionInfo(),
	})

	// Leveled console logger shared by the run loop and the engine client
	appLog := logger.NewFromConfig(context.Background(), cfg)

	// Initialize conversation logging when enabled
	var convLogger *logger.ConversationLogger
	if cfg.ConversationLoggingEnabled {
		convLogger, err = logger.NewConversationLogger(cfg.LogDir, true)
		if err != nil {
			log.Fatalf("Failed to initialize conversation logger: %v", err)
		}
		defer convLogger.Close()
		appLog.Info("💬 Conversation logging enabled (%s)", convLogger.SessionID())
	}

	// Serve Prometheus metrics when configured
	if cfg.MetricsPort != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{
				Addr:         ":" + cfg.MetricsPort,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			appLog.Info("📊 Metrics at http://localhost:%s/metrics", cfg.MetricsPort)
			if err := server.ListenAndServe(); err != nil {
				appLog.Warn("⚠️ Metrics server stopped: %v", err)
			}
		}()
	}

	eng := engine.NewHTTPEngine(cfg, obsLogger)
	session := chat.NewSession(cfg, eng, obsLogger, convLogger)
	seedEntries(session)
	runREPL(cfg, session, appLog)
}

// runREPL reads user lines from stdin and prints replies until EOF or
// an exit command.
func runREPL(cfg *config.Config, session *chat.Session, appLog logger.Logger) {
	fmt.Printf("Model: %s (dialect: %s, reasoning: %s)\n", cfg.Model, cfg.Dialect, cfg.ReasoningEffort)
	fmt.Println("Commands: /analysis toggles reasoning display, /reset clears history, /quit exits")
	fmt.Println()

	showAnalysis := cfg.ShowAnalysis
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/reset":
			session.Reset()
			fmt.Println("🔄 History cleared")
			continue
		case "/analysis":
			showAnalysis = !showAnalysis
			fmt.Printf("🔍 Analysis display: %v\n", showAnalysis)
			continue
		}

		reply, err := session.Ask(context.Background(), line)
		if err != nil {
			appLog.Error("❌ %v", err)
			continue
		}

		if showAnalysis {
			for _, analysis := range reply.Analysis {
				fmt.Printf("🤔 %s\n", strings.TrimSpace(analysis))
			}
		}
		for _, call := range reply.ToolCalls {
			fmt.Printf("🔧 Tool requested: %s (id=%s)\n", call.Name, call.ID)
		}
		fmt.Println(reply.Text)
		fmt.Println()
	}
}

// Seed entries for a fresh session come from the environment so shell
// wrappers can set a persona without editing .env.
func seedEntries(session *chat.Session) {
	if identity := os.Getenv("SYSTEM_PROMPT"); identity != "" {
		session.Append(types.NewSystemEntry(identity))
	}
	if instructions := os.Getenv("DEVELOPER_PROMPT"); instructions != "" {
		session.Append(types.NewDeveloperEntry(instructions))
	}
}
