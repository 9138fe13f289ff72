package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ConversationLogger records full conversation turns to a per-session
// log file so prompt and parse behavior can be replayed offline.
type ConversationLogger struct {
	sessionID     string
	logFile       *os.File
	mu            sync.Mutex
	enabled       bool
	maskSensitive bool
}

// turnRecord is the JSON shape of one logged event.
type turnRecord struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	TurnID    string `json:"turn_id"`
	Event     string `json:"event"`
	Role      string `json:"role,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Content   string `json:"content,omitempty"`
	Extra     any    `json:"extra,omitempty"`
}

// NewConversationLogger creates a conversation logger writing to a
// session-stamped file under logDir. A nil receiver is safe: every
// method no-ops, so callers don't have to branch on the config flag.
func NewConversationLogger(logDir string, maskSensitive bool) (*ConversationLogger, error) {
	sessionID := generateSessionID()
	filename := fmt.Sprintf("conversation-%s-%s.log", sessionID, time.Now().Format("20060102-150405"))

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFile, err := os.Create(filepath.Join(logDir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %v", err)
	}

	return &ConversationLogger{
		sessionID:     sessionID,
		logFile:       logFile,
		enabled:       true,
		maskSensitive: maskSensitive,
	}, nil
}

// generateSessionID produces a short, sortable session identifier.
func generateSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().UnixNano()%100000)
}

// SessionID returns the identifier embedded in every record.
func (cl *ConversationLogger) SessionID() string {
	if cl == nil {
		return ""
	}
	return cl.sessionID
}

// LogTurnEvent writes one event record for the given turn.
func (cl *ConversationLogger) LogTurnEvent(turnID, event, role, channel, content string, extra any) {
	if cl == nil || !cl.enabled {
		return
	}

	if cl.maskSensitive {
		content = maskSecrets(content)
	}

	record := turnRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: cl.sessionID,
		TurnID:    turnID,
		Event:     event,
		Role:      role,
		Channel:   channel,
		Content:   content,
		Extra:     extra,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.logFile.Write(append(data, '\n'))
}

// LogUserInput records the user's turn.
func (cl *ConversationLogger) LogUserInput(turnID, content string) {
	cl.LogTurnEvent(turnID, "user_input", "user", "", content, nil)
}

// LogAnalysis records an analysis-channel segment from the model.
func (cl *ConversationLogger) LogAnalysis(turnID, content string) {
	cl.LogTurnEvent(turnID, "analysis", "assistant", "analysis", content, nil)
}

// LogReply records the selected user-facing reply.
func (cl *ConversationLogger) LogReply(turnID, content string, fallback bool) {
	cl.LogTurnEvent(turnID, "reply", "assistant", "final", content, map[string]bool{"fallback": fallback})
}

// LogToolCall records a tool invocation extracted from commentary.
func (cl *ConversationLogger) LogToolCall(turnID, name, id string) {
	cl.LogTurnEvent(turnID, "tool_call", "assistant", "commentary", "", map[string]string{"name": name, "id": id})
}

// Close closes the session log file.
func (cl *ConversationLogger) Close() error {
	if cl == nil || cl.logFile == nil {
		return nil
	}
	return cl.logFile.Close()
}
