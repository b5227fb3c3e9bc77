package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

// Manager orchestrates conversation memory using the Store + LangChainGo
type Manager struct {
	store         Store
	mu            sync.Mutex
	sessions      map[string]*memory.ConversationBuffer // In-memory cache
	defaultUserID string
}

// NewManager creates a new memory manager
func NewManager(store Store) *Manager {
	return &Manager{
		store:         store,
		sessions:      make(map[string]*memory.ConversationBuffer),
		defaultUserID: "default_user",
	}
}

// GetOrCreateBuffer gets or creates a LangChainGo memory buffer for a session
func (m *Manager) GetOrCreateBuffer(ctx context.Context, sessionID string) (*memory.ConversationBuffer, error) {
	m.mu.Lock()
	if mem, exists := m.sessions[sessionID]; exists {
		m.mu.Unlock()
		return mem, nil
	}
	m.mu.Unlock()

	mem := memory.NewConversationBuffer()

	sessionData, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	for _, msg := range sessionData.Messages {
		var chatMsg llms.ChatMessage

		switch msg.Role {
		case "user":
			chatMsg = llms.HumanChatMessage{Content: msg.Content}
		case "assistant":
			chatMsg = llms.AIChatMessage{Content: msg.Content}
		case "system":
			chatMsg = llms.SystemChatMessage{Content: msg.Content}
		default:
			log.Printf("⚠️ Unknown message role: %s, skipping", msg.Role)
			continue
		}

		if err := mem.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("failed to add message to memory: %w", err)
		}
	}

	m.mu.Lock()
	m.sessions[sessionID] = mem
	m.mu.Unlock()

	log.Printf("📚 Loaded session %s with %d messages", sessionID, len(sessionData.Messages))

	return mem, nil
}

// SaveUserMessage saves a user message to both the store and LangChainGo memory
func (m *Manager) SaveUserMessage(ctx context.Context, sessionID, userID, message string) error {
	mem, err := m.GetOrCreateBuffer(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := mem.ChatHistory.AddUserMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to add user message to memory: %w", err)
	}

	msg := Message{Role: "user", Content: message, Timestamp: time.Now()}
	if err := m.store.SaveMessage(ctx, sessionID, userID, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// SaveAssistantMessage saves an assistant message to both the store and LangChainGo memory
func (m *Manager) SaveAssistantMessage(ctx context.Context, sessionID, userID, message string) error {
	mem, err := m.GetOrCreateBuffer(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := mem.ChatHistory.AddAIMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to add AI message to memory: %w", err)
	}

	msg := Message{Role: "assistant", Content: message, Timestamp: time.Now()}
	if err := m.store.SaveMessage(ctx, sessionID, userID, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// LoadState returns the persisted intake state for a session, creating an
// empty one for new sessions.
func (m *Manager) LoadState(ctx context.Context, sessionID string) (*SessionData, error) {
	session, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State == nil {
		session.State = NewSessionData(sessionID).State
	}
	if session.State.Profile == nil {
		session.State.Profile = NewSessionData(sessionID).State.Profile
	}
	return session, nil
}

// SaveState persists the session record including its intake state.
func (m *Manager) SaveState(ctx context.Context, session *SessionData) error {
	return m.store.SaveSession(ctx, session)
}

// GetFormattedHistory returns conversation history as a formatted string
// used for building prompts.
func (m *Manager) GetFormattedHistory(ctx context.Context, sessionID string) (string, error) {
	mem, err := m.GetOrCreateBuffer(ctx, sessionID)
	if err != nil {
		return "", err
	}

	messages, err := mem.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}

	if len(messages) == 0 {
		return "No previous conversation.", nil
	}

	var formatted string
	for _, msg := range messages {
		switch v := msg.(type) {
		case llms.HumanChatMessage:
			formatted += fmt.Sprintf("User: %s\n", v.Content)
		case llms.AIChatMessage:
			formatted += fmt.Sprintf("Assistant: %s\n", v.Content)
		case llms.SystemChatMessage:
			formatted += fmt.Sprintf("System: %s\n", v.Content)
		}
	}

	return formatted, nil
}

// ClearSession clears a session from both cache and the store
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if err := m.store.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	log.Printf("🗑️ Cleared session %s", sessionID)

	return nil
}

// SessionExists checks if a session exists in the store
func (m *Manager) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return m.store.SessionExists(ctx, sessionID)
}

// UpdateActivity updates the last activity timestamp
func (m *Manager) UpdateActivity(ctx context.Context, sessionID string) error {
	return m.store.UpdateActivity(ctx, sessionID)
}

// GetActiveSessionCount returns the number of cached sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes the underlying store
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
