package memory

import (
	"context"
	"time"

	"github.com/asrat/dietbuddy-intake/internal/collector"
	"github.com/asrat/dietbuddy-intake/internal/schema"
)

// Message represents a single message in a conversation
type Message struct {
	Role      string    `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // The actual message text
	Timestamp time.Time `json:"timestamp"` // When the message was sent
}

// IntakeState is the per-session conversation state the orchestrator drives.
// At most one of AwaitingSlot / Collector determines the next expected input.
type IntakeState struct {
	Phase                string            `json:"phase"`
	IntentLock           string            `json:"intent_lock,omitempty"`
	AwaitingSlot         string            `json:"awaiting_slot,omitempty"`
	AwaitingQuestion     string            `json:"awaiting_question,omitempty"`
	RetryCount           int               `json:"retry_count,omitempty"`
	LastQuery            string            `json:"last_query,omitempty"`
	MealPlanDays         int               `json:"meal_plan_days,omitempty"`
	PendingMedications   []string          `json:"pending_medications,omitempty"`
	MealPlanConsent      bool              `json:"meal_plan_consent,omitempty"`
	Profile              *schema.Profile   `json:"profile,omitempty"`
	Collector            *collector.Linear `json:"collector,omitempty"`
	GracefulDegradeAsked bool              `json:"graceful_degrade_asked,omitempty"`
}

// SessionData represents all data for a conversation session
type SessionData struct {
	SessionID string       `json:"session_id"`
	UserID    string       `json:"user_id"`
	Messages  []Message    `json:"messages"`
	State     *IntakeState `json:"state,omitempty"`
	Metadata  Metadata     `json:"metadata"`
}

// Metadata contains session information
type Metadata struct {
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// NewSessionData builds an empty session record.
func NewSessionData(sessionID string) *SessionData {
	now := time.Now()
	return &SessionData{
		SessionID: sessionID,
		Messages:  []Message{},
		State:     &IntakeState{Profile: schema.NewProfile()},
		Metadata:  Metadata{StartedAt: now, LastActivity: now},
	}
}

// Store defines the interface for conversation storage
// This allows us to swap between Redis, in-memory, etc.
type Store interface {
	// LoadSession loads a session from storage; a missing session yields a
	// fresh empty record, not an error
	LoadSession(ctx context.Context, sessionID string) (*SessionData, error)

	// SaveSession persists the full session record, state included
	SaveSession(ctx context.Context, session *SessionData) error

	// SaveMessage appends a message to a session
	SaveMessage(ctx context.Context, sessionID, userID string, msg Message) error

	// ClearSession removes a session from storage
	ClearSession(ctx context.Context, sessionID string) error

	// SessionExists checks if a session exists
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	// UpdateActivity updates the last activity timestamp
	UpdateActivity(ctx context.Context, sessionID string) error
}
