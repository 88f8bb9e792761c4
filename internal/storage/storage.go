package storage

import (
	"context"
	"errors"

	"github.com/Sdiabate1337/reput/internal/models"
)

// ErrTenantNotFound is returned when no tenant owns the destination
// address of an inbound event.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrConversationNotFound is returned for operations on an unknown
// conversation id.
var ErrConversationNotFound = errors.New("conversation not found")

type Store interface {
	// ResolveTenant maps a destination address (the tenant's WhatsApp
	// number) to its tenant record.
	ResolveTenant(ctx context.Context, destination string) (*models.Tenant, error)

	// ConsumeQuota atomically increments the tenant's outbound counter.
	// It returns false without incrementing when the cap is reached;
	// enterprise tenants are never capped.
	ConsumeQuota(ctx context.Context, tenantID string) (bool, error)

	Close() error

	ConversationStore
}

type ConversationStore interface {
	// GetOrCreateConversation returns the active conversation for the
	// (tenant, customer address) pair, creating it in INIT on first
	// contact. The display name is recorded on creation and refreshed
	// when the provider supplies a non-empty one.
	GetOrCreateConversation(ctx context.Context, tenantID, customerAddress, displayName string, provenance models.Provenance) (*models.Conversation, error)

	// AppendMessage appends one entry to the conversation's message log.
	// The log is append-only: no edits, no deletions.
	AppendMessage(ctx context.Context, conversationID string, role models.Role, body string) error

	// UpdateState persists a transition: the new state plus the
	// remembered sentiment and status hints that travel with it.
	UpdateState(ctx context.Context, conversationID string, state models.ConversationState, sentiment models.Sentiment, status models.ConversationStatus) error

	// UpdateAnalysis persists classifier output for a conversation.
	UpdateAnalysis(ctx context.Context, conversationID string, sentiment models.Sentiment, status models.ConversationStatus, language string) error

	// ListMessages returns the full message log in append order.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)

	// ReopenConversation resets a closed conversation to INIT. This is
	// an explicit external action, never a spontaneous transition.
	ReopenConversation(ctx context.Context, conversationID string) error
}
