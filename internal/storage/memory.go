package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sdiabate1337/reput/internal/models"
)

// MemoryStorage keeps everything in process memory. Used for local
// development and as the test fixture.
type MemoryStorage struct {
	mu            sync.RWMutex
	tenants       map[string]*models.Tenant       // keyed by destination address
	conversations map[string]*models.Conversation // keyed by conversation id
	byCustomer    map[string]string               // tenantID|address -> conversation id
	messages      map[string][]models.Message
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tenants:       make(map[string]*models.Tenant),
		conversations: make(map[string]*models.Conversation),
		byCustomer:    make(map[string]string),
		messages:      make(map[string][]models.Message),
	}
}

// AddTenant registers a tenant under its WhatsApp number.
func (s *MemoryStorage) AddTenant(t *models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.WhatsAppNumber] = t
}

func (s *MemoryStorage) ResolveTenant(ctx context.Context, destination string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, exists := s.tenants[destination]; exists {
		copied := *t
		return &copied, nil
	}
	return nil, ErrTenantNotFound
}

func (s *MemoryStorage) ConsumeQuota(ctx context.Context, tenantID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.ID != tenantID {
			continue
		}
		if t.Plan != models.PlanEnterprise && t.QuotaUsed >= t.QuotaLimit {
			return false, nil
		}
		t.QuotaUsed++
		return true, nil
	}
	return false, ErrTenantNotFound
}

func (s *MemoryStorage) GetOrCreateConversation(ctx context.Context, tenantID, customerAddress, displayName string, provenance models.Provenance) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantID + "|" + customerAddress
	if id, exists := s.byCustomer[key]; exists {
		conv := s.conversations[id]
		if displayName != "" {
			conv.CustomerName = displayName
		}
		copied := *conv
		return &copied, nil
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CustomerAddress: customerAddress,
		CustomerName:    displayName,
		Provenance:      provenance,
		State:           models.StateInit,
		Status:          models.StatusOpen,
		AIEnabled:       true,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.conversations[conv.ID] = conv
	s.byCustomer[key] = conv.ID
	copied := *conv
	return &copied, nil
}

func (s *MemoryStorage) AppendMessage(ctx context.Context, conversationID string, role models.Role, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conversationID]; !exists {
		return ErrConversationNotFound
	}
	s.messages[conversationID] = append(s.messages[conversationID], models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Body:           body,
		CreatedAt:      time.Now(),
	})
	return nil
}

func (s *MemoryStorage) UpdateState(ctx context.Context, conversationID string, state models.ConversationState, sentiment models.Sentiment, status models.ConversationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists {
		return ErrConversationNotFound
	}
	conv.State = state
	if sentiment != models.SentimentUnknown {
		conv.Sentiment = sentiment
	}
	if status != "" {
		conv.Status = status
	}
	conv.Version++
	conv.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) UpdateAnalysis(ctx context.Context, conversationID string, sentiment models.Sentiment, status models.ConversationStatus, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists {
		return ErrConversationNotFound
	}
	if sentiment != models.SentimentUnknown {
		conv.Sentiment = sentiment
	}
	if status != "" {
		conv.Status = status
	}
	if language != "" {
		conv.Language = language
	}
	conv.Version++
	conv.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStorage) ReopenConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists {
		return ErrConversationNotFound
	}
	conv.State = models.StateInit
	conv.Sentiment = models.SentimentUnknown
	conv.Status = models.StatusOpen
	conv.Version++
	conv.UpdatedAt = time.Now()
	return nil
}

// Conversation returns a snapshot of a conversation by id. Test helper.
func (s *MemoryStorage) Conversation(conversationID string) (*models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[conversationID]
	if !exists {
		return nil, false
	}
	copied := *conv
	return &copied, true
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
