package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sdiabate1337/reput/internal/models"
)

func testTenant() *models.Tenant {
	return &models.Tenant{
		ID:             "tenant-1",
		Name:           "Chez Fatou",
		Plan:           models.PlanStartup,
		QuotaLimit:     2,
		WhatsAppNumber: "whatsapp:+33100000000",
	}
}

func TestMemoryStorage_ResolveTenant(t *testing.T) {
	s := NewMemoryStorage()
	s.AddTenant(testTenant())
	ctx := context.Background()

	tn, err := s.ResolveTenant(ctx, "whatsapp:+33100000000")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", tn.ID)

	_, err = s.ResolveTenant(ctx, "whatsapp:+999")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestMemoryStorage_GetOrCreateIsStablePerPair(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	first, err := s.GetOrCreateConversation(ctx, "tenant-1", "whatsapp:+336", "Awa", models.ProvenanceScan)
	require.NoError(t, err)
	assert.Equal(t, models.StateInit, first.State)
	assert.Equal(t, models.StatusOpen, first.Status)
	assert.Equal(t, "Awa", first.CustomerName)
	assert.True(t, first.AIEnabled)

	again, err := s.GetOrCreateConversation(ctx, "tenant-1", "whatsapp:+336", "", models.ProvenanceDirect)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Awa", again.CustomerName, "empty display name must not erase the stored one")

	other, err := s.GetOrCreateConversation(ctx, "tenant-2", "whatsapp:+336", "", models.ProvenanceDirect)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestMemoryStorage_AppendMessageKeepsOrder(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	conv, err := s.GetOrCreateConversation(ctx, "tenant-1", "whatsapp:+336", "", models.ProvenanceDirect)
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(ctx, conv.ID, models.RoleCustomer, "un"))
	require.NoError(t, s.AppendMessage(ctx, conv.ID, models.RoleAssistant, "deux"))
	require.NoError(t, s.AppendMessage(ctx, conv.ID, models.RoleCustomer, "trois"))

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "un", msgs[0].Body)
	assert.Equal(t, "deux", msgs[1].Body)
	assert.Equal(t, "trois", msgs[2].Body)

	assert.ErrorIs(t, s.AppendMessage(ctx, "missing", models.RoleCustomer, "x"), ErrConversationNotFound)
}

func TestMemoryStorage_UpdateStateAndAnalysis(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	conv, err := s.GetOrCreateConversation(ctx, "tenant-1", "whatsapp:+336", "", models.ProvenanceDirect)
	require.NoError(t, err)

	require.NoError(t, s.UpdateState(ctx, conv.ID, models.StateFeedbackPending, models.SentimentNegative, models.StatusNeedsAttention))
	got, ok := s.Conversation(conv.ID)
	require.True(t, ok)
	assert.Equal(t, models.StateFeedbackPending, got.State)
	assert.Equal(t, models.SentimentNegative, got.Sentiment)
	assert.Equal(t, models.StatusNeedsAttention, got.Status)
	assert.Greater(t, got.Version, conv.Version)

	// Empty hints leave fields untouched.
	require.NoError(t, s.UpdateState(ctx, conv.ID, models.StateResolved, models.SentimentUnknown, ""))
	got, _ = s.Conversation(conv.ID)
	assert.Equal(t, models.SentimentNegative, got.Sentiment)
	assert.Equal(t, models.StatusNeedsAttention, got.Status)

	require.NoError(t, s.UpdateAnalysis(ctx, conv.ID, models.SentimentCritical, models.StatusNeedsAttention, "fr"))
	got, _ = s.Conversation(conv.ID)
	assert.Equal(t, models.SentimentCritical, got.Sentiment)
	assert.Equal(t, "fr", got.Language)
}

func TestMemoryStorage_ConsumeQuota(t *testing.T) {
	s := NewMemoryStorage()
	s.AddTenant(testTenant())
	ctx := context.Background()

	ok, err := s.ConsumeQuota(ctx, "tenant-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.ConsumeQuota(ctx, "tenant-1")
	assert.True(t, ok)

	// Cap reached.
	ok, err = s.ConsumeQuota(ctx, "tenant-1")
	require.NoError(t, err)
	assert.False(t, ok)

	tn, err := s.ResolveTenant(ctx, "whatsapp:+33100000000")
	require.NoError(t, err)
	assert.Equal(t, 2, tn.QuotaUsed)
}

func TestMemoryStorage_ConsumeQuota_EnterpriseUnbounded(t *testing.T) {
	s := NewMemoryStorage()
	tn := testTenant()
	tn.Plan = models.PlanEnterprise
	tn.QuotaLimit = 0
	s.AddTenant(tn)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := s.ConsumeQuota(ctx, "tenant-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestMemoryStorage_ReopenConversation(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	conv, err := s.GetOrCreateConversation(ctx, "tenant-1", "whatsapp:+336", "", models.ProvenanceDirect)
	require.NoError(t, err)
	require.NoError(t, s.UpdateState(ctx, conv.ID, models.StateClosed, models.SentimentNegative, models.StatusClosed))

	require.NoError(t, s.ReopenConversation(ctx, conv.ID))
	got, ok := s.Conversation(conv.ID)
	require.True(t, ok)
	assert.Equal(t, models.StateInit, got.State)
	assert.Equal(t, models.SentimentUnknown, got.Sentiment)
	assert.Equal(t, models.StatusOpen, got.Status)
}
