package classifier

import (
	"context"

	"github.com/Sdiabate1337/reput/internal/models"
)

// Analysis is the structured result of analyzing a conversation.
type Analysis struct {
	Sentiment  models.Sentiment `json:"sentiment"`
	Language   string           `json:"language"`
	IsCritical bool             `json:"is_critical"`
	Reply      string           `json:"reply"`
}

type Classifier interface {
	// Analyze reads the message history and returns sentiment, detected
	// language, a critical flag and a suggested reply.
	Analyze(ctx context.Context, history []models.Message, tenant *models.Tenant) (*Analysis, error)

	// GenerateAck produces a short acknowledgment for a customer's
	// feedback elaboration.
	GenerateAck(ctx context.Context, text, customerName, tenantName string, sentiment models.Sentiment) (string, error)
}
