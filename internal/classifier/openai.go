package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Sdiabate1337/reput/internal/models"
)

type gptAnalysis struct {
	Sentiment  string `json:"sentiment"`
	Language   string `json:"language"`
	IsCritical bool   `json:"is_critical"`
	Reply      string `json:"reply"`
}

type OpenAIClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewOpenAIClassifier(apiKey string, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

const analyzePrompt = `You are the feedback assistant of "%s", a local business collecting
post-visit customer feedback over chat. Analyze the conversation and answer
in the customer's language.

Return a JSON object with this structure:
{
    "sentiment": "POSITIVE" | "NEUTRAL" | "NEGATIVE" | "CRITICAL",
    "language": "ISO 639-1 code of the customer's language",
    "is_critical": true when the customer reports something requiring the
                   owner's immediate attention (hygiene, safety, staff
                   misconduct, threats of public complaint),
    "reply": "a short, warm reply to the customer's last message"
}

Conversation:
%s`

func (c *OpenAIClassifier) Analyze(ctx context.Context, history []models.Message, tenant *models.Tenant) (*Analysis, error) {
	var transcript strings.Builder
	for _, m := range history {
		transcript.WriteString(string(m.Role))
		transcript.WriteString(": ")
		transcript.WriteString(m.Body)
		transcript.WriteString("\n")
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(analyzePrompt, tenant.Name, transcript.String()),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var parsed gptAnalysis
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		c.logger.Error("Failed to parse analysis response",
			zap.Error(err),
			zap.String("response", response))
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}

	return &Analysis{
		Sentiment:  parseSentiment(parsed.Sentiment),
		Language:   strings.ToLower(parsed.Language),
		IsCritical: parsed.IsCritical,
		Reply:      parsed.Reply,
	}, nil
}

const ackPrompt = `Write one short sentence, in the customer's language, thanking %s for
their feedback to "%s" and acknowledging what they said. Their feedback was
%s. Do not promise anything. Feedback: %q`

func (c *OpenAIClassifier) GenerateAck(ctx context.Context, text, customerName, tenantName string, sentiment models.Sentiment) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(ackPrompt, customerName, tenantName, strings.ToLower(string(sentiment)), text),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate acknowledgment: %w", err)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func parseSentiment(s string) models.Sentiment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POSITIVE":
		return models.SentimentPositive
	case "NEUTRAL":
		return models.SentimentNeutral
	case "NEGATIVE":
		return models.SentimentNegative
	case "CRITICAL":
		return models.SentimentCritical
	default:
		return models.SentimentUnknown
	}
}
