package transcriber

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Transcriber turns a voice note media reference into text.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL string) (string, error)
}

// WhisperTranscriber downloads the media from the provider and runs it
// through the OpenAI transcription API.
type WhisperTranscriber struct {
	client     *openai.Client
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWhisperTranscriber(apiKey, model string, logger *zap.Logger) *WhisperTranscriber {
	return &WhisperTranscriber{
		client:     openai.NewClient(apiKey),
		model:      model,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, mediaURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build media request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download media: status %d", resp.StatusCode)
	}

	transcription, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   resp.Body,
		FilePath: "voice-note.ogg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe media: %w", err)
	}

	t.logger.Debug("Transcribed voice note",
		zap.String("media_url", mediaURL),
		zap.Int("chars", len(transcription.Text)))
	return transcription.Text, nil
}
