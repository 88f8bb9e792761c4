package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Dispatcher sends outbound messages through the messaging provider.
type Dispatcher interface {
	// SendTemplate sends a provider-registered message template. Used
	// for the first outbound message of a thread, which the provider
	// only accepts as a template.
	SendTemplate(ctx context.Context, to, templateID string, variables map[string]string) error

	// SendFreeform sends plain text inside an open messaging session.
	SendFreeform(ctx context.Context, to, body string) error
}

// ProviderClient talks to the provider's REST API (Twilio-style
// form-encoded POSTs with basic auth).
type ProviderClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewProviderClient(baseURL, accountSID, authToken, from string, logger *zap.Logger) *ProviderClient {
	return &ProviderClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *ProviderClient) SendTemplate(ctx context.Context, to, templateID string, variables map[string]string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("ContentSid", templateID)
	if len(variables) > 0 {
		vars, err := json.Marshal(variables)
		if err != nil {
			return fmt.Errorf("failed to encode template variables: %w", err)
		}
		form.Set("ContentVariables", string(vars))
	}
	return c.post(ctx, form)
}

func (c *ProviderClient) SendFreeform(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)
	return c.post(ctx, form)
}

func (c *ProviderClient) post(ctx context.Context, form url.Values) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Provider rejected outbound message",
			zap.Int("status", resp.StatusCode),
			zap.String("to", form.Get("To")),
			zap.ByteString("detail", detail))
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return nil
}
