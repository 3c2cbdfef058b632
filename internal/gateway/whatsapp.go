// internal/gateway/whatsapp.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vcard-reminder/internal/common/logger"
)

// WhatsAppClient sends reminders through the WhatsApp relay API: a single
// JSON POST carrying the token, message, recipient and source tag.
type WhatsAppClient struct {
	apiURL     string
	apiToken   string
	httpClient *http.Client
	logger     logger.Logger
}

type whatsAppRequest struct {
	APIToken    string `json:"apiToken"`
	Message     string `json:"message"`
	PhoneNumber string `json:"phoneNumber"`
	Source      string `json:"source"`
}

type whatsAppResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

func NewWhatsAppClient(apiURL, apiToken string, timeout time.Duration, log logger.Logger) *WhatsAppClient {
	return &WhatsAppClient{
		apiURL:   apiURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithFields(map[string]interface{}{"gateway": "whatsapp"}),
	}
}

func (c *WhatsAppClient) Name() string {
	return "whatsapp"
}

func (c *WhatsAppClient) Send(ctx context.Context, phoneNumber, message, source string) (*SendResult, error) {
	payload := whatsAppRequest{
		APIToken:    c.apiToken,
		Message:     message,
		PhoneNumber: phoneNumber,
		Source:      source,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("whatsapp api returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp whatsAppResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !apiResp.Success {
		c.logger.Warn("provider rejected send", map[string]interface{}{
			"phoneNumber": phoneNumber,
			"message":     apiResp.Message,
		})
		return &SendResult{Success: false, ProviderMessage: apiResp.Message}, nil
	}

	return &SendResult{Success: true}, nil
}
