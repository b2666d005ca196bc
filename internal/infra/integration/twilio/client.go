package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client sends SMS through the Twilio Messages REST API. Credentials come
// from the environment at wiring time.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	http       *http.Client
	logger     *zap.Logger
}

func NewClient(accountSID, authToken, fromNumber string, logger *zap.Logger) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    "https://api.twilio.com/2010-04-01",
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *Client) Send(ctx context.Context, phone, text string) error {
	if c.accountSID == "" || c.authToken == "" {
		return fmt.Errorf("twilio not configured")
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", c.fromNumber)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("twilio: %s (code %d)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("twilio api error: status %d", resp.StatusCode)
	}

	var result MessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("twilio response decode: %w", err)
	}

	c.logger.Debug("sms sent",
		zap.String("sid", result.SID),
		zap.String("status", result.Status))
	return nil
}
