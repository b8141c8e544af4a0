// Package gateway is the client for the mobile messaging gateway. Outbound
// chatbot messages are delivered by moving a subscriber onto an opt-in path;
// the path id selects which message the gateway sends.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sms_chatbot_backend/platform/config"
	"sms_chatbot_backend/platform/logger"
)

// Client talks to the gateway's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetGatewayBaseURL(), "/"),
		apiKey:  cfg.GetGatewayAPIKey(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// SendMessage triggers an outbound message by updating the subscriber's
// profile onto the given opt-in path. Custom fields ride along on the same
// call and become available for message templating on the gateway side.
func (c *Client) SendMessage(ctx context.Context, phone string, optInPathID int64, customFields map[string]string) error {
	form := url.Values{}
	form.Set("phone_number", phone)
	form.Set("opt_in_path_id", strconv.FormatInt(optInPathID, 10))
	for key, value := range customFields {
		form.Set(key, value)
	}

	if err := c.postForm(ctx, "/profile_update", form); err != nil {
		return fmt.Errorf("profile update for opt-in path %d: %w", optInPathID, err)
	}
	return nil
}

// OptOut removes the subscriber from the given gateway campaign, stopping
// further messages from it.
func (c *Client) OptOut(ctx context.Context, phone string, campaignID int64) error {
	form := url.Values{}
	form.Set("phone_number", phone)
	form.Set("campaign_id", strconv.FormatInt(campaignID, 10))

	if err := c.postForm(ctx, "/opt_out", form); err != nil {
		return fmt.Errorf("opt out of campaign %d: %w", campaignID, err)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
