// Package content is the client for the content system that owns user
// accounts and campaign reportback submissions.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sms_chatbot_backend/platform/config"
	"sms_chatbot_backend/platform/logger"
)

// ErrUserNotFound is returned when no account matches the queried mobile.
var ErrUserNotFound = errors.New("content user not found")

// ErrRejected is returned when the content system refuses a reportback
// submission (the response body's first element is false). Rejections are
// terminal; retrying the same payload will not succeed.
var ErrRejected = errors.New("reportback submission rejected")

// User is a content-system account.
type User struct {
	ID     string `json:"id"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

// Reportback is the payload submitted when a conversation completes.
type Reportback struct {
	UID          string `json:"uid"`
	Caption      string `json:"caption"`
	Quantity     string `json:"quantity"`
	WhyImportant string `json:"why_participated"`
	FileURL      string `json:"file_url"`
	Source       string `json:"source"`
}

// Client talks to the content system's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	source     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a content API client from configuration.
func NewClient(cfg config.ContentAPIConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetContentAPIBaseURL(), "/"),
		apiKey:  cfg.GetContentAPIKey(),
		source:  cfg.GetRegistrationSource(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// Source returns the registration source stamped on created accounts and
// submissions.
func (c *Client) Source() string { return c.source }

// UserGet looks up an account by mobile number. Returns ErrUserNotFound when
// the content system has no matching account.
func (c *Client) UserGet(ctx context.Context, mobile string) (*User, error) {
	endpoint := c.baseURL + "/users?mobile=" + url.QueryEscape(mobile)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("user lookup", resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// UserCreate registers a new account for the given mobile. The content
// system requires an email, so a placeholder derived from the mobile is used.
func (c *Client) UserCreate(ctx context.Context, mobile string) (*User, error) {
	payload := map[string]string{
		"mobile": mobile,
		"email":  mobile + "@mobile",
		"source": c.source,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError("user create", resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode created user: %w", err)
	}
	if user.ID == "" {
		return nil, errors.New("user create returned no id")
	}
	return &user, nil
}

// SubmitReportback posts a completed reportback to the campaign's endpoint.
// The response body is a JSON array; a first element of false means the
// submission was rejected (ErrRejected). Otherwise the first element is the
// submission id.
func (c *Client) SubmitReportback(ctx context.Context, campaignID int64, rb *Reportback) (string, error) {
	body, err := json.Marshal(rb)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/campaigns/%d/reportback", c.baseURL, campaignID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit reportback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("submit reportback", resp)
	}

	var result []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode reportback response: %w", err)
	}
	if len(result) == 0 {
		return "", errors.New("empty reportback response")
	}

	var rejected bool
	if err := json.Unmarshal(result[0], &rejected); err == nil && !rejected {
		return "", ErrRejected
	}

	var submissionID string
	if err := json.Unmarshal(result[0], &submissionID); err != nil {
		// Some deployments return a numeric id.
		var numeric json.Number
		if err := json.Unmarshal(result[0], &numeric); err != nil {
			return "", fmt.Errorf("unexpected reportback response element: %s", string(result[0]))
		}
		submissionID = numeric.String()
	}
	return submissionID, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(body))
}
