package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailgenie/internal/model"
	"mailgenie/pkg/metrics"
)

const (
	defaultBaseURL  = "https://gmail.googleapis.com/gmail/v1"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	// maxListResults bounds a single listing call; the overlap window on
	// the next pass picks up anything beyond it.
	maxListResults = 25
)

// Gmail system labels used by the action helpers.
const (
	labelStarred = "STARRED"
	labelUnread  = "UNREAD"
	labelInbox   = "INBOX"
)

// Client talks to the Gmail REST API for one request at a time; it holds
// no per-account state, credentials are passed per call.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	logger       *zap.Logger
}

type Option func(*Client)

// WithBaseURL overrides the API endpoints, used by tests.
func WithBaseURL(apiURL, tokenURL string) Option {
	return func(c *Client) {
		c.baseURL = apiURL
		c.tokenURL = tokenURL
	}
}

func NewClient(clientID, clientSecret string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, creds model.Credentials, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gmail api %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gmail api decode: %w", err)
		}
	}
	return nil
}

type messageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type listMessagesResponse struct {
	Messages []messageRef `json:"messages"`
}

// ListMessageIDsSince lists message ids received after the given time,
// using Gmail's second-granularity "after:" search operator.
func (c *Client) ListMessageIDsSince(ctx context.Context, creds model.Credentials, since time.Time) ([]string, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("q", fmt.Sprintf("after:%d", since.Unix()))
	q.Set("maxResults", fmt.Sprintf("%d", maxListResults))

	var resp listMessagesResponse
	err := c.doJSON(ctx, creds, http.MethodGet, "/users/me/messages?"+q.Encode(), nil, &resp)
	if err != nil {
		metrics.RecordGmailCallLatency("list", "error", time.Since(start))
		return nil, err
	}
	metrics.RecordGmailCallLatency("list", "success", time.Since(start))

	ids := make([]string, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// FetchMessage retrieves one message in full format and parses it.
func (c *Client) FetchMessage(ctx context.Context, creds model.Credentials, messageID string) (model.Email, error) {
	start := time.Now()

	var msg rawMessage
	err := c.doJSON(ctx, creds, http.MethodGet, "/users/me/messages/"+messageID+"?format=full", nil, &msg)
	if err != nil {
		metrics.RecordGmailCallLatency("get", "error", time.Since(start))
		return model.Email{}, err
	}
	metrics.RecordGmailCallLatency("get", "success", time.Since(start))

	return parseMessage(&msg), nil
}

type modifyRequest struct {
	AddLabelIDs    []string `json:"addLabelIds"`
	RemoveLabelIDs []string `json:"removeLabelIds"`
}

// ModifyLabels adds and removes label ids on a message. Re-applying the
// same modification is a no-op on Gmail's side, which is what makes the
// downstream actions safely repeatable.
func (c *Client) ModifyLabels(ctx context.Context, creds model.Credentials, messageID string, add, remove []string) error {
	if add == nil {
		add = []string{}
	}
	if remove == nil {
		remove = []string{}
	}

	start := time.Now()
	err := c.doJSON(ctx, creds, http.MethodPost, "/users/me/messages/"+messageID+"/modify",
		modifyRequest{AddLabelIDs: add, RemoveLabelIDs: remove}, nil)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordGmailCallLatency("modify", status, time.Since(start))
	return err
}

// MarkImportant stars the message.
func (c *Client) MarkImportant(ctx context.Context, creds model.Credentials, messageID string) error {
	return c.ModifyLabels(ctx, creds, messageID, []string{labelStarred}, nil)
}

// ArchiveMessage removes the message from the inbox.
func (c *Client) ArchiveMessage(ctx context.Context, creds model.Credentials, messageID string) error {
	return c.ModifyLabels(ctx, creds, messageID, nil, []string{labelInbox})
}

// MarkReadAndMoveToLabel marks the message read and applies the labels
// without archiving, keeping it searchable.
func (c *Client) MarkReadAndMoveToLabel(ctx context.Context, creds model.Credentials, messageID string, labelIDs []string) error {
	return c.ModifyLabels(ctx, creds, messageID, labelIDs, []string{labelUnread})
}

// ApplyLabels adds the labels without touching read state.
func (c *Client) ApplyLabels(ctx context.Context, creds model.Credentials, messageID string, labelIDs []string) error {
	return c.ModifyLabels(ctx, creds, messageID, labelIDs, nil)
}

type gmailLabel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listLabelsResponse struct {
	Labels []gmailLabel `json:"labels"`
}

type createLabelRequest struct {
	Name                  string `json:"name"`
	LabelListVisibility   string `json:"labelListVisibility"`
	MessageListVisibility string `json:"messageListVisibility"`
}

// GetOrCreateLabel resolves a label name to its id, creating the label if
// it does not exist yet.
func (c *Client) GetOrCreateLabel(ctx context.Context, creds model.Credentials, name string) (string, error) {
	var existing listLabelsResponse
	if err := c.doJSON(ctx, creds, http.MethodGet, "/users/me/labels", nil, &existing); err != nil {
		return "", err
	}
	for _, label := range existing.Labels {
		if label.Name == name {
			return label.ID, nil
		}
	}

	var created gmailLabel
	err := c.doJSON(ctx, creds, http.MethodPost, "/users/me/labels", createLabelRequest{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}, &created)
	if err != nil {
		// Concurrent creation of the same name: re-list and take the
		// winner instead of failing the message.
		if strings.Contains(err.Error(), "status 409") {
			if relisted, lerr := c.listLabels(ctx, creds); lerr == nil {
				for _, label := range relisted {
					if label.Name == name {
						return label.ID, nil
					}
				}
			}
		}
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	return created.ID, nil
}

func (c *Client) listLabels(ctx context.Context, creds model.Credentials) ([]gmailLabel, error) {
	var resp listLabelsResponse
	if err := c.doJSON(ctx, creds, http.MethodGet, "/users/me/labels", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshCredentials exchanges a refresh token for a fresh access token at
// Google's token endpoint.
func (c *Client) RefreshCredentials(ctx context.Context, refreshToken string) (model.Credentials, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return model.Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Credentials{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Credentials{}, fmt.Errorf("token refresh: status %d: %s", resp.StatusCode, snippet)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return model.Credentials{}, fmt.Errorf("token refresh decode: %w", err)
	}
	if tok.AccessToken == "" {
		return model.Credentials{}, fmt.Errorf("token refresh: empty access token")
	}

	creds := model.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken, // may be empty, caller keeps the old one
	}
	if tok.ExpiresIn > 0 {
		creds.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return creds, nil
}
