package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/chat"
	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"
)

// Client calls the conversation service's internal routes.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, internalToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      internalToken,
		httpClient: &http.Client{Timeout: config.UpstreamTimeout},
	}
}

func (c *Client) SendMessage(ctx context.Context, cmd models.SendMessageCommand) (models.SendResult, error) {
	var res models.SendResult
	err := c.do(ctx, http.MethodPost, "/internal/commands/send-message", cmd, &res)
	return res, err
}

func (c *Client) ReadMessage(ctx context.Context, cmd models.ReadMessageCommand) error {
	return c.do(ctx, http.MethodPost, "/internal/commands/read-message", cmd, nil)
}

func (c *Client) RemoveMessages(ctx context.Context, cmd models.RemoveMessagesCommand) ([]string, error) {
	var res struct {
		Removed []string `json:"removed"`
	}
	err := c.do(ctx, http.MethodPost, "/internal/commands/remove-messages", cmd, &res)
	return res.Removed, err
}

func (c *Client) MessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	var view models.MessageView
	err := c.do(ctx, http.MethodGet, "/internal/messages/"+url.PathEscape(messageID), nil, &view)
	return view, err
}

func (c *Client) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var res struct {
		Participant bool `json:"participant"`
	}
	path := fmt.Sprintf("/internal/chats/%s/participants/%s", url.PathEscape(chatID), url.PathEscape(userID))
	err := c.do(ctx, http.MethodGet, path, nil, &res)
	return res.Participant, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(auth.InternalTokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", chat.ErrTransientUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", chat.ErrInternal, err)
	}
	return nil
}

// decodeError maps a status code back to the service error it was produced from.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = chat.ErrValidation
	case http.StatusForbidden, http.StatusUnauthorized:
		sentinel = chat.ErrForbidden
	case http.StatusNotFound:
		sentinel = chat.ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		sentinel = chat.ErrTransientUpstream
	default:
		sentinel = chat.ErrInternal
	}
	return &RemoteError{StatusCode: resp.StatusCode, Message: body.Error, sentinel: sentinel}
}

// RemoteError is a failed call to the conversation service. errors.Is matches the chat sentinel.
type RemoteError struct {
	StatusCode int
	Message    string
	sentinel   error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.sentinel
}
