package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"
)

// MediaClient talks to the media transcoding service.
type MediaClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMediaClient(baseURL string) *MediaClient {
	return &MediaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.AttachmentHTTPTimeout},
	}
}

// ResolveVoiceAttachment returns the playable URL and duration of a voice message.
// 202 and 404 mean the media service has not finished and yield ErrNotReady.
func (c *MediaClient) ResolveVoiceAttachment(ctx context.Context, messageID string) (models.Attachment, error) {
	req, err := newJSONRequest(ctx, http.MethodGet, c.baseURL+"/voice/"+url.PathEscape(messageID), nil)
	if err != nil {
		return models.Attachment{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Attachment{}, &TransportError{Op: "resolve voice attachment", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted, resp.StatusCode == http.StatusNotFound:
		return models.Attachment{}, ErrNotReady
	case !isSuccess(resp.StatusCode):
		return models.Attachment{}, statusError("resolve voice attachment", resp)
	}

	var att models.Attachment
	if err := json.NewDecoder(resp.Body).Decode(&att); err != nil {
		return models.Attachment{}, fmt.Errorf("decode voice attachment: %w", err)
	}
	if att.URL == "" {
		return models.Attachment{}, ErrNotReady
	}
	return att, nil
}

type deleteAttachmentsRequest struct {
	MessageIDs []string `json:"messageIds"`
}

// DeleteAttachments asks the media service to discard the media of the given messages.
func (c *MediaClient) DeleteAttachments(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/attachments/delete", deleteAttachmentsRequest{MessageIDs: messageIDs})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "delete attachments", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if !isSuccess(resp.StatusCode) {
		return statusError("delete attachments", resp)
	}
	return nil
}
