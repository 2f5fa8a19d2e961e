package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dmgo/backend/internal/models"
)

// UsersClient talks to the user-profile service.
type UsersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

type profilesRequest struct {
	UserIDs []string `json:"userIds"`
}

type profilesResponse struct {
	Profiles []models.UserProfile `json:"profiles"`
}

// GetUserProfiles returns the profiles the service knows for userIDs. Unknown ids are absent.
func (c *UsersClient) GetUserProfiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error) {
	if len(userIDs) == 0 {
		return []models.UserProfile{}, nil
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/profiles/batch", profilesRequest{UserIDs: userIDs})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "get user profiles", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError("get user profiles", resp)
	}

	var out profilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode user profiles: %w", err)
	}
	if out.Profiles == nil {
		out.Profiles = []models.UserProfile{}
	}
	return out.Profiles, nil
}

// GetUserProfile returns a single profile, or ErrUserNotFound.
func (c *UsersClient) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profiles, err := c.GetUserProfiles(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].UserID == userID {
			return &profiles[i], nil
		}
	}
	return nil, ErrUserNotFound
}
