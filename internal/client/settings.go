package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultSettingsTimeout = 15 * time.Second

// SettingsClient fetches remote wallet settings
type SettingsClient struct {
	url    string
	client *http.Client
}

// NewSettingsClient creates a new settings client. A zero timeout uses the default.
func NewSettingsClient(url string, timeout time.Duration) *SettingsClient {
	if timeout <= 0 {
		timeout = defaultSettingsTimeout
	}
	return &SettingsClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SettingsResponse response from the settings endpoint
type SettingsResponse struct {
	RequiresV4Upgrade bool `json:"requires_v4_upgrade"`
}

// RequiresV4Upgrade fetches the remote v4 upgrade flag
func (c *SettingsClient) RequiresV4Upgrade(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build settings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to get settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("failed to get settings: status %d", resp.StatusCode)
	}

	var settings SettingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return false, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings.RequiresV4Upgrade, nil
}

// StaticFlag is a fixed v4 upgrade flag used when no settings URL is configured
type StaticFlag bool

// RequiresV4Upgrade returns the fixed value
func (f StaticFlag) RequiresV4Upgrade(context.Context) (bool, error) {
	return bool(f), nil
}
