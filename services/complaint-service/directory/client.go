package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"civic-complaint-system/services/complaint-service/engine"
)

// Client resolves worker identities against the auth service's internal
// user endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) GetWorker(ctx context.Context, id string) (engine.Worker, error) {
	url := fmt.Sprintf("%s/internal/users/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return engine.Worker{}, fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return engine.Worker{}, fmt.Errorf("directory lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return engine.Worker{}, fmt.Errorf("user %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return engine.Worker{}, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Status string        `json:"status"`
		Data   engine.Worker `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return engine.Worker{}, fmt.Errorf("failed to decode directory response: %w", err)
	}
	return envelope.Data, nil
}
