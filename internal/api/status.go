package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/albion-omni/internal/model"
)

// StatusClient wraps a Client pointed at a server-status host.
type StatusClient struct {
	client *Client
	region model.Region
	now    func() time.Time
}

// NewStatusClient creates a server-status client for region.
func NewStatusClient(client *Client, region model.Region) *StatusClient {
	return &StatusClient{client: client, region: region, now: time.Now}
}

// Client returns the underlying REST client.
func (s *StatusClient) Client() *Client {
	return s.client
}

// GetStatus fetches the current game server status.
func (s *StatusClient) GetStatus(ctx context.Context) (*model.ServerStatus, error) {
	body, err := s.client.doWithRetry(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	var resp APIStatus
	if err := decodeJSON(body, &resp); err != nil {
		return nil, fmt.Errorf("get status: unmarshal response: %w", err)
	}

	return &model.ServerStatus{
		Region:    s.region,
		Status:    strings.ToLower(strings.TrimSpace(resp.Status)),
		Message:   strings.TrimSpace(resp.Message),
		CheckedAt: s.now().UTC(),
	}, nil
}
