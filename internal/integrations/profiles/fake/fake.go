package fake

import (
	"context"
	"sync"

	"github.com/BearBump/DateBox/internal/integrations/profiles"
)

// Client is an in-memory profile service used when no base URL is configured
// and in tests.
type Client struct {
	mu        sync.RWMutex
	overrides map[string][]profiles.Override
}

func New() *Client {
	return &Client{overrides: make(map[string][]profiles.Override)}
}

func (c *Client) SetOverrides(userID string, ovs []profiles.Override) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[userID] = ovs
}

func (c *Client) GetTemplateOverrides(_ context.Context, userID string) ([]profiles.Override, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overrides[userID], nil
}
