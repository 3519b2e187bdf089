package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"context"

	"github.com/BearBump/DateBox/internal/integrations/profiles"
	"github.com/BearBump/DateBox/internal/models"
	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9100"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type overridesResp struct {
	Status    string `json:"status"`
	Overrides []struct {
		FormatKey string `json:"formatKey"`
		Template  string `json:"template"`
	} `json:"overrides"`
}

func (c *Client) GetTemplateOverrides(ctx context.Context, userID string) ([]profiles.Override, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = "/api/v1/template-overrides"

	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Пользователь без профиля — это не ошибка, просто нет оверрайдов.
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("profile service http %d", resp.StatusCode)
	}

	var r overridesResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if r.Status != "ok" {
		return nil, fmt.Errorf("profile service status=%s", r.Status)
	}

	out := make([]profiles.Override, 0, len(r.Overrides))
	for _, o := range r.Overrides {
		if !models.IsCopyFormat(o.FormatKey) {
			continue
		}
		out = append(out, profiles.Override{FormatKey: o.FormatKey, Template: o.Template})
	}
	return out, nil
}
