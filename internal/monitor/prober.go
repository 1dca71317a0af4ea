package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"relaypanel/internal/models"
)

// HTTPProber probes a channel by sending a minimal chat completion request
// to its upstream endpoint.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates an HTTPProber. Timeouts come from the probe context.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{client: &http.Client{}}
}

type probeRequest struct {
	Model     string         `json:"model"`
	Messages  []probeMessage `json:"messages"`
	MaxTokens int            `json:"max_tokens"`
}

type probeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Probe sends a one-token completion request for the model and reports
// whether the upstream answered with a 2xx status.
func (p *HTTPProber) Probe(ctx context.Context, channel *models.Channel, model string) (bool, error) {
	if channel.BaseURL == "" {
		return false, fmt.Errorf("channel %s has no base url", channel.Name)
	}

	body, err := json.Marshal(probeRequest{
		Model:     model,
		Messages:  []probeMessage{{Role: "user", Content: "hi"}},
		MaxTokens: 1,
	})
	if err != nil {
		return false, err
	}

	url := strings.TrimRight(channel.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+channel.Key)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	return false, fmt.Errorf("upstream returned status %d", resp.StatusCode)
}
