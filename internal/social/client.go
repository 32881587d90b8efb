package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adforge/internal/domain"
	"adforge/internal/infra"
)

// Client forwards outbound posts to the configured social proxy. The proxy
// owns per-network credentials and fan-out; this side performs one REST call
// per delivery and records the reference id the proxy hands back.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     infra.Logger
}

// Options configures the proxy client.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     infra.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// Configured reports whether a proxy endpoint is set. The worker refuses to
// dispatch without one rather than silently dropping due posts.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// PublishRequest is one outbound post handed to the proxy.
type PublishRequest struct {
	Text      string
	Platforms []string
	MediaURL  string
}

// PublishResult carries the proxy's reference for the accepted post.
type PublishResult struct {
	Ref    string
	Status string
}

type publishPayload struct {
	Post      string   `json:"post"`
	Platforms []string `json:"platforms"`
	MediaUrls []string `json:"mediaUrls,omitempty"`
}

type publishResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Publish posts the content to every requested platform in a single proxy
// call.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: social proxy is not configured", domain.ErrProviderFailure)
	}

	payload := publishPayload{Post: req.Text, Platforms: req.Platforms}
	if req.MediaURL != "" {
		payload.MediaUrls = []string{req.MediaURL}
	}

	var resp publishResponse
	if err := c.invoke(ctx, http.MethodPost, "/post", payload, &resp); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("ref", resp.ID).
		Int("platforms", len(req.Platforms)).
		Msg("social: post published")
	return &PublishResult{Ref: resp.ID, Status: resp.Status}, nil
}

// Cancel asks the proxy to withdraw a previously accepted post.
func (c *Client) Cancel(ctx context.Context, ref string) error {
	if !c.Configured() {
		return fmt.Errorf("%w: social proxy is not configured", domain.ErrProviderFailure)
	}
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: proxy reference is required", domain.ErrInvalidInput)
	}

	if err := c.invoke(ctx, http.MethodDelete, "/delete", map[string]string{"id": ref}, nil); err != nil {
		return err
	}

	c.logger.Info().Str("ref", ref).Msg("social: post cancelled")
	return nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal proxy payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: invoke social proxy: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%w: social proxy status %d: %s", domain.ErrProviderFailure, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode proxy response: %v", domain.ErrProviderFailure, err)
	}
	return nil
}
