// Package httpapi ships accepted votes to the remote backup endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type Client struct {
	url    string
	token  string
	client *http.Client
}

var _ ports.BackupClient = (*Client)(nil)

func NewClient(url, token string) *Client {
	return &Client{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Backup POSTs the full record document. Any non-2xx reply is a failure.
func (c *Client) Backup(ctx context.Context, record *domain.VoteRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode vote record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build backup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backup endpoint: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("backup endpoint replied %d", res.StatusCode)
	}
	return nil
}
