package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"subtrack/internal/client/session"
)

// Pusher delivers gathered sync payloads to the server. It satisfies the
// session manager's Pusher interface; delivery rides the client's held
// bearer token.
type Pusher struct {
	client *Client
}

func NewPusher(client *Client) *Pusher {
	return &Pusher{client: client}
}

// Push posts the payload to the server's sync endpoint.
func (p *Pusher) Push(ctx context.Context, payload session.SyncPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.client.baseURL+"/sync", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.client.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.client.token)
	}

	resp, err := p.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return mapError(resp.StatusCode, resp.Body)
	}
	return nil
}
