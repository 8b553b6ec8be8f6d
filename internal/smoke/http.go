package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/siteforms/internal/domain/types"
)

const maxResponseBytes = 64 << 10

// client posts form bodies and decodes the acknowledgement.
type client struct {
	http *http.Client
}

func newClient(timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}}
}

// postForm sends body as JSON and returns the status and decoded Ack.
// Every request carries a fresh X-Request-Id so it can be found in the server log.
func (c *client) postForm(ctx context.Context, url string, body any) (int, types.Ack, string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, types.Ack{}, "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, types.Ack{}, "", fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, types.Ack{}, requestID, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, types.Ack{}, requestID, fmt.Errorf("failed to read response: %w", err)
	}

	var ack types.Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		return resp.StatusCode, types.Ack{}, requestID, fmt.Errorf("failed to decode response %q: %w", data, err)
	}
	return resp.StatusCode, ack, requestID, nil
}
