// Package remote adapts HTTP JSON endpoints into toolhub executables,
// the remote-source candidate backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harun/toolhub/pkg/toolhub"
)

// Executable posts tool input to an HTTP endpoint and decodes the JSON
// response body. The response may be Result-shaped ({"success": ...,
// "result": ...}) or any JSON value; the engine normalizes either.
type Executable struct {
	Endpoint string
	Client   *http.Client
}

// New creates a remote executable for the given endpoint.
func New(endpoint string) *Executable {
	return &Executable{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Execute implements toolhub.Executable. Cancellation propagates through
// the request context.
func (e *Executable) Execute(ctx context.Context, input any) (any, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote call failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		// Non-JSON bodies pass through as text.
		return string(data), nil
	}
	return decoded, nil
}

// Register registers a remote endpoint as a candidate for the named tool.
func Register(hub *toolhub.Hub, name, description, endpoint string) error {
	return hub.Register(toolhub.Candidate{
		Name:         name,
		Source:       toolhub.SourceRemote,
		Priority:     toolhub.PriorityRemote,
		Capabilities: toolhub.ExtractCapabilities(description, name),
		Exec:         New(endpoint),
		Metadata:     map[string]any{"endpoint": endpoint},
	})
}

func truncateBody(data []byte) string {
	const max = 200
	if len(data) > max {
		data = data[:max]
	}
	return string(data)
}
