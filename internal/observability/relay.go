package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// relayTimeout bounds each delivery attempt. Hooks run inside agent
// sessions and must never hang them.
const relayTimeout = 5 * time.Second

// Envelope is the wire format posted to the observability server's
// /events endpoint.
type Envelope struct {
	ID            string         `json:"id"`
	SourceApp     string         `json:"source_app"`
	SessionID     string         `json:"session_id,omitempty"`
	HookEventType string         `json:"hook_event_type"`
	Payload       map[string]any `json:"payload"`
	Timestamp     int64          `json:"timestamp"` // milliseconds since epoch
	FeatureID     string         `json:"feature_id,omitempty"`
	WorkflowStage string         `json:"workflow_stage,omitempty"`
}

// Relay delivers event envelopes to an external observability server.
type Relay interface {
	Send(ctx context.Context, envelope Envelope) error
}

type httpRelay struct {
	url       string
	sourceApp string
	client    *http.Client
}

// NewHTTPRelay creates a Relay that posts to serverURL's /events
// endpoint, stamping each envelope with sourceApp.
func NewHTTPRelay(serverURL, sourceApp string) Relay {
	url := strings.TrimRight(serverURL, "/")
	if !strings.HasSuffix(url, "/events") {
		url += "/events"
	}
	return &httpRelay{
		url:       url,
		sourceApp: sourceApp,
		client:    &http.Client{Timeout: relayTimeout},
	}
}

// Send posts one envelope. Missing id, source, and timestamp fields are
// filled in. Any non-2xx response is an error.
func (r *httpRelay) Send(ctx context.Context, envelope Envelope) error {
	if envelope.ID == "" {
		envelope.ID = uuid.NewString()
	}
	if envelope.SourceApp == "" {
		envelope.SourceApp = r.sourceApp
	}
	if envelope.Timestamp == 0 {
		envelope.Timestamp = time.Now().UnixMilli()
	}
	if envelope.Payload == nil {
		envelope.Payload = map[string]any{}
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshalling envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, relayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay server returned %s", resp.Status)
	}
	return nil
}

// NopRelay is a Relay that discards everything. Used when relaying is
// disabled so callers never need a nil check.
type NopRelay struct{}

func (NopRelay) Send(context.Context, Envelope) error { return nil }
