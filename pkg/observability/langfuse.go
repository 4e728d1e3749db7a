// Package observability ships pipeline traces and feedback scores to a
// Langfuse-compatible ingestion endpoint. The pipeline never blocks on
// it: delivery failures are logged and dropped.
package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	Host      string
	PublicKey string
	SecretKey string
}

// Client talks to the /api/public/ingestion batch endpoint. A client
// built from an empty Config is disabled: traces get ids, nothing is
// shipped.
type Client struct {
	cfg     Config
	client  *http.Client
	enabled bool
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		enabled: cfg.Host != "" && cfg.PublicKey != "" && cfg.SecretKey != "",
	}
}

func (c *Client) Enabled() bool {
	return c.enabled
}

// TraceURL returns the UI link for a trace, or "" when disabled.
func (c *Client) TraceURL(traceId string) string {
	if !c.enabled || traceId == "" {
		return ""
	}
	return c.cfg.Host + "/trace/" + traceId
}

// Trace accumulates observations for one pipeline run and is flushed as
// a single ingestion batch on End.
type Trace struct {
	ID     string
	client *Client
	name   string
	start  time.Time

	sessionId    string
	input        interface{}
	observations []ingestionEvent
}

func (c *Client) StartTrace(name, sessionId string, input interface{}) *Trace {
	return &Trace{
		ID:        uuid.NewString(),
		client:    c,
		name:      name,
		start:     time.Now().UTC(),
		sessionId: sessionId,
		input:     input,
	}
}

// Span records a completed pipeline stage on the trace.
func (t *Trace) Span(name string, started time.Time, output interface{}) {
	t.observations = append(t.observations, ingestionEvent{
		ID:        uuid.NewString(),
		Type:      "span-create",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Body: map[string]interface{}{
			"id":        uuid.NewString(),
			"traceId":   t.ID,
			"name":      name,
			"startTime": started.UTC().Format(time.RFC3339Nano),
			"endTime":   time.Now().UTC().Format(time.RFC3339Nano),
			"output":    output,
		},
	})
}

// Generation records an LLM call with its prompt and raw completion.
func (t *Trace) Generation(name, model string, started time.Time, input, output interface{}) {
	t.observations = append(t.observations, ingestionEvent{
		ID:        uuid.NewString(),
		Type:      "generation-create",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Body: map[string]interface{}{
			"id":        uuid.NewString(),
			"traceId":   t.ID,
			"name":      name,
			"model":     model,
			"startTime": started.UTC().Format(time.RFC3339Nano),
			"endTime":   time.Now().UTC().Format(time.RFC3339Nano),
			"input":     input,
			"output":    output,
		},
	})
}

// End flushes the trace. Fire and forget: the batch is posted on a
// detached context so a timed out request still gets its trace.
func (t *Trace) End(output interface{}) {
	if !t.client.enabled {
		return
	}

	batch := make([]ingestionEvent, 0, len(t.observations)+1)
	batch = append(batch, ingestionEvent{
		ID:        uuid.NewString(),
		Type:      "trace-create",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Body: map[string]interface{}{
			"id":        t.ID,
			"name":      t.name,
			"sessionId": t.sessionId,
			"timestamp": t.start.Format(time.RFC3339Nano),
			"input":     t.input,
			"output":    output,
		},
	})
	batch = append(batch, t.observations...)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.client.postBatch(ctx, batch); err != nil {
			log.Printf("langfuse trace delivery failed: %v", err)
		}
	}()
}

// Score attaches a user feedback score to an existing trace. This is the
// only place feedback lands; nothing is written locally.
func (c *Client) Score(ctx context.Context, traceId, name string, value float64, comment string) error {
	if !c.enabled {
		return fmt.Errorf("observability client is not configured")
	}
	event := ingestionEvent{
		ID:        uuid.NewString(),
		Type:      "score-create",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Body: map[string]interface{}{
			"id":      uuid.NewString(),
			"traceId": traceId,
			"name":    name,
			"value":   value,
			"comment": comment,
		},
	}
	return c.postBatch(ctx, []ingestionEvent{event})
}

type ingestionEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Body      interface{} `json:"body"`
}

func (c *Client) postBatch(ctx context.Context, batch []ingestionEvent) error {
	payload, err := json.Marshal(map[string]interface{}{"batch": batch})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.Host+"/api/public/ingestion", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ingestion returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
