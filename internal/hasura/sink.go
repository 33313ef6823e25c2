// Package hasura implements the best-effort archive sink (spec.md
// §6.5): every dequeued message and its successors are POSTed as a
// GraphQL mutation, purely for off-line observability. Failures never
// affect ProcessFlow -- this sink has no vote in whether a message
// counts as handled.
package hasura

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// insertMutation is deliberately generic: a single mutation name and a
// JSON blob of the object being archived, matching the shape Hasura's
// auto-generated `insert_<table>_one` mutations expect for an
// unstructured jsonb column.
const insertMutation = `mutation ArchiveMessage($event: String!, $kind: String!, $payload: jsonb!) {
  insert_voyager_archive_one(object: {event: $event, kind: $kind, payload: $payload}) {
    id
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Sink POSTs archive mutations to a Hasura GraphQL endpoint.
type Sink struct {
	Endpoint   string
	AdminToken string
	HTTPClient *http.Client
	Log        *zap.Logger
}

// NewSink constructs a Sink with a sane request timeout, mirroring the
// bounded-timeout HTTP client style the teacher uses for its own
// container-facing helper clients.
func NewSink(endpoint, adminToken string, log *zap.Logger) *Sink {
	return &Sink{
		Endpoint:   endpoint,
		AdminToken: adminToken,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Log:        log,
	}
}

// Post archives one message under the given event label ("dequeue",
// "enqueue"). Errors are logged at Warn and otherwise swallowed: spec.md
// §6.5 names this sink explicitly best-effort, never propagated into
// ProcessFlow.
func (s *Sink) Post(ctx context.Context, event string, m message.Message) {
	if s == nil {
		return
	}
	payload, err := message.Marshal(m)
	if err != nil {
		s.Log.Warn("hasura: marshal message for archive", zap.Error(err))
		return
	}
	var raw json.RawMessage = payload

	body, err := json.Marshal(graphQLRequest{
		Query: insertMutation,
		Variables: map[string]any{
			"event":   event,
			"kind":    m.Kind(),
			"payload": raw,
		},
	})
	if err != nil {
		s.Log.Warn("hasura: marshal graphql request", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		s.Log.Warn("hasura: build request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.AdminToken != "" {
		req.Header.Set("X-Hasura-Admin-Secret", s.AdminToken)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		s.Log.Warn("hasura: post archive mutation", zap.String("event", event), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.Log.Warn("hasura: archive mutation rejected",
			zap.String("event", event), zap.Int("status", resp.StatusCode), zap.Error(fmt.Errorf("unexpected status")))
	}
}
