package hasura_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/hasura"
	"github.com/cosmos/voyager-eureka/internal/message"
)

func TestSinkPostSendsArchiveMutation(t *testing.T) {
	var gotAuth, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Hasura-Admin-Secret")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := hasura.NewSink(srv.URL, "secret-token", zap.NewNop())
	s.Post(context.Background(), "enqueue", message.DeferUntil{UnixSeconds: 42})

	require.Equal(t, "secret-token", gotAuth)
	require.Equal(t, "application/json", gotContentType)

	var decoded struct {
		Query     string `json:"query"`
		Variables struct {
			Event   string          `json:"event"`
			Kind    string          `json:"kind"`
			Payload json.RawMessage `json:"payload"`
		} `json:"variables"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotBody), &decoded))
	require.Equal(t, "enqueue", decoded.Variables.Event)
	require.Equal(t, "defer_until", decoded.Variables.Kind)
	require.NotEmpty(t, decoded.Variables.Payload)
}

func TestSinkPostOmitsAdminSecretHeaderWhenEmpty(t *testing.T) {
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["X-Hasura-Admin-Secret"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := hasura.NewSink(srv.URL, "", zap.NewNop())
	s.Post(context.Background(), "dequeue", message.DeferUntil{UnixSeconds: 1})

	require.False(t, sawHeader)
}

// TestSinkPostNilReceiverIsNoop covers engine.handle's "Hasura is
// optional; nil disables archiving entirely" contract: Post must be
// safe to call on a nil *Sink.
func TestSinkPostNilReceiverIsNoop(t *testing.T) {
	var s *hasura.Sink
	require.NotPanics(t, func() {
		s.Post(context.Background(), "dequeue", message.DeferUntil{UnixSeconds: 1})
	})
}

// TestSinkPostSwallowsRejectedStatus covers spec.md §6.5's best-effort
// contract: a non-2xx response is logged, never returned or panicked.
func TestSinkPostSwallowsRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := hasura.NewSink(srv.URL, "", zap.NewNop())
	require.NotPanics(t, func() {
		s.Post(context.Background(), "dequeue", message.DeferUntil{UnixSeconds: 1})
	})
}
