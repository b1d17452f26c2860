// Copyright Marco Kaiser, 2025. All rights reserved.

package pasa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

func init() {
	// Use a tiny base delay so retry tests finish quickly.
	retryBaseDelay = 1 * time.Millisecond
}

func testHTTPConfig() types.HTTPConfig {
	return types.HTTPConfig{TimeoutMS: 5000, MaxRetries: 3, UserAgent: "test/0.1"}
}

// newTestClient points a Client at an httptest server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := NewClient(testHTTPConfig(), zerolog.Nop())
	c.baseURL = ts.URL
	return c
}

func okEnvelope(papers string, finish bool) map[string]any {
	return map[string]any{
		"base_resp": map[string]any{"status_code": 0, "status_msg": ""},
		"papers":    papers,
		"finish":    finish,
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, submitPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(okEnvelope("{}", false))
	}))

	h, err := c.Submit(context.Background(), "attention mechanism")
	require.NoError(t, err)

	assert.NotEmpty(t, h.SessionID)
	assert.Equal(t, "attention mechanism", h.Query)
	assert.Equal(t, "attention mechanism", gotBody["user_query"])
	assert.Equal(t, h.SessionID, gotBody["session_id"])
}

func TestSubmitRetriesTransientFailure(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(okEnvelope("{}", false))
	}))

	_, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSubmitExhaustsRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Submit(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSubmitRemoteRejectionNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"base_resp": map[string]any{"status_code": 1002, "status_msg": "rate limited"},
		})
	}))

	_, err := c.Submit(context.Background(), "q")
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(1002), re.StatusCode)
	assert.False(t, IsTransport(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPollPreservesWireOrder(t *testing.T) {
	// The papers payload is a double-encoded JSON object; item order on
	// the wire must survive decoding.
	papers := `{"c":{"entry_id":"2301.00003","title":"C"},` +
		`"a":{"entry_id":"2301.00001","title":"A"},` +
		`"b":{"entry_id":"2301.00002","title":"B"}}`

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, getResultPath, r.URL.Path)
		json.NewEncoder(w).Encode(okEnvelope(papers, true))
	}))

	snap, err := c.Poll(context.Background(), Handle{SessionID: "123"})
	require.NoError(t, err)

	assert.True(t, snap.Finished)
	require.Equal(t, 3, snap.Count())
	assert.Equal(t, "2301.00003", snap.Items[0].EntryID)
	assert.Equal(t, "2301.00001", snap.Items[1].EntryID)
	assert.Equal(t, "2301.00002", snap.Items[2].EntryID)
}

func TestPollEmptyPapers(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(okEnvelope("{}", false))
	}))

	snap, err := c.Poll(context.Background(), Handle{SessionID: "123"})
	require.NoError(t, err)
	assert.Zero(t, snap.Count())
	assert.False(t, snap.Finished)
}

func TestPollHTTPErrorIsTransport(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Poll(context.Background(), Handle{SessionID: "123"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestPollGarbledPayloadRecovers(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(okEnvelope(`not json at all`, true))
	}))

	snap, err := c.Poll(context.Background(), Handle{SessionID: "123"})
	require.NoError(t, err, "a garbled payload on one poll is recoverable")
	assert.Zero(t, snap.Count())
	assert.True(t, snap.Finished)
}

func TestDecodePapersSkipsMalformedEntries(t *testing.T) {
	raw := `{"good":{"entry_id":"2301.00001","score":0.9},` +
		`"bad":{"entry_id":"2301.00002","authors":"not-a-list"},` +
		`"also-good":{"entry_id":"2301.00003"}}`

	items, skipped, err := decodePapers(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, items, 2)
	assert.Equal(t, "2301.00001", items[0].EntryID)
	assert.Equal(t, "2301.00003", items[1].EntryID)
}

func TestDecodePapersNilAndEmpty(t *testing.T) {
	for _, raw := range []string{"", `""`, `"{}"`, `{}`} {
		items, skipped, err := decodePapers(json.RawMessage(raw))
		require.NoError(t, err, "raw=%q", raw)
		assert.Empty(t, items)
		assert.Zero(t, skipped)
	}
}
