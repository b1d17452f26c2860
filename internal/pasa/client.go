// Copyright Marco Kaiser, 2025. All rights reserved.

// Package pasa talks to the pasa-agent.ai asynchronous search API: it
// submits queries, polls the accumulating result set, and normalizes raw
// result items into paper records. It carries no completion logic; that
// lives in internal/poller.
package pasa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// Agent API endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	agentBase     = "https://pasa-agent.ai"
	submitPath    = "/paper-agent/api/v1/single_paper_agent"
	getResultPath = "/paper-agent/api/v1/single_get_result"
)

// retryBaseDelay controls the base duration for exponential backoff on
// submit retries. Tests override this to avoid real sleeps.
var retryBaseDelay = 2 * time.Second

// Handle identifies a submitted search job on the agent.
type Handle struct {
	SessionID string
	Query     string
}

// Client issues submit and poll requests against the agent. It holds no
// per-query state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	logger     zerolog.Logger
}

// NewClient builds a Client from HTTP settings. The per-request timeout
// from cfg applies to each transport call individually.
func NewClient(cfg types.HTTPConfig, logger zerolog.Logger) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    agentBase,
		userAgent:  cfg.UserAgent,
		maxRetries: maxRetries,
		logger:     logger.With().Str("component", "pasa").Logger(),
	}
}

// envelope is the common response wrapper of the agent API.
type envelope struct {
	BaseResp struct {
		StatusCode int64  `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
	Papers json.RawMessage `json:"papers"`
	Finish bool            `json:"finish"`
}

// Submit initiates a search on the agent and returns a handle for
// polling. Transient transport failures are retried with exponential
// backoff up to the configured bound.
func (c *Client) Submit(ctx context.Context, query string) (Handle, error) {
	h := Handle{
		SessionID: fmt.Sprintf("%d", time.Now().UnixMicro()),
		Query:     query,
	}
	payload := map[string]string{
		"user_query": query,
		"session_id": h.SessionID,
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBaseDelay << (attempt - 1)
			c.logger.Warn().Err(lastErr).Dur("backoff", backoff).
				Int("attempt", attempt).Msg("submit failed, retrying")
			select {
			case <-ctx.Done():
				return Handle{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		env, err := c.post(ctx, submitPath, payload)
		if err != nil {
			if IsTransport(err) {
				lastErr = err
				continue
			}
			return Handle{}, err
		}
		if env.BaseResp.StatusCode != 0 {
			return Handle{}, &RemoteError{
				StatusCode: env.BaseResp.StatusCode,
				Message:    env.BaseResp.StatusMsg,
			}
		}

		c.logger.Info().Str("session_id", h.SessionID).Msg("search submitted")
		return h, nil
	}
	return Handle{}, fmt.Errorf("submitting search after %d attempts: %w", c.maxRetries, lastErr)
}

// Poll fetches the current result snapshot for a submitted query. The
// returned snapshot preserves the agent's wire order of result items.
func (c *Client) Poll(ctx context.Context, h Handle) (types.ResultSnapshot, error) {
	env, err := c.post(ctx, getResultPath, map[string]string{"session_id": h.SessionID})
	if err != nil {
		return types.ResultSnapshot{}, err
	}
	if env.BaseResp.StatusCode != 0 {
		return types.ResultSnapshot{}, &RemoteError{
			StatusCode: env.BaseResp.StatusCode,
			Message:    env.BaseResp.StatusMsg,
		}
	}

	items, skipped, err := decodePapers(env.Papers)
	if err != nil {
		// A garbled papers payload on one poll is recoverable: report an
		// empty snapshot and let the next poll try again.
		c.logger.Warn().Err(err).Str("session_id", h.SessionID).
			Msg("could not decode papers payload")
		return types.ResultSnapshot{Finished: env.Finish}, nil
	}
	if skipped > 0 {
		c.logger.Warn().Int("skipped", skipped).Str("session_id", h.SessionID).
			Msg("dropped malformed result entries")
	}

	return types.ResultSnapshot{Items: items, Finished: env.Finish}, nil
}

// post sends one JSON request and decodes the envelope. All network and
// HTTP-level failures come back as *TransportError.
func (c *Client) post(ctx context.Context, path string, payload any) (envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return envelope{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return envelope{}, ctx.Err()
		}
		return envelope{}, &TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return envelope{}, &TransportError{
			Op:  path,
			Err: fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, &TransportError{Op: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return env, nil
}

// decodePapers parses the agent's papers payload: a JSON object keyed by
// paper ID, sometimes double-encoded as a JSON string. Decoding walks the
// object token by token so the agent's ordering survives (a plain map
// decode would shuffle it). Entries that fail to decode individually are
// skipped and counted rather than failing the poll.
func decodePapers(raw json.RawMessage) (items []types.RawResult, skipped int, err error) {
	if len(raw) == 0 {
		return nil, 0, nil
	}

	// Unwrap the string encoding if present.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, 0, fmt.Errorf("unwrapping papers string: %w", err)
		}
		if inner == "" || inner == "{}" {
			return nil, 0, nil
		}
		raw = json.RawMessage(inner)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("reading papers object: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, 0, fmt.Errorf("papers payload is not an object")
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, 0, fmt.Errorf("reading paper key: %w", err)
		}
		var entry json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return nil, 0, fmt.Errorf("reading paper entry: %w", err)
		}
		var item types.RawResult
		if err := json.Unmarshal(entry, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}
