// Copyright Marco Kaiser, 2025. All rights reserved.

package types

import "encoding/json"

// RawResult is one un-normalized result item as reported by the search
// agent. Fields mirror the agent's wire format.
type RawResult struct {
	EntryID      string          `json:"entry_id"`
	Title        string          `json:"title"`
	Authors      []string        `json:"authors"`
	Abstract     string          `json:"abstract"`
	PublishTime  string          `json:"publish_time"`
	Score        float64         `json:"score"`
	Source       string          `json:"source"`
	SelectReason string          `json:"select_reason"`
	BibResult    string          `json:"bib_result"`
	JSONResult   json.RawMessage `json:"json_result,omitempty"`
}

// ResultSnapshot is the state of a submitted query observed at one poll:
// the result items seen so far, in wire order, and the agent's finished
// flag. Snapshots are produced fresh on every poll and never mutated,
// only compared across successive polls.
type ResultSnapshot struct {
	// Items holds the partial result records in the order the agent
	// reported them.
	Items []RawResult

	// Finished is the agent's own completion claim. The poller treats it
	// as necessary but not sufficient evidence of completion.
	Finished bool
}

// Count returns the number of result items in the snapshot.
func (s ResultSnapshot) Count() int { return len(s.Items) }
