package model

import (
	"sort"
	"time"
)

// Snapshot is the full result set for one query at one point in time.
// Results are keyed by derived identity, which enforces the invariant
// that identities within one snapshot are unique: duplicates returned
// by the provider are collapsed before the snapshot is stored.
type Snapshot struct {
	// QueryKey identifies the query this snapshot belongs to (Query.Key).
	QueryKey string `json:"query_key"`

	// CapturedAt is when the provider call for this snapshot completed.
	CapturedAt time.Time `json:"captured_at"`

	// Results maps result identity to the raw result.
	// When the provider returns the same identity twice, the first
	// occurrence wins; later duplicates only differ in volatile fields.
	Results map[string]RawResult `json:"results"`
}

// NewSnapshot builds a snapshot from a raw provider result list,
// collapsing duplicate identities and dropping results without a link.
func NewSnapshot(queryKey string, capturedAt time.Time, results []RawResult) *Snapshot {
	collapsed := make(map[string]RawResult, len(results))
	for _, r := range results {
		id := r.Identity()
		if id == "" {
			continue
		}
		if _, exists := collapsed[id]; !exists {
			collapsed[id] = r
		}
	}
	return &Snapshot{
		QueryKey:   queryKey,
		CapturedAt: capturedAt,
		Results:    collapsed,
	}
}

// Identities returns the sorted identity set of the snapshot.
func (s *Snapshot) Identities() []string {
	identities := make([]string, 0, len(s.Results))
	for id := range s.Results {
		identities = append(identities, id)
	}
	sort.Strings(identities)
	return identities
}

// Contains reports whether the snapshot holds the given identity.
func (s *Snapshot) Contains(identity string) bool {
	_, ok := s.Results[identity]
	return ok
}

// Len returns the number of distinct identities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Results)
}

// ResultList returns the snapshot's results ordered by identity.
// The deterministic order keeps the serialized snapshot stable across
// runs with identical provider responses.
func (s *Snapshot) ResultList() []RawResult {
	list := make([]RawResult, 0, len(s.Results))
	for _, id := range s.Identities() {
		list = append(list, s.Results[id])
	}
	return list
}
