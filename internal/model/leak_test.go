package model

import (
	"testing"
	"time"
)

// TestNewLeakEntry tests leak entry construction from an observed result.
func TestNewLeakEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	query := Query{Value: "Acme.com", Type: QueryTypeDomain}
	result := RawResult{
		Link:    "http://Example.com/dump/",
		Title:   "acme dump",
		Source:  "Collection #1",
		Extra:   map[string]string{DetailBreach: "2019-01-07", "password": "hunter2"},
		Snippet: "credentials for acme.com",
	}

	entry := NewLeakEntry(query, result, now)

	if entry.ID == "" {
		t.Error("expected a generated ID")
	}
	if entry.EntityType != QueryTypeDomain {
		t.Errorf("EntityType = %q, want %q", entry.EntityType, QueryTypeDomain)
	}
	if entry.Entity != "acme.com" {
		t.Errorf("Entity = %q, want %q", entry.Entity, "acme.com")
	}
	if entry.Identity != "http://example.com/dump" {
		t.Errorf("Identity = %q, want %q", entry.Identity, "http://example.com/dump")
	}
	if entry.Status != LeakStatusNew {
		t.Errorf("Status = %q, want %q", entry.Status, LeakStatusNew)
	}
	if !entry.FoundAt.Equal(now) || !entry.LastSeenAt.Equal(now) {
		t.Errorf("timestamps not set to now: found=%v lastSeen=%v", entry.FoundAt, entry.LastSeenAt)
	}
	if entry.Summary != "Collection #1 (2019-01-07)" {
		t.Errorf("Summary = %q", entry.Summary)
	}
	if entry.Details[DetailLink] != "http://example.com/dump" {
		t.Errorf("Details[link] = %q", entry.Details[DetailLink])
	}
	if entry.Details["password"] != "hunter2" {
		t.Errorf("Details[password] = %q", entry.Details["password"])
	}
}

// TestNewLeakEntryDefaultsType tests that an untyped query is recorded as auto.
func TestNewLeakEntryDefaultsType(t *testing.T) {
	t.Parallel()

	entry := NewLeakEntry(Query{Value: "acme.com"}, RawResult{Link: "http://example.com"}, time.Now())
	if entry.EntityType != QueryTypeAuto {
		t.Errorf("EntityType = %q, want %q", entry.EntityType, QueryTypeAuto)
	}
}

// TestLeakEntryRefresh tests that volatile context is rebuilt while
// identity and lifecycle fields stay intact.
func TestLeakEntryRefresh(t *testing.T) {
	t.Parallel()

	foundAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := NewLeakEntry(
		Query{Value: "acme.com", Type: QueryTypeDomain},
		RawResult{Link: "http://example.com/dump", Title: "old title"},
		foundAt,
	)

	entry.Refresh(RawResult{
		Link:   "http://example.com/dump",
		Source: "pastebin",
		Title:  "new title",
	})

	if entry.Summary != "pastebin" {
		t.Errorf("Summary = %q, want %q", entry.Summary, "pastebin")
	}
	if entry.Details[DetailTitle] != "new title" {
		t.Errorf("Details[title] = %q", entry.Details[DetailTitle])
	}
	if !entry.FoundAt.Equal(foundAt) {
		t.Error("Refresh must not change FoundAt")
	}
	if entry.Status != LeakStatusNew {
		t.Error("Refresh must not change Status")
	}

	before := entry.Summary
	entry.Refresh(RawResult{})
	if entry.Summary != before {
		t.Error("Refresh with an empty result must be a no-op")
	}
}

// TestSummarizeResult tests the summary fallback chain.
func TestSummarizeResult(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		result RawResult
		want   string
	}{
		{
			name:   "source with breach date",
			result: RawResult{Link: "http://example.com", Source: "LinkedIn", Extra: map[string]string{DetailBreach: "2012-05-05"}},
			want:   "LinkedIn (2012-05-05)",
		},
		{
			name:   "source only",
			result: RawResult{Link: "http://example.com", Source: "LinkedIn"},
			want:   "LinkedIn",
		},
		{
			name:   "title fallback",
			result: RawResult{Link: "http://example.com", Title: "some page"},
			want:   "some page",
		},
		{
			name:   "link fallback",
			result: RawResult{Link: "http://Example.com/p/"},
			want:   "http://example.com/p",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := summarizeResult(tc.result); got != tc.want {
				t.Errorf("summarizeResult() = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestMatchesFilter tests the status and free-text filter contract.
func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	entry := &LeakEntry{
		EntityType: QueryTypeDomain,
		Entity:     "acme.com",
		Status:     LeakStatusExisting,
		Summary:    "Collection #1 (2019-01-07)",
		Details: map[string]string{
			DetailSource:  "Collection #1",
			DetailBreach:  "2019-01-07",
			DetailSnippet: "secret snippet",
		},
	}

	cases := []struct {
		name   string
		status LeakStatus
		term   string
		want   bool
	}{
		{name: "empty filter matches", status: "", term: "", want: true},
		{name: "matching status", status: LeakStatusExisting, term: "", want: true},
		{name: "mismatched status", status: LeakStatusNew, term: "", want: false},
		{name: "term over entity", status: "", term: "ACME", want: true},
		{name: "term over source detail", status: "", term: "collection", want: true},
		{name: "term over breach detail", status: "", term: "2019-01", want: true},
		{name: "term over status", status: "", term: "existing", want: true},
		{name: "snippet not searched", status: "", term: "snippet", want: false},
		{name: "no match", status: "", term: "globex", want: false},
		{name: "status and term must both match", status: LeakStatusDeleted, term: "acme", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := entry.MatchesFilter(tc.status, tc.term); got != tc.want {
				t.Errorf("MatchesFilter(%q, %q) = %v, want %v", tc.status, tc.term, got, tc.want)
			}
		})
	}
}

// TestMaskedDetails tests that credential-bearing details are masked and
// everything else passes through.
func TestMaskedDetails(t *testing.T) {
	t.Parallel()

	entry := &LeakEntry{
		Details: map[string]string{
			"email":      "jdoe@acme.com",
			"password":   "hunter2",
			"phone":      "+1 (555) 123-4567",
			"username":   "jdoe42",
			DetailSource: "Collection #1",
		},
	}

	masked := entry.MaskedDetails()

	if masked["email"] != "jd***@a***" {
		t.Errorf("email = %q", masked["email"])
	}
	if masked["password"] != "h***2 (len=7)" {
		t.Errorf("password = %q", masked["password"])
	}
	if masked["phone"] != "***4567" {
		t.Errorf("phone = %q", masked["phone"])
	}
	if masked["username"] != "j***2" {
		t.Errorf("username = %q", masked["username"])
	}
	if masked[DetailSource] != "Collection #1" {
		t.Errorf("source = %q, want pass-through", masked[DetailSource])
	}

	if entry.Details["email"] != "jdoe@acme.com" {
		t.Error("MaskedDetails must not mutate the original details")
	}

	var empty LeakEntry
	if empty.MaskedDetails() != nil {
		t.Error("MaskedDetails() on nil details should be nil")
	}
}
