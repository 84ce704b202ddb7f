package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeakStatus is the lifecycle state of a leak entry.
type LeakStatus string

const (
	// LeakStatusNew marks an entry observed for the first time (or
	// resurrected after deletion) that has not yet persisted across runs.
	LeakStatusNew LeakStatus = "new"
	// LeakStatusExisting marks an entry observed in at least two
	// consecutive runs. The operator has already been notified about it.
	LeakStatusExisting LeakStatus = "existing"
	// LeakStatusDeleted marks an entry whose identity disappeared from a
	// later snapshot. Deleted entries are retained for audit history.
	LeakStatusDeleted LeakStatus = "deleted"
)

// String returns the string representation of the LeakStatus.
func (s LeakStatus) String() string {
	return string(s)
}

// IsValid reports whether the LeakStatus is one of the known states.
func (s LeakStatus) IsValid() bool {
	switch s {
	case LeakStatusNew, LeakStatusExisting, LeakStatusDeleted:
		return true
	default:
		return false
	}
}

// Detail map keys used in LeakEntry.Details.
// The "source" and "breach" keys participate in the free-text search
// contract of the presentation layer.
const (
	DetailSource  = "source"
	DetailBreach  = "breach"
	DetailLink    = "link"
	DetailTitle   = "title"
	DetailSnippet = "snippet"
)

// LeakEntry is the canonical, durable record of one tracked exposure.
// Its identity is (EntityType, Entity, Identity): one entry per distinct
// result identity ever seen for a tracked entity. Entries are never
// physically removed; disappearance only transitions the status.
type LeakEntry struct {
	// ID is the opaque unique identifier of the entry.
	ID string `json:"id"`

	// EntityType is the type of the tracked entity this entry belongs to.
	EntityType QueryType `json:"entity_type"`

	// Entity is the normalized tracked entity value.
	Entity string `json:"entity"`

	// Identity is the derived result identity (normalized link).
	Identity string `json:"identity"`

	// Status is the current lifecycle state.
	Status LeakStatus `json:"status"`

	// FoundAt is when this identity was first observed. It is reset on
	// resurrection because a re-appearance is a fresh exposure event.
	FoundAt time.Time `json:"found_at"`

	// LastSeenAt is the last run at which the identity was present.
	// It does not advance after the entry transitions to deleted.
	LastSeenAt time.Time `json:"last_seen_at"`

	// Summary is a short human-readable description of the exposure.
	Summary string `json:"summary"`

	// Details holds additional context about the exposure keyed by the
	// Detail* constants plus any provider extra fields.
	Details map[string]string `json:"details,omitempty"`
}

// NewLeakEntry creates a leak entry for a result observed for entity.
// The entry starts in LeakStatusNew with FoundAt and LastSeenAt set to now.
func NewLeakEntry(query Query, result RawResult, now time.Time) *LeakEntry {
	entry := &LeakEntry{
		ID:         uuid.NewString(),
		EntityType: query.NormalizedType(),
		Entity:     query.NormalizedValue(),
		Identity:   result.Identity(),
		Status:     LeakStatusNew,
		FoundAt:    now,
		LastSeenAt: now,
	}
	entry.Refresh(result)
	return entry
}

// Refresh rebuilds the volatile summary and details of the entry from a
// freshly observed result, keeping identity and lifecycle fields intact.
// Used on resurrection, when the stored context may be stale.
func (e *LeakEntry) Refresh(result RawResult) {
	if result.Link == "" {
		return
	}
	details := map[string]string{
		DetailLink: result.Identity(),
	}
	if result.Source != "" {
		details[DetailSource] = result.Source
	}
	if result.Title != "" {
		details[DetailTitle] = result.Title
	}
	if result.Snippet != "" {
		details[DetailSnippet] = result.Snippet
	}
	for k, v := range result.Extra {
		if _, taken := details[k]; !taken && v != "" {
			details[k] = v
		}
	}
	e.Summary = summarizeResult(result)
	e.Details = details
}

// summarizeResult builds the one-line summary shown in listings:
// the source name with the breach date when known, falling back to the
// result title and finally the normalized link.
func summarizeResult(result RawResult) string {
	if result.Source != "" {
		if breach := result.Extra[DetailBreach]; breach != "" {
			return result.Source + " (" + breach + ")"
		}
		return result.Source
	}
	if result.Title != "" {
		return result.Title
	}
	return result.Identity()
}

// MatchesFilter reports whether the entry matches a status filter and a
// free-text term. An empty status matches every state; an empty term
// matches every entry. The term is a case-insensitive substring match over
// the concatenation of entity type, entity, status, summary, and the
// source and breach details. This is the only externally consumed query
// shape and must stay reproducible exactly.
func (e *LeakEntry) MatchesFilter(status LeakStatus, term string) bool {
	if status != "" && e.Status != status {
		return false
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		string(e.EntityType),
		e.Entity,
		string(e.Status),
		e.Summary,
		e.Details[DetailSource],
		e.Details[DetailBreach],
	}, "\n"))
	return strings.Contains(haystack, term)
}

// MaskedDetails returns a copy of Details with credential-bearing values
// masked. The raw details never leave the process unmasked: logs, email
// notifications, and the HTTP listing all go through this view.
func (e *LeakEntry) MaskedDetails() map[string]string {
	if e.Details == nil {
		return nil
	}
	masked := make(map[string]string, len(e.Details))
	for k, v := range e.Details {
		switch strings.ToLower(k) {
		case "email", "mail":
			masked[k] = MaskEmail(v)
		case "password", "pass":
			masked[k] = MaskPassword(v)
		case "phone":
			masked[k] = MaskPhone(v)
		case "username", "user", "login":
			masked[k] = MaskText(v)
		default:
			masked[k] = v
		}
	}
	return masked
}
