package diff

import (
	"sort"

	"github.com/nao1215/leakwatch/internal/model"
)

// Result classifies each distinct result identity of a query as appeared,
// persisted, or disappeared between two snapshots. Identity sets are
// represented as sorted slices for deterministic iteration downstream.
type Result struct {
	// Appeared contains identities present in the current snapshot but
	// not in the previous one.
	Appeared []string `json:"appeared,omitempty"`

	// Persisted contains identities present in both snapshots.
	Persisted []string `json:"persisted,omitempty"`

	// Disappeared contains identities present in the previous snapshot
	// but absent from the current one.
	Disappeared []string `json:"disappeared,omitempty"`

	// FirstRun is true when there was no previous snapshot for the query.
	// On a first run every current identity is Appeared, and the registry
	// suppresses notifications for the seeded entries.
	FirstRun bool `json:"first_run,omitempty"`
}

// Empty reports whether the diff contains no appeared and no disappeared
// identities, i.e. the two snapshots hold the same identity set.
func (r *Result) Empty() bool {
	return len(r.Appeared) == 0 && len(r.Disappeared) == 0
}

// Compute diffs the previous snapshot against the current one.
//
// A nil previous snapshot means this is the first run for the query:
// every current identity is classified as appeared with FirstRun set, so
// the registry can seed entries without firing an alert storm. A current
// snapshot with zero results is legitimate: all previous identities
// become disappeared. Distinguishing an empty result set from a provider
// error happens at the orchestration boundary, never here.
func Compute(previous, current *model.Snapshot) *Result {
	result := &Result{}

	if previous == nil {
		result.FirstRun = true
		result.Appeared = current.Identities()
		return result
	}

	for id := range current.Results {
		if previous.Contains(id) {
			result.Persisted = append(result.Persisted, id)
		} else {
			result.Appeared = append(result.Appeared, id)
		}
	}
	for id := range previous.Results {
		if !current.Contains(id) {
			result.Disappeared = append(result.Disappeared, id)
		}
	}

	sort.Strings(result.Appeared)
	sort.Strings(result.Persisted)
	sort.Strings(result.Disappeared)
	return result
}
