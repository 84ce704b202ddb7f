package diff

import (
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// snapshotOf builds a snapshot from plain links for test setup.
func snapshotOf(t *testing.T, links ...string) *model.Snapshot {
	t.Helper()

	results := make([]model.RawResult, 0, len(links))
	for _, link := range links {
		results = append(results, model.RawResult{Link: link})
	}
	return model.NewSnapshot("domain:acme.com", time.Now(), results)
}

// TestComputeFirstRun tests diffing against a missing previous snapshot.
func TestComputeFirstRun(t *testing.T) {
	t.Parallel()

	current := snapshotOf(t, "http://b.example.com", "http://a.example.com")
	result := Compute(nil, current)

	if !result.FirstRun {
		t.Error("expected FirstRun to be true")
	}
	want := []string{"http://a.example.com", "http://b.example.com"}
	if !reflect.DeepEqual(result.Appeared, want) {
		t.Errorf("Appeared = %v, want %v", result.Appeared, want)
	}
	if len(result.Persisted) != 0 || len(result.Disappeared) != 0 {
		t.Errorf("expected no persisted or disappeared identities: %+v", result)
	}
}

// TestComputeSelfDiff tests that diffing a snapshot against an equal one
// is empty.
func TestComputeSelfDiff(t *testing.T) {
	t.Parallel()

	previous := snapshotOf(t, "http://a.example.com", "http://b.example.com")
	current := snapshotOf(t, "http://b.example.com", "http://a.example.com")

	result := Compute(previous, current)
	if !result.Empty() {
		t.Errorf("expected empty diff, got %+v", result)
	}
	if result.FirstRun {
		t.Error("FirstRun must be false with a previous snapshot")
	}
	want := []string{"http://a.example.com", "http://b.example.com"}
	if !reflect.DeepEqual(result.Persisted, want) {
		t.Errorf("Persisted = %v, want %v", result.Persisted, want)
	}
}

// TestComputeTransitions tests the three-way classification.
func TestComputeTransitions(t *testing.T) {
	t.Parallel()

	previous := snapshotOf(t, "http://a.example.com", "http://b.example.com")
	current := snapshotOf(t, "http://b.example.com", "http://c.example.com")

	result := Compute(previous, current)

	if !reflect.DeepEqual(result.Appeared, []string{"http://c.example.com"}) {
		t.Errorf("Appeared = %v", result.Appeared)
	}
	if !reflect.DeepEqual(result.Persisted, []string{"http://b.example.com"}) {
		t.Errorf("Persisted = %v", result.Persisted)
	}
	if !reflect.DeepEqual(result.Disappeared, []string{"http://a.example.com"}) {
		t.Errorf("Disappeared = %v", result.Disappeared)
	}
	if result.Empty() {
		t.Error("Empty() = true for a diff with transitions")
	}
}

// TestComputeEmptyCurrent tests that an empty current snapshot marks
// everything as disappeared.
func TestComputeEmptyCurrent(t *testing.T) {
	t.Parallel()

	previous := snapshotOf(t, "http://a.example.com", "http://b.example.com")
	current := snapshotOf(t)

	result := Compute(previous, current)

	want := []string{"http://a.example.com", "http://b.example.com"}
	if !reflect.DeepEqual(result.Disappeared, want) {
		t.Errorf("Disappeared = %v, want %v", result.Disappeared, want)
	}
	if len(result.Appeared) != 0 {
		t.Errorf("Appeared = %v, want none", result.Appeared)
	}
}

// TestComputeNormalizedEquivalence tests that link spelling differences
// do not produce spurious transitions.
func TestComputeNormalizedEquivalence(t *testing.T) {
	t.Parallel()

	previous := snapshotOf(t, "http://Example.com/page?utm_source=x")
	current := snapshotOf(t, "http://example.com/page/")

	result := Compute(previous, current)
	if !result.Empty() {
		t.Errorf("expected empty diff for equivalent links, got %+v", result)
	}
}
