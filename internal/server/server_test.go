package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/registry"
)

// fakeLister serves canned leak entries or a failure.
type fakeLister struct {
	entries []*model.LeakEntry
	counts  map[model.LeakStatus]int
	err     error
}

func (f *fakeLister) List(ctx context.Context, filter registry.Filter) ([]*model.LeakEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	matched := make([]*model.LeakEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		if entry.MatchesFilter(filter.Status, filter.Term) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (f *fakeLister) Counts(ctx context.Context) (map[model.LeakStatus]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

// newTestServer builds a server over the given lister with a fresh
// queries file path and a one-slot trigger channel.
func newTestServer(t *testing.T, leaks LeakLister) (*Server, string, chan struct{}) {
	t.Helper()

	queriesFile := filepath.Join(t.TempDir(), "queries.yaml")
	trigger := make(chan struct{}, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(":0", leaks, queriesFile, trigger, logger), queriesFile, trigger
}

// doRequest drives one request through the in-process router.
func doRequest(t *testing.T, srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// TestHealthz tests the liveness endpoint.
func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &fakeLister{})
	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestGetQueries tests the registry read endpoint.
func TestGetQueries(t *testing.T) {
	t.Parallel()

	t.Run("missing file is an empty registry", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, &fakeLister{})
		rec := doRequest(t, srv, http.MethodGet, "/api/queries", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var payload queriesPayload
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if !payload.OK || len(payload.Queries) != 0 {
			t.Errorf("payload = %+v", payload)
		}
	})

	t.Run("returns stored entries", func(t *testing.T) {
		t.Parallel()

		srv, queriesFile, _ := newTestServer(t, &fakeLister{})
		queries := []model.Query{{Value: "acme.com", Type: model.QueryTypeDomain}}
		if err := config.SaveQueries(queriesFile, queries); err != nil {
			t.Fatalf("failed to seed queries: %v", err)
		}

		rec := doRequest(t, srv, http.MethodGet, "/api/queries", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var payload queriesPayload
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(payload.Queries) != 1 || payload.Queries[0].Value != "acme.com" {
			t.Errorf("queries = %+v", payload.Queries)
		}
	})
}

// TestPutQueries tests registry replacement through the API.
func TestPutQueries(t *testing.T) {
	t.Parallel()

	t.Run("replaces the registry", func(t *testing.T) {
		t.Parallel()

		srv, queriesFile, _ := newTestServer(t, &fakeLister{})
		body := bytes.NewBufferString(`{"queries":[{"q":"acme.com","type":"domain"},{"q":"jdoe@acme.com","type":"email"}]}`)
		rec := doRequest(t, srv, http.MethodPut, "/api/queries", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
		}

		loaded, err := config.LoadQueries(queriesFile)
		if err != nil {
			t.Fatalf("failed to load saved queries: %v", err)
		}
		if len(loaded) != 2 {
			t.Errorf("got %d queries, want 2", len(loaded))
		}
	})

	t.Run("invalid JSON body is rejected", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, &fakeLister{})
		rec := doRequest(t, srv, http.MethodPut, "/api/queries", strings.NewReader("not json"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty registry is rejected", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, &fakeLister{})
		rec := doRequest(t, srv, http.MethodPut, "/api/queries", strings.NewReader(`{"queries":[]}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("duplicate entries are rejected", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, &fakeLister{})
		body := strings.NewReader(`{"queries":[{"q":"acme.com","type":"domain"},{"q":"ACME.com","type":"domain"}]}`)
		rec := doRequest(t, srv, http.MethodPut, "/api/queries", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestGetLeaks tests the masked listing endpoint.
func TestGetLeaks(t *testing.T) {
	t.Parallel()

	entry := &model.LeakEntry{
		ID:         "id-1",
		EntityType: model.QueryTypeDomain,
		Entity:     "acme.com",
		Identity:   "http://example.com/dump",
		Status:     model.LeakStatusNew,
		FoundAt:    time.Now(),
		LastSeenAt: time.Now(),
		Summary:    "Collection #1",
		Details: map[string]string{
			"email":    "jdoe@acme.com",
			"password": "hunter2",
		},
	}
	lister := &fakeLister{
		entries: []*model.LeakEntry{entry},
		counts:  map[model.LeakStatus]int{model.LeakStatusNew: 1},
	}

	t.Run("masks credentials in the listing", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, lister)
		rec := doRequest(t, srv, http.MethodGet, "/api/leaks", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if strings.Contains(body, "hunter2") || strings.Contains(body, "jdoe@acme.com") {
			t.Errorf("clear-text credentials in response: %s", body)
		}

		var payload leaksPayload
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(payload.Items) != 1 {
			t.Fatalf("got %d items, want 1", len(payload.Items))
		}
		if payload.Items[0].Details["email"] != "jd***@a***" {
			t.Errorf("masked email = %q", payload.Items[0].Details["email"])
		}
		if payload.Counts[model.LeakStatusNew] != 1 {
			t.Errorf("counts = %+v", payload.Counts)
		}
	})

	t.Run("status filter applies", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, lister)
		rec := doRequest(t, srv, http.MethodGet, "/api/leaks?status=deleted", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var payload leaksPayload
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(payload.Items) != 0 {
			t.Errorf("got %d items, want 0", len(payload.Items))
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, lister)
		rec := doRequest(t, srv, http.MethodGet, "/api/leaks?status=bogus", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unreachable store answers 503", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := newTestServer(t, &fakeLister{err: errors.New("disk gone")})
		rec := doRequest(t, srv, http.MethodGet, "/api/leaks", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

// TestRunNow tests the immediate run trigger and its coalescing.
func TestRunNow(t *testing.T) {
	t.Parallel()

	srv, _, trigger := newTestServer(t, &fakeLister{})

	rec := doRequest(t, srv, http.MethodPost, "/api/run-now", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case <-trigger:
	default:
		t.Fatal("expected a queued trigger")
	}

	// A second request while a trigger is already queued still answers 202.
	doRequest(t, srv, http.MethodPost, "/api/run-now", nil)
	rec = doRequest(t, srv, http.MethodPost, "/api/run-now", nil)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if len(trigger) != 1 {
		t.Errorf("trigger depth = %d, want coalesced to 1", len(trigger))
	}
}
