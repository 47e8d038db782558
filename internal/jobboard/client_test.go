package jobboard

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", contentType)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := New(zaptest.NewLogger(t), srv.URL+"/", "secret")
	c.RetryDelay = time.Millisecond
	return c
}

func TestGetActiveJobsPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != JobsPath {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.URL.Query().Get("status"); got != "active" {
			t.Errorf("unexpected status query %q", got)
		}

		switch r.URL.Query().Get("page") {
		case "0":
			writeJSON(t, w, map[string]any{
				"items": []map[string]any{{"id": "1", "title": "Cook", "createdAt": 1700000000000}},
				"pages": 2,
				"page":  0,
			})
		case "1":
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer gz.Close()
			if err := json.NewEncoder(gz).Encode(map[string]any{
				"items": []map[string]any{{"id": "2", "title": "Driver", "requirements": []string{"Driving"}}},
				"pages": 2,
				"page":  1,
			}); err != nil {
				t.Errorf("encode gzip response: %v", err)
			}
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv).GetActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []string{"1", "2"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, got.IDs())
	}
	if got.Items[0].CreatedAt != 1700000000000 {
		t.Fatalf("unexpected createdAt %d", got.Items[0].CreatedAt)
	}
	if !reflect.DeepEqual(got.Items[1].Requirements, []string{"Driving"}) {
		t.Fatalf("unexpected requirements %v", got.Items[1].Requirements)
	}
}

func TestGetItemsRejectsStuckPagination(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{
			"items": []map[string]any{{"id": "1"}},
			"pages": 3,
			"page":  0,
		})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).GetActiveJobs(context.Background())
	if !errors.Is(err, ErrBadPagination) {
		t.Fatalf("expected ErrBadPagination, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGetItemsStopsAtFirstPageCount(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		// later answers claim more pages than the first one did
		pages := 2
		if page > 0 {
			pages = 10
		}
		writeJSON(t, w, map[string]any{
			"items": []map[string]any{{"id": "job-" + strconv.Itoa(page)}},
			"pages": pages,
			"page":  page,
		})
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv).GetActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"job-0", "job-1"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, got.IDs())
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, map[string]any{"items": []any{}, "pages": 1, "page": 0})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.MaxRetries = 1

	got, err := c.GetActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected no jobs, got %d", got.Len())
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestRequestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.MaxRetries = 2

	_, err := c.GetActiveJobs(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway status error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.MaxRetries = 3

	if _, err := c.GetActiveJobs(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProfilesPath + "/p1":
			writeJSON(t, w, map[string]any{
				"skills":         []string{"Cooking"},
				"location":       "Mumbai",
				"expectedSalary": "15000",
				"experience":     []map[string]any{{"title": "Cook", "company": "Hotel"}},
			})
		case ProfilesPath + "/null":
			writeJSON(t, w, nil)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	profile, err := c.GetProfile(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Location != "Mumbai" || profile.ExpectedSalary != "15000" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if len(profile.Experience) != 1 || profile.Experience[0].Title != "Cook" {
		t.Fatalf("unexpected experience: %+v", profile.Experience)
	}

	for _, id := range []string{"missing", "null"} {
		if _, err := c.GetProfile(context.Background(), id); !errors.Is(err, ErrProfileNotFound) {
			t.Fatalf("%s: expected ErrProfileNotFound, got %v", id, err)
		}
	}

	if _, err := c.GetProfile(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank id")
	}
}

func TestGetItemsStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.MaxRetries = 5
	c.RetryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.GetItems(ctx, srv.URL+JobsPath, nil); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
