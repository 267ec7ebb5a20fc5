package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFetchCurrentBuildsRequestAndNormalizes(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-key", srv.URL, 0, zap.NewNop())

	obs, err := c.Fetch(context.Background(), "Dakar")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotPath != "/current.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if got := gotQuery["q"]; len(got) != 1 || got[0] != "Dakar" {
		t.Errorf("unexpected q parameter %v", got)
	}
	if got := gotQuery["key"]; len(got) != 1 || got[0] != "test-key" {
		t.Errorf("api key not sent, got %v", got)
	}

	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].Location.Name != "Dakar" || obs[0].Condition.Code != 1000 {
		t.Errorf("unexpected observation: %+v", obs[0])
	}
}

func TestFetchIncludesHistoryDays(t *testing.T) {
	var historyCalls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/current.json":
			_, _ = w.Write([]byte(currentJSON))
		case "/history.json":
			historyCalls = append(historyCalls, r.URL.Query().Get("dt"))
			_, _ = w.Write([]byte(historyJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-key", srv.URL, 2, zap.NewNop())

	obs, err := c.Fetch(context.Background(), "Dakar")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(historyCalls) != 2 {
		t.Fatalf("expected 2 history requests, got %d", len(historyCalls))
	}
	for _, dt := range historyCalls {
		if _, err := time.Parse("2006-01-02", dt); err != nil {
			t.Errorf("history dt parameter %q is not a date", dt)
		}
	}
	// 1 current + 2 hourly rows per history day.
	if len(obs) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(obs))
	}
}

func TestFetchToleratesHistoryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/current.json" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(currentJSON))
			return
		}
		http.Error(w, "no history for plan", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-key", srv.URL, 1, zap.NewNop())

	obs, err := c.Fetch(context.Background(), "Dakar")
	if err != nil {
		t.Fatalf("history failure must not fail the fetch: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected current-only observations, got %d", len(obs))
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "test-key", srv.URL, 0, zap.NewNop())
	c.httpCfg.Backoff.InitialInterval = time.Millisecond

	if _, err := c.Fetch(context.Background(), "Dakar"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestFetchFailsWithoutAPIKey(t *testing.T) {
	c := NewClient(http.DefaultClient, "", "http://api.invalid", 0, zap.NewNop())
	if _, err := c.Fetch(context.Background(), "Dakar"); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
