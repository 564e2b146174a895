package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("cx") != "cx" {
			t.Errorf("missing credentials in query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("q") != "carbon emissions fell 12%" {
			t.Errorf("unexpected query: %s", r.URL.Query().Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"Report","link":"https://gov.example/report","snippet":"emissions fell 12% in 2025"}]}`))
	}))
	defer srv.Close()

	c := New("k", "cx", srv.URL, 5, 5*time.Second, "test-agent")
	items, err := c.Search(context.Background(), "carbon emissions fell 12%")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 1 || items[0].Link != "https://gov.example/report" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("k", "cx", srv.URL, 5, 5*time.Second, "test-agent")
	if _, err := c.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestNew_NoKeyReturnsNil(t *testing.T) {
	if c := New("", "cx", "", 5, time.Second, "ua"); c != nil {
		t.Error("missing API key must yield a nil client")
	}
}
