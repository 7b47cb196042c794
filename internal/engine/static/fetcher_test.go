package static

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/law-makers/parscrape/internal/engine"
	"github.com/law-makers/parscrape/pkg/models"
)

func TestFetcher_Fetch_BasicHTML(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title> Hello World </title></head>
<body><h1>Hello World</h1><a href="/link1">Link 1</a></body>
</html>`))
	}))
	defer server.Close()

	f := New(server.Client(), "parscrape-test/1.0")

	data, err := f.Fetch(context.Background(), models.FetchOptions{
		URL:      server.URL,
		WaitType: models.WaitNone,
		Timeout:  5 * time.Second,
		Headers:  map[string]string{"X-Test": "yes"},
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if data.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", data.StatusCode)
	}
	if data.Title != "Hello World" {
		t.Errorf("Expected title 'Hello World', got '%s'", data.Title)
	}
	if gotUA != "parscrape-test/1.0" {
		t.Errorf("Expected configured user agent, got %q", gotUA)
	}
	if gotCustom != "yes" {
		t.Errorf("Expected custom header to be forwarded, got %q", gotCustom)
	}
	if data.HTML == "" {
		t.Errorf("Expected HTML to be returned")
	}
}

func TestFetcher_Fetch_UserAgentOverride(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	f := New(server.Client(), "default-agent")
	_, err := f.Fetch(context.Background(), models.FetchOptions{
		URL:       server.URL,
		WaitType:  models.WaitNone,
		UserAgent: "override-agent",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotUA != "override-agent" {
		t.Errorf("Expected override user agent, got %q", gotUA)
	}
}

func TestFetcher_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	f := New(server.Client(), "")
	_, err := f.Fetch(context.Background(), models.FetchOptions{
		URL:      server.URL,
		WaitType: models.WaitNone,
		Timeout:  100 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if code := engine.Classify(err).Code; code != engine.ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT, got %s (%v)", code, err)
	}
}

func TestFetcher_Fetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := New(nil, "")
	_, err := f.Fetch(context.Background(), models.FetchOptions{URL: url, WaitType: models.WaitNone, Timeout: time.Second})
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if code := engine.Classify(err).Code; code != engine.ErrCodeNetworkError {
		t.Errorf("Expected NETWORK_ERROR, got %s (%v)", code, err)
	}
}

func TestFetcher_SleepWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>x</p>"))
	}))
	defer server.Close()

	f := New(server.Client(), "")
	start := time.Now()
	_, err := f.Fetch(context.Background(), models.FetchOptions{
		URL:      server.URL,
		WaitType: models.WaitSleep,
		Sleep:    150 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if time.Since(start) < 150*time.Millisecond {
		t.Errorf("Expected sleep strategy to delay the result")
	}
}
