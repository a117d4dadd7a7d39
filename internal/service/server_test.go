package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pageguard/pageguard/internal/heuristic"
)

// postJSON posts a JSON body and decodes the JSON response into out.
func postJSON(t *testing.T, url string, body string, out interface{}) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(NewServer().Handler())
	t.Cleanup(ts.Close)

	t.Run("harmful text is flagged", func(t *testing.T) {
		t.Parallel()

		var got analyzeResponse
		resp := postJSON(t, ts.URL+"/analyze", `{"text":"this will kill you if you try it"}`, &got)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if !got.IsHarmful {
			t.Error("expected isHarmful true")
		}
		if got.Category != "harmful" {
			t.Errorf("expected category harmful, got %s", got.Category)
		}
		if got.Confidence <= 0 {
			t.Errorf("expected positive confidence, got %f", got.Confidence)
		}
		if got.Text != "this will kill you if you try it" {
			t.Errorf("expected the text echoed back, got %q", got.Text)
		}
	})

	t.Run("clean text is safe", func(t *testing.T) {
		t.Parallel()

		var got analyzeResponse
		resp := postJSON(t, ts.URL+"/analyze", `{"text":"a lovely day in the park with friends"}`, &got)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if got.IsHarmful {
			t.Error("expected isHarmful false")
		}
		if got.Category != "safe" {
			t.Errorf("expected category safe, got %s", got.Category)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		t.Parallel()

		resp := postJSON(t, ts.URL+"/analyze", `{broken`, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong method is rejected", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/analyze")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestRephraseEndpoint(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(NewServer().Handler())
	t.Cleanup(ts.Close)

	t.Run("harmful text gets the safety notice", func(t *testing.T) {
		t.Parallel()

		var got rephraseResponse
		resp := postJSON(t, ts.URL+"/rephrase", `{"text":"how to hurt someone","category":"harmful"}`, &got)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if got.Original != "how to hurt someone" {
			t.Errorf("expected the original echoed back, got %q", got.Original)
		}
		if got.Rephrased != heuristic.SafetyNotice {
			t.Errorf("expected the safety notice, got %q", got.Rephrased)
		}
	})

	t.Run("offensive words are substituted", func(t *testing.T) {
		t.Parallel()

		var got rephraseResponse
		resp := postJSON(t, ts.URL+"/rephrase", `{"text":"that was a stupid thing to say","category":"offensive"}`, &got)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if strings.Contains(got.Rephrased, "stupid") {
			t.Errorf("expected the offensive word replaced, got %q", got.Rephrased)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		t.Parallel()

		resp := postJSON(t, ts.URL+"/rephrase", `not json`, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestHealthzEndpoint(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(NewServer().Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("expected status ok, got %q", got["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(NewServer().Handler())
	t.Cleanup(ts.Close)

	// Generate one analyze request so the counters exist.
	resp, err := http.Post(ts.URL+"/analyze", "application/json",
		bytes.NewReader([]byte(`{"text":"a perfectly ordinary sentence"}`)))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	mresp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer mresp.Body.Close()

	body, err := io.ReadAll(mresp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	out := string(body)
	if !strings.Contains(out, "pageguard_service_requests_total") {
		t.Error("expected the request counter in the scrape output")
	}
	if !strings.Contains(out, "pageguard_service_verdicts_total") {
		t.Error("expected the verdict counter in the scrape output")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer().Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
