package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"model present", http.StatusOK, `{"models":[{"name":"llama3:8b"},{"name":"qwen2.5-coder:7b"}]}`, nil},
		{"family variant", http.StatusOK, `{"models":[{"name":"qwen2.5-coder:14b"}]}`, nil},
		{"model missing", http.StatusOK, `{"models":[{"name":"llama3:8b"}]}`, ErrModelNotFound},
		{"bad status", http.StatusInternalServerError, ``, ErrUnreachable},
		{"bad json", http.StatusOK, `{`, ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			err := newTestClient(t, ts.URL).Ping(context.Background())
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_PingUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if err := newTestClient(t, url).Ping(context.Background()); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p generatePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
			return
		}
		if p.Model != DefaultModel || p.Stream || p.Options.NumCtx != DefaultNumCtx || p.Options.Temperature != 0.3 {
			t.Errorf("unexpected payload %+v", p)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "  hello there \n"})
	}))
	defer ts.Close()

	out, err := newTestClient(t, ts.URL).Generate(context.Background(), Request{Prompt: "hi", Temperature: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello there" {
		t.Errorf("expected trimmed reply, got %q", out)
	}
}

func TestClient_GenerateStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model crashed"))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Generate(context.Background(), Request{Prompt: "hi"})
	var ge *GenerationError
	if !errors.As(err, &ge) || ge.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(ge.Error(), "model crashed") {
		t.Errorf("expected body in message, got %q", ge.Error())
	}
}

func TestClient_GenerateTrimsOnOverflow(t *testing.T) {
	var (
		calls   atomic.Int32
		mu      sync.Mutex
		lengths []int
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p generatePayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		lengths = append(lengths, len(p.Prompt))
		mu.Unlock()
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"input exceeds the context window"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	}))
	defer ts.Close()

	prompt := "HEADER\n=== RESEARCH\n" + strings.Repeat("content line\n", 400) + "=== END\nFOOTER"
	out, err := newTestClient(t, ts.URL).Generate(context.Background(), Request{Prompt: prompt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || calls.Load() != 2 {
		t.Fatalf("expected success on the trimmed retry, got %q after %d calls", out, calls.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if lengths[1] >= lengths[0] {
		t.Errorf("expected shorter retry prompt, got %v", lengths)
	}
}

func TestClient_GenerateOverflowTwice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "too many tokens for context"})
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Generate(context.Background(), Request{Prompt: strings.Repeat("x", 1000)})
	var cle *ContextLengthError
	if !errors.As(err, &cle) {
		t.Fatalf("expected ContextLengthError, got %v", err)
	}
}

func TestClient_GenerateUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url).Generate(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
