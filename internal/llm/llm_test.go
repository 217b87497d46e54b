package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/prepmate/internal/genapi"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newFakeAPI serves /chat/completions, replying with content (or an error status when
// status is not 200) and recording each request body.
func newFakeAPI(t *testing.T, status int, content string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		seen = append(seen, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestGenerateCourseTrimsText(t *testing.T) {
	srv, seen := newFakeAPI(t, http.StatusOK, "  # SUMMARY\nAll about Go.\n")
	c := New(srv.URL+"/v1", "key", "test-model")

	resp, err := c.Generate(context.Background(), genapi.CourseRequest("Go", "exam", "beginner"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !resp.Success || resp.Text != "# SUMMARY\nAll about Go." {
		t.Errorf("response = %+v", resp)
	}
	if len(*seen) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*seen))
	}
	req := (*seen)[0]
	if req.Model != "test-model" || req.MaxTokens != 8192 {
		t.Errorf("unexpected request settings: %+v", req)
	}
	if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "course on Go for exam at beginner level") {
		t.Errorf("unexpected prompt: %+v", req.Messages)
	}
}

func TestGenerateDispatch(t *testing.T) {
	tests := []struct {
		name       string
		req        genapi.Request
		wantPrompt string
		wantTokens int
	}{
		{"course", genapi.CourseRequest("Go", "exam", "beginner"), "complete course on Go", 8192},
		{"flashcards", genapi.FlashcardsRequest("Go", "exam", "beginner"), "20 detailed flashcards", 4096},
		{"questions", genapi.QuestionsRequest("SRE", "Kubernetes", "5+", 3), "Generate 3 interview questions", 2048},
		{"analysis", genapi.AnalysisRequest("SRE", "What is an SLO?", "A target"), "What is an SLO?", 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newFakeAPI(t, http.StatusOK, "generated")
			resp, err := New(srv.URL, "key", "m").Generate(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if !resp.Success || resp.Text != "generated" {
				t.Errorf("unexpected response: %+v", resp)
			}
			var meta map[string]any
			if err := json.Unmarshal(resp.Data, &meta); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if meta["finish_reason"] != "stop" {
				t.Errorf("data = %s", resp.Data)
			}
			req := (*seen)[0]
			if req.MaxTokens != tt.wantTokens {
				t.Errorf("max tokens = %d, want %d", req.MaxTokens, tt.wantTokens)
			}
			if !strings.Contains(req.Messages[0].Content, tt.wantPrompt) {
				t.Errorf("prompt missing %q:\n%s", tt.wantPrompt, req.Messages[0].Content)
			}
		})
	}
}

func TestGenerateReportsFailures(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusServiceUnavailable, "")
	c := New(srv.URL, "key", "m")

	resp, err := c.Generate(context.Background(), genapi.CourseRequest("Go", "exam", "beginner"))
	if err != nil {
		t.Fatalf("expected failure response, got error %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("expected unsuccessful response, got %+v", resp)
	}

	resp, err = c.Generate(context.Background(), genapi.Request{Action: "summon"})
	if err != nil || resp.Success {
		t.Fatalf("unknown action: resp=%+v err=%v", resp, err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK, "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, "key", "m").Generate(ctx, genapi.CourseRequest("Go", "exam", "beginner"))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
