package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
)

// TestHelperProcess stands in for the generation script. It fails while the
// context has more than four words and otherwise echoes a continuation.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("TEXTGEN_HELPER") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	// -- python script context --length N ...
	context := args[3]
	if len(strings.Fields(context)) > 4 {
		fmt.Fprint(os.Stderr, "out of memory")
		os.Exit(1)
	}
	fmt.Printf("%s|%s|%s and they lived.<|endoftext|>\n", context, args[5], args[9])
	os.Exit(0)
}

func helperCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "TEXTGEN_HELPER=1")
	return cmd
}

func TestSubprocessShrinksContext(t *testing.T) {
	g := NewSubprocess("python3", "generate_text.py", "774M")
	g.command = helperCommand

	got, err := g.Generate(context.Background(), "one two three four five six", 120)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// six words, then five, then four
	if want := "three four five six|120|774M and they lived."; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSubprocessGivesUp(t *testing.T) {
	g := NewSubprocess("python3", "generate_text.py", "774M")
	g.command = helperCommand

	long := strings.Repeat("word ", 200)
	_, err := g.Generate(context.Background(), long, 10)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestShrink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a b c d e f g h i", "c d e f g h i"},
		{"a b", "a b"},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := shrink(tt.in); got != tt.want {
			t.Errorf("shrink(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenRouterGenerate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("auth=%q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Messages[1].Content != "b c d e" {
			t.Errorf("retry content=%q", req.Messages[1].Content)
		}
		if req.MaxTokens != 50 || req.Temperature == nil {
			t.Errorf("request=%+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":" The end.<|endoftext|>"}}]}`)
	}))
	defer srv.Close()

	g := NewOpenRouter("key", "meta-llama/llama-3.1-8b-instruct")
	g.baseURL = srv.URL

	got, err := g.Generate(context.Background(), "a b c d e", 50)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "The end." {
		t.Fatalf("got %q", got)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("calls=%d, want 2", n)
	}
}

func TestOpenRouterRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewOpenRouter("key", "google/gemini-flash")
	g.baseURL = srv.URL

	if _, err := g.Generate(context.Background(), "ctx", 10); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
