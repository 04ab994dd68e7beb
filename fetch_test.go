package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
  <title>Go Memory Model</title>
  <script>console.log("ignore me");</script>
  <style>body { color: red; }</style>
</head>
<body>
  <nav>Home | Docs | Blog</nav>
  <main>
    <h1>The Go Memory Model</h1>
    <p>The Go memory model specifies the conditions under which reads
    observe writes.</p>
  </main>
  <footer>Copyright notice</footer>
</body>
</html>`

// TestFetchURLContent extracts readable text and strips page chrome
func TestFetchURLContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != FetchUserAgent {
			t.Errorf("User-Agent: got %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	content, err := FetchURLContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchURLContent failed: %v", err)
	}

	if !strings.HasPrefix(content, "Go Memory Model") {
		t.Errorf("Content should start with the page title: %q", content)
	}
	if !strings.Contains(content, "reads observe writes") {
		t.Errorf("Content missing body text: %q", content)
	}
	for _, stripped := range []string{"console.log", "color: red", "Home | Docs", "Copyright notice"} {
		if strings.Contains(content, stripped) {
			t.Errorf("Content should not contain %q", stripped)
		}
	}
}

// TestFetchURLContentTruncation caps the extracted text length
func TestFetchURLContentTruncation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><main>" + strings.Repeat("word ", 10000) + "</main></body></html>"))
	}))
	defer server.Close()

	content, err := FetchURLContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchURLContent failed: %v", err)
	}
	if len(content) > MaxFetchedContentLength {
		t.Errorf("Content length %d exceeds cap %d", len(content), MaxFetchedContentLength)
	}
}

// TestFetchURLContentErrors covers bad status and empty pages
func TestFetchURLContentErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "no readable content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html><body><script>only()</script></body></html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			if _, err := FetchURLContent(context.Background(), server.URL); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
