package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func headersFor(t *testing.T, clientType ClientType) http.Header {
	t.Helper()
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	resp, err := NewClient(clientType, 0).GetContext(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	return got
}

func TestHTTPClient_ImageHeaders(t *testing.T) {
	got := headersFor(t, ImageClient)
	if got.Get("Referer") != "https://www.google.com/" {
		t.Errorf("Referer = %q", got.Get("Referer"))
	}
	if !strings.HasPrefix(got.Get("Accept"), "image/") || got.Get("User-Agent") != userAgent {
		t.Errorf("missing browser headers: %v", got)
	}
}

func TestHTTPClient_BrowserHeaders(t *testing.T) {
	got := headersFor(t, BrowserClient)
	if !strings.HasPrefix(got.Get("Accept"), "text/html") {
		t.Errorf("Accept = %q", got.Get("Accept"))
	}
	if got.Get("Referer") != "" {
		t.Errorf("browser profile should not send a Referer, got %q", got.Get("Referer"))
	}
}

func TestHTTPClient_PlainHeaders(t *testing.T) {
	if ua := headersFor(t, PlainClient).Get("User-Agent"); ua != "curl/8.7.1" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestParseClientType(t *testing.T) {
	tests := map[string]ClientType{"": ImageClient, "image": ImageClient, "browser": BrowserClient, "plain": PlainClient}
	for in, want := range tests {
		got, err := ParseClientType(in)
		if err != nil || got != want {
			t.Errorf("ParseClientType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseClientType("wget"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestHTTPClient_GetContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(BrowserClient, 0).GetContext(ctx, server.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	if _, err := NewClient(ImageClient, 50*time.Millisecond).GetContext(context.Background(), server.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}
