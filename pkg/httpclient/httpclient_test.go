package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientSendsHeadersAndReturnsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token" {
			t.Errorf("authorization header = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("user agent = %q", got)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"not found"}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"Authorization": "token"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if string(resp.Body()) != `{"status":"not found"}` {
		t.Fatalf("body = %s", resp.Body())
	}
}

func TestRestyClientHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := NewRestyClient(5*time.Second).Get(ctx, srv.URL, nil); err == nil {
		t.Fatalf("expected deadline error")
	}
}

func TestRestyClientCustomUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "pubfetch/2.0" {
			t.Errorf("user agent = %q", got)
		}
	}))
	defer srv.Close()

	client := NewRestyClient(time.Second, WithUserAgent("pubfetch/2.0"), WithUserAgent("  "))
	if _, err := client.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestThrottledClientStopsOnCancelledContext(t *testing.T) {
	calls := 0
	next := ClientFunc(func(context.Context, string, map[string]string) (Response, error) {
		calls++
		return nil, nil
	})
	client := NewThrottledClient(next, 0.001)

	if _, err := client.Get(context.Background(), "u", nil); err != nil {
		t.Fatalf("first request should use the initial token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, "u", nil)
	if err == nil {
		t.Fatalf("expected rate limit wait error")
	}
	if calls != 1 {
		t.Fatalf("throttled request must not reach the upstream, calls=%d", calls)
	}
}

func TestNewThrottledClientPassthrough(t *testing.T) {
	next := &RestyClient{}
	if got := NewThrottledClient(next, 0); got != Client(next) {
		t.Fatalf("expected passthrough for non-positive rate")
	}
	if got := NewThrottledClient(nil, 5); got != nil {
		t.Fatalf("expected nil client to stay nil")
	}
}
