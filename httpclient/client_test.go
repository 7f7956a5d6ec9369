package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// Requirement: Get decodes JSON answers into Data and keeps the raw bytes.
func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"name": "ada"})
	}))
	defer server.Close()

	res, err := New(server.URL).Get(context.Background(), "/users/1", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.StatusCode != 200 {
		t.Errorf("status = %d", res.StatusCode)
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["name"] != "ada" {
		t.Errorf("data = %v", res.Data)
	}
	if len(res.Content) == 0 {
		t.Error("raw content missing")
	}
}

// Requirement: Data serializes as the JSON request body with the matching
// content type; Params merge into the query string.
func TestClientPostDataAndParams(t *testing.T) {
	var gotBody map[string]string
	var gotQuery, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.Query().Get("notify")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(201)
	}))
	defer server.Close()

	res, err := New(server.URL).Post(context.Background(), "/users", &Options{
		Data:   map[string]string{"name": "ada"},
		Params: map[string]string{"notify": "true"},
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.StatusCode != 201 {
		t.Errorf("status = %d", res.StatusCode)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotBody["name"] != "ada" {
		t.Errorf("body = %v", gotBody)
	}
	if gotQuery != "true" {
		t.Errorf("query notify = %q", gotQuery)
	}
}

// Requirement: 4xx answers return a *StatusError without retrying; the
// response stays available for inspection.
func TestClientClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"nope"}`, 404)
	}))
	defer server.Close()

	res, err := New(server.URL).Get(context.Background(), "/missing", &Options{MaxRetries: 3})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if res == nil || res.StatusCode != 404 {
		t.Fatalf("response = %+v", res)
	}
	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on 4xx)", calls.Load())
	}
}

// Requirement: 5xx answers retry up to MaxRetries and succeed when the server
// recovers.
func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", 503)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	res, err := New(server.URL).Get(context.Background(), "/flaky", &Options{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.StatusCode != 200 {
		t.Errorf("status = %d", res.StatusCode)
	}
	if calls.Load() != 3 {
		t.Errorf("server hit %d times, want 3", calls.Load())
	}
}

// Requirement: retries exhaust into the final failure, not a success.
func TestClientRetriesExhaust(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", 500)
	}))
	defer server.Close()

	res, err := New(server.URL).Get(context.Background(), "/down", &Options{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if res == nil || res.StatusCode != 500 {
		t.Errorf("response = %+v", res)
	}
	if calls.Load() != 3 {
		t.Errorf("server hit %d times, want 3 (initial + 2 retries)", calls.Load())
	}
}

// Requirement: request interceptors mutate the outgoing request and can abort
// the call; response interceptors observe answers before decoding.
func TestClientInterceptors(t *testing.T) {
	t.Run("request interceptor adds headers", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
		}))
		defer server.Close()

		client := New(server.URL)
		client.OnRequest(func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer tok")
			return nil
		})
		if _, err := client.Get(context.Background(), "/", nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("Authorization = %q", gotAuth)
		}
	})

	t.Run("request interceptor error aborts the call", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client := New(server.URL)
		client.OnRequest(func(req *http.Request) error {
			return errors.New("no credentials available")
		})
		if _, err := client.Get(context.Background(), "/", nil); err == nil {
			t.Fatal("expected the interceptor's error")
		}
		if calls.Load() != 0 {
			t.Errorf("server hit %d times, want 0", calls.Load())
		}
	})

	t.Run("response interceptor observes the answer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Trace", "abc123")
		}))
		defer server.Close()

		var gotTrace string
		client := New(server.URL)
		client.OnResponse(func(res *http.Response) error {
			gotTrace = res.Header.Get("X-Trace")
			return nil
		})
		if _, err := client.Get(context.Background(), "/", nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if gotTrace != "abc123" {
			t.Errorf("X-Trace = %q", gotTrace)
		}
	})
}

// Requirement: disabling FollowRedirects returns the 3xx itself instead of
// chasing it — but note 3xx is not an error.
func TestClientFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		case "/new":
			w.Write([]byte("landed"))
		}
	}))
	defer server.Close()

	followed, err := New(server.URL).Get(context.Background(), "/old", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(followed.Content) != "landed" {
		t.Errorf("followed body = %q", followed.Content)
	}

	off := false
	stopped, err := New(server.URL).Get(context.Background(), "/old", &Options{FollowRedirects: &off})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stopped.StatusCode != 301 {
		t.Errorf("status = %d, want the raw 301", stopped.StatusCode)
	}
}

// Requirement: a cancelled context stops the retry loop promptly.
func TestClientContextCancelStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", 500)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL).Get(ctx, "/down", &Options{MaxRetries: 5, RetryDelay: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// Requirement: relative paths resolve against the base URL; absolute URLs
// pass through untouched.
func TestClientBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	res, err := New(server.URL + "/").Get(context.Background(), "nested/path", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(res.Content) != "/nested/path" {
		t.Errorf("path = %q", res.Content)
	}

	res, err = New("").Get(context.Background(), server.URL+"/absolute", nil)
	if err != nil {
		t.Fatalf("absolute Get: %v", err)
	}
	if string(res.Content) != "/absolute" {
		t.Errorf("path = %q", res.Content)
	}
}
