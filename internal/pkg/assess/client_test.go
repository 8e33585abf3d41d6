package assess

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/redis"
)

// memCache is an in-memory redis.Cache for tests.
type memCache struct {
	values map[string]string
}

func newMemCache() *memCache { return &memCache{values: make(map[string]string)} }

func (c *memCache) SetString(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) GetString(_ context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *memCache) ScriptRun(_ context.Context, _ *goredis.Script, _ []string, _ ...any) (any, error) {
	return nil, redis.Nil
}

func (c *memCache) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			delete(c.values, k)
			n++
		}
	}
	return n, nil
}

func TestClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assess" {
			t.Errorf("Expected /assess, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
		}
		if got := r.FormValue("image_id"); got != "img1" {
			t.Errorf("image_id = %q; want img1", got)
		}

		json.NewEncoder(w).Encode(Result{
			ImageID: "img1",
			Score:   0.87,
			Labels:  []string{"kitchen", "granite_counter"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoints: []string{server.URL}})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Submit(context.Background(), "img1", []byte{0xFF, 0xD8, 0xFF, 0xE0})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.ImageID != "img1" || result.Score != 0.87 {
		t.Errorf("result = %+v; want img1 with score 0.87", result)
	}
}

func TestClient_SubmitCachesResult(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(Result{ImageID: "img1", Score: 0.42})
	}))
	defer server.Close()

	cache := newMemCache()
	client, err := NewClient(Config{Endpoints: []string{server.URL}, Cache: cache})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	ctx := context.Background()

	first, err := client.Submit(ctx, "img1", []byte{1})
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	second, err := client.Submit(ctx, "img1", []byte{1})
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("backend hits = %d; want 1 (second submit served from cache)", got)
	}
	if second.ImageID != first.ImageID || second.Score != first.Score {
		t.Errorf("cached result = %+v; want %+v", second, first)
	}
	if _, ok := cache.values[resultKey("img1")]; !ok {
		t.Error("verdict missing from cache after Submit")
	}
}

func TestClient_SubmitErrorNotCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := newMemCache()
	client, err := NewClient(Config{Endpoints: []string{server.URL}, Cache: cache})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Submit(context.Background(), "img1", []byte{1}); err == nil {
		t.Fatal("Expected error on 500 response")
	}
	if len(cache.values) != 0 {
		t.Errorf("failed submit left %d cached entries", len(cache.values))
	}
}

func TestClient_SubmitServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoints: []string{server.URL}})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Submit(context.Background(), "img1", []byte{1}); err == nil {
		t.Error("Expected error on 500 response")
	}
}

func TestNewClient_NoEndpoints(t *testing.T) {
	if _, err := NewClient(Config{}); err != ErrNoEndpoints {
		t.Errorf("NewClient error = %v; want ErrNoEndpoints", err)
	}
}

func TestRing_StableAssignment(t *testing.T) {
	ring := NewRing()
	ring.Add("http://a")
	ring.Add("http://b")
	ring.Add("http://c")

	first, ok := ring.Get("img42")
	if !ok {
		t.Fatal("Get on populated ring returned false")
	}
	for i := 0; i < 20; i++ {
		got, _ := ring.Get("img42")
		if got != first {
			t.Fatalf("assignment not stable: %q vs %q", got, first)
		}
	}
}

func TestRing_RemoveEndpoint(t *testing.T) {
	ring := NewRing()
	ring.Add("http://a")
	ring.Add("http://b")

	ring.Remove("http://a")
	for i := 0; i < 50; i++ {
		got, ok := ring.Get("img" + string(rune('a'+i)))
		if !ok || got != "http://b" {
			t.Fatalf("Get = (%q, %v); want only remaining endpoint", got, ok)
		}
	}

	ring.Remove("http://b")
	if _, ok := ring.Get("img1"); ok {
		t.Error("Get on empty ring returned true")
	}
}
