// Package assess is the boundary with the downstream per-image visual
// assessment service. The dedup engine forwards only images that survive
// duplicate detection; assessment itself is an external collaborator.
package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/redis"
)

// ErrNoEndpoints indicates the client was configured without any
// assessment replicas.
var ErrNoEndpoints = errors.New("no assessment endpoints configured")

// Result is the assessment verdict for a single image.
type Result struct {
	ImageID     string   `json:"image_id"`
	Score       float64  `json:"score"`
	Labels      []string `json:"labels"`
	ProcessedAt time.Time
}

// Config holds configuration for the assessment client.
type Config struct {
	Endpoints []string // replica base URLs, e.g. "http://assess-0:8080"
	Timeout   time.Duration
	// Cache, when set, holds verdicts so re-ingested images skip the
	// HTTP round trip.
	Cache redis.Cache
}

// resultTTL bounds how long a cached verdict is trusted.
const resultTTL = 24 * time.Hour

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// Client submits accepted images for visual assessment, pinning each image
// ID to one replica via consistent hashing.
type Client struct {
	config     Config
	ring       *Ring
	cache      redis.Cache
	httpClient *http.Client
}

// NewClient creates a new assessment client.
func NewClient(config Config) (*Client, error) {
	if len(config.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	ring := NewRing()
	for _, ep := range config.Endpoints {
		ring.Add(ep)
	}
	return &Client{
		config: config,
		ring:   ring,
		cache:  config.Cache,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// resultKey is the cache key for one image's verdict.
func resultKey(imageID string) string {
	return "imagedup:assess:" + hash.FastHash(imageID)
}

// Submit sends raw image bytes for assessment. Verdicts are cached by image
// ID, so resubmitting the same image is served from redis.
func (c *Client) Submit(ctx context.Context, imageID string, imageData []byte) (*Result, error) {
	if cached, ok := c.cachedResult(ctx, imageID); ok {
		return cached, nil
	}

	endpoint, ok := c.ring.Get(imageID)
	if !ok {
		return nil, ErrNoEndpoints
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("image_id", imageID); err != nil {
		return nil, fmt.Errorf("failed to write image_id field: %w", err)
	}
	part, err := writer.CreateFormFile("file", imageID+".jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	result, err := c.doRequest(ctx, endpoint, body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	c.storeResult(ctx, imageID, result)
	return result, nil
}

// cachedResult looks up a prior verdict. Cache failures are treated as
// misses; assessment must not depend on redis being up.
func (c *Client) cachedResult(ctx context.Context, imageID string) (*Result, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.GetString(ctx, resultKey(imageID))
	if err != nil || raw == "" {
		return nil, false
	}
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	return &result, true
}

// storeResult caches a verdict, best effort.
func (c *Client) storeResult(ctx context.Context, imageID string, result *Result) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.cache.SetString(ctx, resultKey(imageID), string(raw), resultTTL)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, body *bytes.Buffer, contentType string) (*Result, error) {
	url := endpoint + "/assess"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call assessment API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assessment API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	result.ProcessedAt = time.Now()
	return &result, nil
}
