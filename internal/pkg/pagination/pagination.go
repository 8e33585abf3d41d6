// Package pagination provides cursor-based pagination for catalog listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrInvalidCursor = errors.New("invalid cursor")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Cursor represents a pagination cursor.
type Cursor struct {
	ID           string    `json:"id,omitempty"`
	RegisteredAt time.Time `json:"registered_at,omitempty"`
}

// Encode encodes cursor to base64 string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes base64 string to Cursor.
func DecodeCursor(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}

// CursorRequest represents a cursor-based pagination request.
type CursorRequest struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// NewCursorRequest creates a new cursor request with defaults.
func NewCursorRequest(cursor string, limit int) *CursorRequest {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return &CursorRequest{
		Cursor: cursor,
		Limit:  limit,
	}
}

// GetLimit returns validated limit.
func (r *CursorRequest) GetLimit() int {
	if r.Limit <= 0 || r.Limit > MaxLimit {
		return DefaultLimit
	}
	return r.Limit
}

// GetFetchLimit returns limit+1 for checking hasMore.
func (r *CursorRequest) GetFetchLimit() int {
	return r.GetLimit() + 1
}

// DecodedCursor returns the decoded cursor.
func (r *CursorRequest) DecodedCursor() (*Cursor, error) {
	return DecodeCursor(r.Cursor)
}

// CursorResponse represents a cursor-based pagination response.
type CursorResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Total      int64  `json:"total,omitempty"`
}

// BuildCursorResponse builds a cursor response from a fetch of limit+1 items.
func BuildCursorResponse[T any](items []T, limit int, cursorBuilder func(T) *Cursor) *CursorResponse[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	resp := &CursorResponse[T]{
		Items:   items,
		HasMore: hasMore,
	}

	if len(items) > 0 && hasMore {
		lastItem := items[len(items)-1]
		cursor := cursorBuilder(lastItem)
		resp.NextCursor = cursor.Encode()
	}

	return resp
}
