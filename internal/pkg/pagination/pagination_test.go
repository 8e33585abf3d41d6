package pagination

import (
	"errors"
	"testing"
	"time"
)

func TestCursor_EncodeDecode(t *testing.T) {
	c := &Cursor{
		ID:           "img42",
		RegisteredAt: time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
	}

	decoded, err := DecodeCursor(c.Encode())
	if err != nil {
		t.Fatalf("DecodeCursor failed: %v", err)
	}
	if decoded.ID != c.ID || !decoded.RegisteredAt.Equal(c.RegisteredAt) {
		t.Errorf("decoded = %+v; want %+v", decoded, c)
	}
}

func TestDecodeCursor_Empty(t *testing.T) {
	c, err := DecodeCursor("")
	if err != nil || c != nil {
		t.Errorf("DecodeCursor(\"\") = (%v, %v); want (nil, nil)", c, err)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, s := range []string{"not-base64!!", "bm90IGpzb24"} {
		if _, err := DecodeCursor(s); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("DecodeCursor(%q) error = %v; want ErrInvalidCursor", s, err)
		}
	}
}

func TestCursorRequest_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"over max uses default", MaxLimit + 1, DefaultLimit},
		{"valid passes through", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCursorRequest("", tt.limit)
			if got := r.GetLimit(); got != tt.want {
				t.Errorf("GetLimit() = %d; want %d", got, tt.want)
			}
			if got := r.GetFetchLimit(); got != tt.want+1 {
				t.Errorf("GetFetchLimit() = %d; want %d", got, tt.want+1)
			}
		})
	}
}

func TestBuildCursorResponse(t *testing.T) {
	type item struct{ id string }
	builder := func(i item) *Cursor { return &Cursor{ID: i.id} }

	t.Run("has more", func(t *testing.T) {
		items := []item{{"a"}, {"b"}, {"c"}}
		resp := BuildCursorResponse(items, 2, builder)
		if len(resp.Items) != 2 || !resp.HasMore {
			t.Errorf("resp = %+v; want 2 items with HasMore", resp)
		}
		cursor, err := DecodeCursor(resp.NextCursor)
		if err != nil || cursor.ID != "b" {
			t.Errorf("next cursor = (%+v, %v); want last returned item", cursor, err)
		}
	})

	t.Run("last page", func(t *testing.T) {
		items := []item{{"a"}}
		resp := BuildCursorResponse(items, 2, builder)
		if resp.HasMore || resp.NextCursor != "" {
			t.Errorf("resp = %+v; want final page without cursor", resp)
		}
	})
}
