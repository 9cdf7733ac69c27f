package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestEncodeParseCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(want)
	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if got == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, want.CreatedAt)
	}
	if got.ID != want.ID {
		t.Fatalf("id mismatch: %s vs %s", got.ID, want.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	cursor, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != nil {
		t.Fatal("expected nil cursor for blank input")
	}
}

func TestParseCursorMalformed(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := ParseCursor("aGVsbG8="); err == nil {
		t.Fatal("expected error for missing separator")
	}
}

func TestTrimPage(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	trimmed, hasMore := TrimPage(rows, 3)
	if !hasMore {
		t.Fatal("expected next page")
	}
	if len(trimmed) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(trimmed))
	}

	trimmed, hasMore = TrimPage(rows[:2], 3)
	if hasMore {
		t.Fatal("did not expect next page")
	}
	if len(trimmed) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(trimmed))
	}
}
