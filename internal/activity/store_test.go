package activity

import (
	"testing"
	"time"
)

func TestEncodeCursor(t *testing.T) {
	ts := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	id := int64(42)

	cursor := encodeCursor(ts, id)
	if cursor == "" {
		t.Fatal("expected non-empty cursor")
	}

	gotTime, gotID, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("unexpected error decoding cursor: %v", err)
	}
	if !gotTime.Equal(ts) {
		t.Errorf("time mismatch: got %v, want %v", gotTime, ts)
	}
	if gotID != id {
		t.Errorf("id mismatch: got %d, want %d", gotID, id)
	}
}

func TestDecodeCursorInvalidBase64(t *testing.T) {
	_, _, err := decodeCursor("not-valid-base64!!!")
	if err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestDecodeCursorInvalidFormat(t *testing.T) {
	// Valid base64 but missing the pipe separator.
	_, _, err := decodeCursor("bm9waXBl") // "nopipe"
	if err == nil {
		t.Fatal("expected error for missing separator")
	}
}

func TestDecodeCursorInvalidTime(t *testing.T) {
	// "bad-time|some-id" in base64.
	_, _, err := decodeCursor("YmFkLXRpbWV8c29tZS1pZA")
	if err == nil {
		t.Fatal("expected error for invalid time")
	}
}

func TestDecodeCursorInvalidID(t *testing.T) {
	// "2024-01-02T03:04:05Z|notanumber" in base64.
	_, _, err := decodeCursor("MjAyNC0wMS0wMlQwMzowNDowNVp8bm90YW51bWJlcg")
	if err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestEncodeCursorRoundTripNano(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)
	id := int64(9007199254740993)

	cursor := encodeCursor(ts, id)
	gotTime, gotID, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotTime.Equal(ts) {
		t.Errorf("nanosecond precision lost: got %v, want %v", gotTime, ts)
	}
	if gotID != id {
		t.Errorf("id mismatch: got %d, want %d", gotID, id)
	}
}
