package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONStringArrayValueAndScan(t *testing.T) {
	tags := JSONStringArray{"prod", "pci"}

	value, err := tags.Value()
	if err != nil {
		t.Fatalf("failed to serialize tags: %v", err)
	}
	raw, ok := value.([]byte)
	if !ok {
		t.Fatalf("expected []byte, got %T", value)
	}

	var scanned JSONStringArray
	if err := scanned.Scan(raw); err != nil {
		t.Fatalf("failed to scan tags: %v", err)
	}
	if diff := cmp.Diff(tags, scanned); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONStringArrayEmptyValueIsNull(t *testing.T) {
	value, err := JSONStringArray(nil).Value()
	if err != nil {
		t.Fatalf("failed to serialize empty tags: %v", err)
	}
	if value != nil {
		t.Errorf("expected nil value for empty array, got %v", value)
	}

	var scanned JSONStringArray
	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("failed to scan nil: %v", err)
	}
	if scanned != nil {
		t.Errorf("expected nil tags, got %v", scanned)
	}
}

func TestJSONStringArrayScanRejectsWrongType(t *testing.T) {
	var scanned JSONStringArray
	if err := scanned.Scan(42); err == nil {
		t.Fatal("expected an error for a non-byte value")
	}
}
