package wizard

import (
	"strings"
	"testing"
)

func completeFields() map[string]string {
	return map[string]string{
		FieldTruckNumber:   "01A123BC",
		FieldStartLocation: "Tashkent",
		FieldTerminalID:    "2",
		FieldContainerName: "MSKU1234567",
		FieldContainerSize: "40",
		FieldContainerType: "laden",
		FieldETA:           "2025-07-01 09:30",
	}
}

func TestBuildRouteDraftComplete(t *testing.T) {
	draft, err := BuildRouteDraft(completeFields())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if draft.TerminalID != 2 {
		t.Fatalf("terminal id = %d, want 2", draft.TerminalID)
	}

	req := draft.Request(99)
	if req.TelegramID != 99 {
		t.Fatalf("telegram id = %d", req.TelegramID)
	}
	if req.TruckNumber != "01A123BC" || req.ContainerType != "laden" {
		t.Fatalf("payload mismatch: %+v", req)
	}
}

func TestBuildRouteDraftMissingField(t *testing.T) {
	for _, missing := range routeFieldOrder {
		t.Run(missing, func(t *testing.T) {
			fields := completeFields()
			delete(fields, missing)

			_, err := BuildRouteDraft(fields)
			if err == nil {
				t.Fatal("expected error for missing field")
			}
			if !strings.Contains(err.Error(), missing) {
				t.Fatalf("error %q does not name the missing field %q", err, missing)
			}
		})
	}
}

func TestBuildRouteDraftBadTerminalID(t *testing.T) {
	fields := completeFields()
	fields[FieldTerminalID] = "ULS"

	if _, err := BuildRouteDraft(fields); err == nil {
		t.Fatal("expected error for non-numeric terminal id")
	}
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2025-07-01 09:30", true},
		{"2025-7-1 09:30", true},
		{"2025-07-01", true},
		{"01.07.2025 09:30", true},
		{"1.7.2025", true},
		{"tomorrow", false},
		{"", false},
		{"2025/07/01", false},
	}
	for _, tt := range tests {
		if _, ok := ParseFlexibleDate(tt.in); ok != tt.ok {
			t.Errorf("ParseFlexibleDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}
