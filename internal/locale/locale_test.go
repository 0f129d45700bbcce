package locale

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTranslationCompleteness(t *testing.T) {
	for _, file := range localeFiles {
		t.Run(file, func(t *testing.T) {
			data, err := localeData.ReadFile("locales/" + file)
			if err != nil {
				t.Fatalf("read %s: %v", file, err)
			}
			var messages map[string]any
			if err := json.Unmarshal(data, &messages); err != nil {
				t.Fatalf("parse %s: %v", file, err)
			}

			for _, id := range All {
				if _, ok := messages[id]; !ok {
					t.Errorf("%s is missing message %q", file, id)
				}
			}
			for id := range messages {
				found := false
				for _, known := range All {
					if known == id {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("%s contains unused message %q", file, id)
				}
			}
		})
	}
}

func TestTranslatorResolvesBothLanguages(t *testing.T) {
	tr, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, lang := range []string{Uz, Ru} {
		for _, id := range All {
			got := tr.T(lang, id)
			if got == "" {
				t.Errorf("%s/%s resolved to empty string", lang, id)
			}
			if got == id {
				// A message resolving to its own id means the lookup failed.
				t.Errorf("%s/%s fell back to the id", lang, id)
			}
		}
	}
}

func TestTranslatorTemplateData(t *testing.T) {
	tr, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got := tr.Tf(Uz, RegSuccess, map[string]any{"Name": "Alisher"})
	if !strings.Contains(got, "Alisher") {
		t.Fatalf("template data not interpolated: %q", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"uz", Uz},
		{"ru", Ru},
		{"", Default},
		{"en", Default},
		{"UZ", Default},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnknownIDReturnsID(t *testing.T) {
	tr, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := tr.T(Uz, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Fatalf("unknown id resolved to %q", got)
	}
}
