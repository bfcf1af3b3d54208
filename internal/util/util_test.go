package util

import "testing"

func TestFixEscapeQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no escaped quotes", "hello", "hello"},
		{"single escaped quote", `he""llo`, `he"llo`},
		{"multiple escaped quotes", `a""b""c`, `a"b"c`},
		{"consecutive escaped", `a""""b`, `a""b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FixEscapeQuotes(tt.input)
			if result != tt.expected {
				t.Errorf("FixEscapeQuotes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Kick", "Kick"},
		{"padded", "  Kick ", "Kick"},
		{"quoted", `"Kick In"`, "Kick In"},
		{"inner escaped", `"Lead ""Vox"""`, `Lead "Vox"`},
		{"lone quote", `"`, `"`},
		{"empty quoted", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Unquote(tt.input)
			if result != tt.expected {
				t.Errorf("Unquote(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
