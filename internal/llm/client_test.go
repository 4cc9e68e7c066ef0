package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateForLogging(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "short text is kept", input: "Criar história", want: "Criar história"},
		{name: "ascii is cut at the limit", input: strings.Repeat("a", 600), want: strings.Repeat("a", 500) + "... [truncated]"},
		// "ç" is two bytes; the 500-byte limit falls inside the last one
		{name: "multi-byte rune is not split", input: strings.Repeat("a", 499) + strings.Repeat("ç", 10), want: strings.Repeat("a", 499) + "... [truncated]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateForLogging(tt.input)
			if got != tt.want {
				t.Errorf("truncateForLogging() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateForLogging() returned invalid UTF-8: %q", got)
			}
		})
	}
}
