package common

import (
	"errors"
	"testing"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name    string
		parts   []protocol.Part
		want    string
		wantErr error
	}{
		{
			name:  "text part value",
			parts: []protocol.Part{protocol.TextPart{Text: "write an epic"}},
			want:  "write an epic",
		},
		{
			name:  "text part pointer",
			parts: []protocol.Part{&protocol.TextPart{Text: "write an epic"}},
			want:  "write an epic",
		},
		{
			name: "several parts are joined",
			parts: []protocol.Part{
				&protocol.TextPart{Text: "first"},
				&protocol.TextPart{Text: "  "},
				protocol.TextPart{Text: "second"},
			},
			want: "first\nsecond",
		},
		{
			name:  "data part with message field",
			parts: []protocol.Part{protocol.DataPart{Data: map[string]interface{}{"message": "file it in DEMO"}}},
			want:  "file it in DEMO",
		},
		{
			name:    "data part without text",
			parts:   []protocol.Part{&protocol.DataPart{Data: map[string]interface{}{"ticketId": "DEMO-1"}}},
			wantErr: ErrNoText,
		},
		{
			name:    "no parts",
			wantErr: ErrNoText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(protocol.Message{Parts: tt.parts})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExtractText() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetStringValue(t *testing.T) {
	data := map[string]interface{}{"summary": "", "title": "Login", "count": 3}

	if got, ok := GetStringValue(data, "summary", "title"); !ok || got != "Login" {
		t.Errorf("GetStringValue() = %q, %v; want Login, true", got, ok)
	}
	if _, ok := GetStringValue(data, "count", "missing"); ok {
		t.Error("expected no value for non-string and missing keys")
	}
}
