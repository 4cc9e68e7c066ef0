package common

import (
	"encoding/json"
	"errors"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// ErrNoText is returned when a message has no usable text
var ErrNoText = errors.New("message has no text")

// ExtractText joins the text parts of a message. Data parts contribute their
// "text", "message" or "prompt" field.
func ExtractText(message protocol.Message) (string, error) {
	var texts []string
	for _, part := range message.Parts {
		switch v := part.(type) {
		case protocol.TextPart:
			texts = appendText(texts, v.Text)
		case *protocol.TextPart:
			if v != nil {
				texts = appendText(texts, v.Text)
			}
		case protocol.DataPart:
			texts = appendData(texts, v)
		case *protocol.DataPart:
			if v != nil {
				texts = appendData(texts, *v)
			}
		}
	}

	if len(texts) == 0 {
		return "", ErrNoText
	}
	return strings.Join(texts, "\n"), nil
}

func appendText(texts []string, text string) []string {
	if strings.TrimSpace(text) == "" {
		return texts
	}
	return append(texts, text)
}

func appendData(texts []string, part protocol.DataPart) []string {
	raw, err := json.Marshal(part.Data)
	if err != nil {
		return texts
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return texts
	}
	if text, ok := GetStringValue(data, "text", "message", "prompt"); ok {
		return appendText(texts, text)
	}
	return texts
}
