package chat

import (
	"encoding/json"
	"strings"
)

// StreamRequest is the body of POST /api/chat/stream. The UI sends its
// full history; only the latest user entry is forwarded upstream.
type StreamRequest struct {
	Messages []IncomingMessage `json:"messages"`
}

// IncomingMessage tolerates the content shapes different UI SDK
// versions produce: a plain string, an array of strings and {text}
// objects, or a typed parts list.
type IncomingMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
	Parts   []Part          `json:"parts,omitempty"`
}

// Part is one element of a typed-parts message.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text resolves the message's display text. Each content variant has
// its own extractor; the first variant that decodes wins.
func (m IncomingMessage) Text() string {
	if s, ok := contentString(m.Content); ok {
		return s
	}
	if s, ok := contentFragments(m.Content); ok {
		return s
	}
	return textParts(m.Parts)
}

// LatestUserText scans the history from the end and returns the
// trimmed text of the most recent user message, or "" when none
// carries any text.
func LatestUserText(messages []IncomingMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != string(RoleUser) {
			continue
		}
		return strings.TrimSpace(messages[i].Text())
	}
	return ""
}

func contentString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// contentFragments handles the array form, whose elements are either
// bare strings or objects with a text field.
func contentFragments(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", false
	}

	var b strings.Builder
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			b.WriteString(s)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			b.WriteString(obj.Text)
		}
	}
	return b.String(), true
}

func textParts(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
