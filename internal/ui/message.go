package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kafka2i/kafka2i/internal/types"
)

// messageTitle shows the offset and, when known, the timestamp and its age
func messageTitle(m *types.Message, now time.Time) string {
	title := fmt.Sprintf("Offset: %d", m.Offset)
	if m.Timestamp == nil {
		return title
	}
	ts := time.UnixMilli(*m.Timestamp)
	return fmt.Sprintf("%s | Timestamp: %d (%s)", title, *m.Timestamp, humanize.RelTime(ts, now, "ago", "from now"))
}

// messageBody renders key, headers and payload. JSON payloads are indented.
func messageBody(m *types.Message) string {
	var b strings.Builder

	b.WriteString("Key: ")
	b.WriteString(m.KeyOrDefault())

	b.WriteString("\n\nHeaders:")
	if len(m.Headers) == 0 {
		b.WriteString(" No headers")
	}
	for _, h := range m.Headers {
		b.WriteString("\n  ")
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
	}

	b.WriteString("\n\nPayload:\n")
	b.WriteString(prettyPayload(m.PayloadOrDefault()))
	return b.String()
}

func prettyPayload(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return payload
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(trimmed), "", "  "); err != nil {
		return payload
	}
	return out.String()
}
