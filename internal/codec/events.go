package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/nodeforge/taskengine/internal/node"
)

// eventsFromPreamble extracts the events list. Missing events -> [].
func eventsFromPreamble(p *preamble) []node.Event {
	raw, ok := p.raw["events"]
	if !ok || raw == nil {
		return []node.Event{}
	}
	items, ok := raw.([]interface{})
	if !ok {
		return []node.Event{}
	}
	out := make([]node.Event, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ev := node.Event{
			ID:      fmt.Sprintf("%v", m["id"]),
			Type:    node.EventType(fmt.Sprintf("%v", m["type"])),
			Message: fmt.Sprintf("%v", m["message"]),
			Path:    fmt.Sprintf("%v", m["path"]),
		}
		if ts, ok := m["timestamp"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				ev.Timestamp = parsed
			}
		}
		out = append(out, ev)
	}
	return out
}

// renderEvents serializes the events list as an indented YAML block
// compatible with the preamble's surrounding `---` delimiters.
func renderEvents(events []node.Event) string {
	if len(events) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("events:\n")
	for _, ev := range events {
		sb.WriteString(fmt.Sprintf("  - id: %s\n", yamlScalar(ev.ID)))
		sb.WriteString(fmt.Sprintf("    type: %s\n", yamlScalar(string(ev.Type))))
		if !ev.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("    timestamp: %s\n", yamlScalar(ev.Timestamp.UTC().Format(time.RFC3339))))
		}
		if ev.Message != "" {
			sb.WriteString(fmt.Sprintf("    message: %s\n", yamlScalar(ev.Message)))
		}
		if ev.Path != "" {
			sb.WriteString(fmt.Sprintf("    path: %s\n", yamlScalar(ev.Path)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
