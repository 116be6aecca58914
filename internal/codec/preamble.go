package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// preambleOrder is the canonical serialization order for known preamble
// keys. Keys not listed here (unknown, forward-compatible) are emitted
// afterwards in sorted order.
var preambleOrder = []string{
	"id", "title", "status", "kind", "domain", "phase", "component", "parent",
	"priority", "created", "updated", "tags", "assignee", "progress",
	"blocked", "blockers", "project_item_id", "project_issue_number",
	"subtask_project_ids", "revision", "depends_on", "idempotency_key",
	"plan_current",
}

var knownPreambleKeys = func() map[string]bool {
	m := make(map[string]bool, len(preambleOrder))
	for _, k := range preambleOrder {
		m[k] = true
	}
	m["events"] = true
	return m
}()

// preamble is the parsed form of the YAML-style metadata block, with known
// scalar/list fields extracted and any unrecognized keys preserved verbatim
// in Extra for forward compatibility.
type preamble struct {
	raw   map[string]interface{}
	Extra map[string]string
}

func parsePreamble(text string) (*preamble, error) {
	raw := map[string]interface{}{}
	if strings.TrimSpace(text) != "" {
		if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("invalid preamble: %w", err)
		}
	}
	p := &preamble{raw: raw, Extra: map[string]string{}}
	for k, v := range raw {
		if !knownPreambleKeys[k] {
			p.Extra[k] = fmt.Sprintf("%v", v)
		}
	}
	return p, nil
}

func (p *preamble) str(key string) string {
	v, ok := p.raw[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func (p *preamble) intOr(key string, def int) int {
	v, ok := p.raw[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// boolField parses the boolean accepted-value set from §4.1:
// {да, yes, true, 1, +} -> true; {нет, no, false, 0} -> false.
func (p *preamble) boolField(key string) bool {
	v, ok := p.raw[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t == 1
	case string:
		return parseBoolToken(t)
	default:
		return false
	}
}

func parseBoolToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "да", "yes", "true", "1", "+":
		return true
	default:
		return false
	}
}

func (p *preamble) list(key string) []string {
	v, ok := p.raw[key]
	if !ok || v == nil {
		return []string{}
	}
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}

func (p *preamble) timeOr(key string, def time.Time) time.Time {
	s := p.str(key)
	if s == "" {
		return def
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return def
	}
	return t
}

// preambleWriter accumulates ordered key/value lines for serialization.
type preambleWriter struct {
	lines []string
}

func (w *preambleWriter) str(key, value string) {
	if value == "" {
		return
	}
	w.lines = append(w.lines, fmt.Sprintf("%s: %s", key, yamlScalar(value)))
}

func (w *preambleWriter) forceStr(key, value string) {
	w.lines = append(w.lines, fmt.Sprintf("%s: %s", key, yamlScalar(value)))
}

func (w *preambleWriter) intField(key string, value, zero int) {
	if value == zero {
		return
	}
	w.lines = append(w.lines, fmt.Sprintf("%s: %d", key, value))
}

func (w *preambleWriter) forceInt(key string, value int) {
	w.lines = append(w.lines, fmt.Sprintf("%s: %d", key, value))
}

func (w *preambleWriter) boolField(key string, value bool) {
	if !value {
		return
	}
	w.lines = append(w.lines, fmt.Sprintf("%s: true", key))
}

func (w *preambleWriter) list(key string, values []string) {
	if len(values) == 0 {
		return
	}
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = yamlScalar(v)
	}
	w.lines = append(w.lines, fmt.Sprintf("%s: [%s]", key, strings.Join(rendered, ", ")))
}

func (w *preambleWriter) timeField(key string, t time.Time) {
	if t.IsZero() {
		return
	}
	w.str(key, t.UTC().Format(time.RFC3339))
}

func (w *preambleWriter) extras(extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.lines = append(w.lines, fmt.Sprintf("%s: %s", k, yamlScalar(extra[k])))
	}
}

func (w *preambleWriter) render() string {
	return strings.Join(w.lines, "\n")
}

// yamlScalar quotes a string for safe YAML scalar emission when it contains
// characters that would otherwise change its parsed type or break syntax.
func yamlScalar(s string) string {
	needsQuote := s == "" ||
		strings.ContainsAny(s, ":#[]{}\"'\n") ||
		strings.TrimSpace(s) != s
	if !needsQuote {
		// Avoid accidentally emitting bare words YAML would coerce (true/false/null/numbers).
		switch strings.ToLower(s) {
		case "true", "false", "null", "yes", "no":
			needsQuote = true
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			needsQuote = true
		} else if _, err := strconv.ParseInt(s, 0, 64); err == nil {
			needsQuote = true
		}
	}
	if !needsQuote {
		return s
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSpace(string(out))
}
