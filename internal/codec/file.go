// Package codec parses and serializes the store's on-disk text format: a
// YAML-style metadata preamble delimited by `---` lines, followed by a
// Markdown body sectioned by fixed `## Heading` markers. See spec §4.1.
package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/nodeforge/taskengine/internal/node"
)

const delimiter = "---"

// ErrInvalidPreamble is returned when a file's metadata block cannot be
// parsed. Per §4.1, invalid files are ignored (logged), never auto-repaired.
type ErrInvalidPreamble struct {
	Path string
	Err  error
}

func (e *ErrInvalidPreamble) Error() string {
	return fmt.Sprintf("invalid preamble in %s: %v", e.Path, e.Err)
}

func (e *ErrInvalidPreamble) Unwrap() error { return e.Err }

// split breaks the raw file text into its preamble and body around the
// leading `---` ... `---` delimiters.
func split(data string) (preambleText, body string, err error) {
	lines := strings.Split(data, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return "", "", fmt.Errorf("missing opening %q delimiter", delimiter)
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", fmt.Errorf("missing closing %q delimiter", delimiter)
	}
	preambleText = strings.Join(lines[1:end], "\n")
	body = strings.Join(lines[end+1:], "\n")
	return preambleText, body, nil
}

// Parse decodes a root (Plan or Task) from raw file bytes.
func Parse(data []byte) (node.Root, error) {
	preText, body, err := split(string(data))
	if err != nil {
		return nil, err
	}
	p, err := parsePreamble(preText)
	if err != nil {
		return nil, err
	}

	kind := p.str("kind")
	if kind == "" {
		switch {
		case strings.HasPrefix(p.str("id"), planPrefix):
			kind = string(node.KindPlan)
		default:
			kind = string(node.KindTask)
		}
	}

	sections := splitSections(body)

	switch node.Kind(kind) {
	case node.KindPlan:
		return parsePlanRoot(p, sections), nil
	default:
		return parseTaskRoot(p, sections), nil
	}
}

func parsePlanRoot(p *preamble, sections map[string][]string) *node.Plan {
	now := time.Time{}
	pl := &node.Plan{
		ID:                 p.str("id"),
		Title:              p.str("title"),
		Domain:             p.str("domain"),
		Phase:              p.str("phase"),
		Component:          p.str("component"),
		Tags:               p.list("tags"),
		Priority:           p.str("priority"),
		Assignee:           p.str("assignee"),
		Created:            p.timeOr("created", now),
		Updated:            p.timeOr("updated", now),
		Blocked:            p.boolField("blocked"),
		ProjectItemID:      p.str("project_item_id"),
		ProjectIssueNumber: p.str("project_issue_number"),
		Revision:           p.intOr("revision", 0),
		Events:             eventsFromPreamble(p),
		PlanCurrent:        p.intOr("plan_current", 0),
		IdempotencyKey:     p.str("idempotency_key"),
		Extra:              p.Extra,
	}
	blockers := p.list("blockers")
	if len(blockers) > 0 {
		pl.BlockedReason = blockers[0]
	}
	pl.Contract = paragraph(sections[HeadingDescription])
	pl.PlanDoc = paragraph(sections[HeadingContext])
	pl.PlanSteps = bulletList(sections[HeadingSteps])
	for _, line := range sections[HeadingHistory] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "- ")
		if idx := strings.Index(line, "::"); idx >= 0 {
			ts, _ := time.Parse(time.RFC3339, strings.TrimSpace(line[:idx]))
			pl.ContractVersions = append(pl.ContractVersions, node.ContractVersion{
				Timestamp: ts,
				Text:      strings.TrimSpace(line[idx+2:]),
			})
		}
	}
	return pl
}

func parseTaskRoot(p *preamble, sections map[string][]string) *node.Task {
	now := time.Time{}
	t := &node.Task{
		ID:                 p.str("id"),
		Title:              p.str("title"),
		Domain:             p.str("domain"),
		Phase:              p.str("phase"),
		Component:          p.str("component"),
		Tags:               p.list("tags"),
		Priority:           p.str("priority"),
		Assignee:           p.str("assignee"),
		Created:            p.timeOr("created", now),
		Updated:            p.timeOr("updated", now),
		Blocked:            p.boolField("blocked"),
		ProjectItemID:      p.str("project_item_id"),
		ProjectIssueNumber: p.str("project_issue_number"),
		SubtaskProjectIDs:  p.list("subtask_project_ids"),
		Revision:           p.intOr("revision", 0),
		Events:             eventsFromPreamble(p),
		Parent:             p.str("parent"),
		DependsOn:          p.list("depends_on"),
		IdempotencyKey:     p.str("idempotency_key"),
		Extra:              p.Extra,
		Status:             node.Status(p.str("status")),
	}
	blockers := p.list("blockers")
	if len(blockers) > 0 {
		t.BlockedReason = blockers[0]
	}
	t.Description = paragraph(sections[HeadingDescription])
	t.Context = paragraph(sections[HeadingContext])
	t.SuccessCriteria = bulletList(sections[HeadingCriteria])
	t.Risks = bulletList(sections[HeadingRisks])
	t.Problems = bulletList(sections[HeadingProblems])
	t.NextSteps = bulletList(sections[HeadingNextSteps])
	t.History = bulletList(sections[HeadingHistory])
	t.Steps = parseStepsSection(sections[HeadingSteps])
	if t.Status == "" {
		t.Status = t.ComputeStatus()
	}
	return t
}

// Serialize encodes a root back to its on-disk text form.
func Serialize(root node.Root) ([]byte, error) {
	switch r := root.(type) {
	case *node.Plan:
		return serializePlanRoot(r), nil
	case *node.Task:
		return serializeTaskRoot(r), nil
	default:
		return nil, fmt.Errorf("unsupported root type %T", root)
	}
}

func serializePlanRoot(p *node.Plan) []byte {
	w := &preambleWriter{}
	w.forceStr("id", p.ID)
	w.forceStr("title", p.Title)
	w.forceStr("kind", string(node.KindPlan))
	w.str("domain", p.Domain)
	w.str("phase", p.Phase)
	w.str("component", p.Component)
	w.str("priority", p.Priority)
	w.timeField("created", p.Created)
	w.timeField("updated", p.Updated)
	w.list("tags", p.Tags)
	w.str("assignee", p.Assignee)
	w.boolField("blocked", p.Blocked)
	if p.Blocked && p.BlockedReason != "" {
		w.list("blockers", []string{p.BlockedReason})
	}
	w.str("project_item_id", p.ProjectItemID)
	w.str("project_issue_number", p.ProjectIssueNumber)
	w.forceInt("revision", p.Revision)
	w.str("idempotency_key", p.IdempotencyKey)
	w.intField("plan_current", p.PlanCurrent, 0)
	w.extras(p.Extra)
	if ev := renderEvents(p.Events); ev != "" {
		w.lines = append(w.lines, ev)
	}

	var body strings.Builder
	body.WriteString(renderParagraphSection(HeadingDescription, p.Contract))
	body.WriteString(renderParagraphSection(HeadingContext, p.PlanDoc))
	body.WriteString(renderBulletSection(HeadingSteps, p.PlanSteps))
	if len(p.ContractVersions) > 0 {
		lines := make([]string, len(p.ContractVersions))
		for i, cv := range p.ContractVersions {
			lines[i] = fmt.Sprintf("%s :: %s", cv.Timestamp.UTC().Format(time.RFC3339), cv.Text)
		}
		body.WriteString(renderBulletSection(HeadingHistory, lines))
	}

	return assemble(w, body.String())
}

func serializeTaskRoot(t *node.Task) []byte {
	w := &preambleWriter{}
	w.forceStr("id", t.ID)
	w.forceStr("title", t.Title)
	w.forceStr("status", string(t.Status))
	w.forceStr("kind", string(node.KindTask))
	w.str("domain", t.Domain)
	w.str("phase", t.Phase)
	w.str("component", t.Component)
	w.str("parent", t.Parent)
	w.str("priority", t.Priority)
	w.timeField("created", t.Created)
	w.timeField("updated", t.Updated)
	w.list("tags", t.Tags)
	w.str("assignee", t.Assignee)
	w.forceInt("progress", t.Progress())
	w.boolField("blocked", t.Blocked)
	if t.Blocked && t.BlockedReason != "" {
		w.list("blockers", []string{t.BlockedReason})
	}
	w.str("project_item_id", t.ProjectItemID)
	w.str("project_issue_number", t.ProjectIssueNumber)
	w.list("subtask_project_ids", t.SubtaskProjectIDs)
	w.forceInt("revision", t.Revision)
	w.list("depends_on", t.DependsOn)
	w.str("idempotency_key", t.IdempotencyKey)
	w.extras(t.Extra)
	if ev := renderEvents(t.Events); ev != "" {
		w.lines = append(w.lines, ev)
	}

	var body strings.Builder
	body.WriteString(renderParagraphSection(HeadingDescription, t.Description))
	body.WriteString(renderParagraphSection(HeadingContext, t.Context))
	body.WriteString(renderBulletSection(HeadingCriteria, t.SuccessCriteria))
	body.WriteString(renderBulletSection(HeadingDependencies, t.DependsOn))
	body.WriteString(renderBulletSection(HeadingRisks, t.Risks))
	body.WriteString(renderBulletSection(HeadingProblems, t.Problems))
	body.WriteString(renderBulletSection(HeadingNextSteps, t.NextSteps))
	body.WriteString(renderBulletSection(HeadingHistory, t.History))
	if steps := renderSteps(t.Steps, 0); steps != "" {
		body.WriteString(fmt.Sprintf("## %s\n%s", HeadingSteps, steps))
	}

	return assemble(w, body.String())
}

func assemble(w *preambleWriter, body string) []byte {
	var sb strings.Builder
	sb.WriteString(delimiter + "\n")
	sb.WriteString(w.render())
	sb.WriteString("\n" + delimiter + "\n\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
