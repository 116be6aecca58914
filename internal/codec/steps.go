package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/nodeforge/taskengine/internal/node"
)

// Step encoding recurses Step -> PlanNode -> TaskNode -> Step ... by
// indentation, two spaces per level. A step bullet at indent L carries its
// own attribute lines (Критерии, Тесты, Чекпоинты, ...) at L+1; an embedded
// "План:" attribute at L+1 opens a PlanNode block whose own attributes
// (and "Задача:" lines) sit at L+2; each "Задача:" opens a TaskNode block
// whose attributes and nested step bullets sit at L+3 — back to a fresh
// step-bullet indent, closing the cycle.
const indentUnit = "  "

type tok struct {
	indent int
	text   string // trimmed content, without leading "- "
}

func tokenize(lines []string) []tok {
	var out []tok
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		spaces := 0
		for spaces < len(line) && line[spaces] == ' ' {
			spaces++
		}
		content := strings.TrimSpace(line[spaces:])
		content = strings.TrimPrefix(content, "- ")
		out = append(out, tok{indent: spaces / 2, text: content})
	}
	return out
}

type stepParser struct {
	toks []tok
	pos  int
}

func parseStepsSection(lines []string) []*node.Step {
	p := &stepParser{toks: tokenize(lines)}
	return p.parseSteps(0)
}

func (p *stepParser) peek() (tok, bool) {
	if p.pos >= len(p.toks) {
		return tok{}, false
	}
	return p.toks[p.pos], true
}

func (p *stepParser) parseSteps(indent int) []*node.Step {
	var steps []*node.Step
	for {
		t, ok := p.peek()
		if !ok || t.indent != indent {
			break
		}
		completed, title, isStep := parseCheckbox(t.text)
		if !isStep {
			break
		}
		p.pos++
		s := &node.Step{Title: title, Completed: completed}
		p.parseStepAttrs(s, indent+1)
		steps = append(steps, s)
	}
	return steps
}

func parseCheckbox(text string) (completed bool, title string, ok bool) {
	switch {
	case strings.HasPrefix(text, "[x] "):
		return true, strings.TrimPrefix(text, "[x] "), true
	case strings.HasPrefix(text, "[ ] "):
		return false, strings.TrimPrefix(text, "[ ] "), true
	default:
		return false, "", false
	}
}

func (p *stepParser) parseStepAttrs(s *node.Step, indent int) {
	for {
		t, ok := p.peek()
		if !ok || t.indent != indent {
			return
		}
		key, val, isAttr := splitAttr(t.text)
		if !isAttr {
			return
		}
		p.pos++
		switch key {
		case "ID":
			s.ID = val
		case "Критерии":
			s.Criteria = splitSemicolons(val)
		case "Тесты":
			s.Tests = splitSemicolons(val)
		case "Блокеры":
			s.Blockers = splitSemicolons(val)
		case "Чекпоинты":
			applyCheckpointTokens(s, val)
		case "Отметки критериев":
			s.CriteriaCheckpoint.Notes = splitSemicolons(val)
		case "Отметки тестов":
			s.TestsCheckpoint.Notes = splitSemicolons(val)
		case "Отметки блокеров":
			s.BlockersCheckpoint.Notes = splitSemicolons(val)
		case "Прогресс":
			s.ProgressNotes = splitSemicolons(val)
		case "Начато":
			if tm, err := time.Parse(time.RFC3339, val); err == nil {
				s.StartedAt = &tm
			}
		case "Завершено":
			if tm, err := time.Parse(time.RFC3339, val); err == nil {
				s.CompletedAt = &tm
			}
		case "Создано":
			if tm, err := time.Parse(time.RFC3339, val); err == nil {
				s.CreatedAt = tm
			}
		case "Заблокировано":
			applyBlocked(val, &s.Blocked, &s.BlockedReason)
		case "Вывод проверки":
			s.VerificationOutcome = val
		case "Проверки":
			s.VerificationChecks = parseVerificationChecks(val)
		case "Вложения":
			s.Attachments = parseAttachments(val)
		case "План":
			id, title := splitIDTitle(val)
			s.Plan = p.parsePlanNode(id, title, indent+1)
		}
	}
}

func (p *stepParser) parsePlanNode(id, title string, indent int) *node.PlanNode {
	pn := &node.PlanNode{ID: id, Title: title}
	for {
		t, ok := p.peek()
		if !ok || t.indent != indent {
			return pn
		}
		key, val, isAttr := splitAttr(t.text)
		if isAttr {
			p.pos++
			switch key {
			case "Контракт":
				pn.Contract = val
			case "Документ":
				pn.PlanDoc = val
			case "ПланШаги":
				pn.PlanSteps = splitSemicolons(val)
			case "ПланТекущий":
				fmt.Sscanf(val, "%d", &pn.PlanCurrent)
			case "Задача":
				tid, ttitle := splitIDTitle(val)
				pn.Tasks = append(pn.Tasks, p.parseTaskNode(tid, ttitle, indent+1))
			}
			continue
		}
		return pn
	}
}

func (p *stepParser) parseTaskNode(id, title string, indent int) *node.TaskNode {
	tn := &node.TaskNode{ID: id, Title: title}
	for {
		t, ok := p.peek()
		if !ok || t.indent != indent {
			return tn
		}
		if completed, stepTitle, isStep := parseCheckbox(t.text); isStep {
			p.pos++
			s := &node.Step{Title: stepTitle, Completed: completed}
			p.parseStepAttrs(s, indent+1)
			tn.Steps = append(tn.Steps, s)
			continue
		}
		key, val, isAttr := splitAttr(t.text)
		if !isAttr {
			return tn
		}
		p.pos++
		switch key {
		case "Описание":
			tn.Description = val
		case "Контекст":
			tn.Context = val
		case "Домен":
			tn.Domain = val
		case "Фаза":
			tn.Phase = val
		case "Компонент":
			tn.Component = val
		case "Зависит":
			tn.DependsOn = splitSemicolons(val)
		case "Критерии":
			tn.SuccessCriteria = splitSemicolons(val)
		case "Риски":
			tn.Risks = splitSemicolons(val)
		case "Проблемы":
			tn.Problems = splitSemicolons(val)
		case "Шаги":
			tn.NextSteps = splitSemicolons(val)
		case "История":
			tn.History = splitSemicolons(val)
		case "СтатусРучной":
			parts := strings.SplitN(val, ";", 2)
			tn.StatusManual = parseBoolToken(strings.TrimSpace(parts[0]))
			if len(parts) > 1 {
				tn.Status = node.Status(strings.TrimSpace(parts[1]))
			}
		case "Заблокировано":
			applyBlocked(val, &tn.Blocked, &tn.BlockedReason)
		}
	}
}

func splitAttr(text string) (key, val string, ok bool) {
	idx := strings.Index(text, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), true
}

func splitSemicolons(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitIDTitle(s string) (id, title string) {
	parts := strings.SplitN(s, " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return s, ""
}

func applyCheckpointTokens(s *node.Step, val string) {
	for _, part := range strings.Split(val, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		token := node.CheckpointToken(strings.TrimSpace(kv[1]))
		cp := tokenToCheckpoint(token)
		switch key {
		case "Критерии":
			cp.Notes = s.CriteriaCheckpoint.Notes
			s.CriteriaCheckpoint = cp
		case "Тесты":
			cp.Notes = s.TestsCheckpoint.Notes
			s.TestsCheckpoint = cp
		case "Блокеры":
			cp.Notes = s.BlockersCheckpoint.Notes
			s.BlockersCheckpoint = cp
		}
	}
}

func tokenToCheckpoint(tkn node.CheckpointToken) node.Checkpoint {
	switch tkn {
	case node.TokenOK:
		return node.Checkpoint{Confirmed: true}
	case node.TokenAuto:
		return node.Checkpoint{AutoConfirmed: true}
	default:
		return node.Checkpoint{}
	}
}

func applyBlocked(val string, blocked *bool, reason *string) {
	parts := strings.SplitN(val, ";", 2)
	*blocked = parseBoolToken(strings.TrimSpace(parts[0]))
	if len(parts) > 1 {
		*reason = strings.TrimSpace(parts[1])
	}
}

func parseVerificationChecks(val string) []node.VerificationCheck {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	var out []node.VerificationCheck
	for _, entry := range strings.Split(val, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		// kind=outcome@timestamp::note
		var kind, rest string
		if idx := strings.Index(entry, "="); idx >= 0 {
			kind, rest = entry[:idx], entry[idx+1:]
		} else {
			rest = entry
		}
		outcome, rest2 := rest, ""
		if idx := strings.Index(rest, "@"); idx >= 0 {
			outcome, rest2 = rest[:idx], rest[idx+1:]
		}
		var ts time.Time
		note := ""
		if idx := strings.Index(rest2, "::"); idx >= 0 {
			if parsed, err := time.Parse(time.RFC3339, rest2[:idx]); err == nil {
				ts = parsed
			}
			note = rest2[idx+2:]
		} else if rest2 != "" {
			if parsed, err := time.Parse(time.RFC3339, rest2); err == nil {
				ts = parsed
			}
		}
		out = append(out, node.VerificationCheck{
			Kind:      node.CheckpointKind(kind),
			Outcome:   outcome,
			Note:      note,
			Timestamp: ts,
		})
	}
	return out
}

func renderVerificationChecks(checks []node.VerificationCheck) string {
	parts := make([]string, 0, len(checks))
	for _, c := range checks {
		parts = append(parts, fmt.Sprintf("%s=%s@%s::%s", c.Kind, c.Outcome, c.Timestamp.UTC().Format(time.RFC3339), c.Note))
	}
	return strings.Join(parts, "; ")
}

func parseAttachments(val string) []node.Attachment {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	var out []node.Attachment
	for _, entry := range strings.Split(val, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, "|")
		a := node.Attachment{}
		if len(fields) > 0 {
			a.Name = fields[0]
		}
		if len(fields) > 1 {
			a.Path = fields[1]
		}
		if len(fields) > 2 {
			a.Note = fields[2]
		}
		out = append(out, a)
	}
	return out
}

func renderAttachments(atts []node.Attachment) string {
	parts := make([]string, 0, len(atts))
	for _, a := range atts {
		parts = append(parts, fmt.Sprintf("%s|%s|%s", a.Name, a.Path, a.Note))
	}
	return strings.Join(parts, "; ")
}
