package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/nodeforge/taskengine/internal/node"
)

func renderSteps(steps []*node.Step, indent int) string {
	var sb strings.Builder
	pad := strings.Repeat(indentUnit, indent)
	for _, s := range steps {
		box := "[ ]"
		if s.Completed {
			box = "[x]"
		}
		sb.WriteString(fmt.Sprintf("%s- %s %s\n", pad, box, s.Title))
		sb.WriteString(renderStepAttrs(s, indent+1))
	}
	return sb.String()
}

func renderStepAttrs(s *node.Step, indent int) string {
	var sb strings.Builder
	pad := strings.Repeat(indentUnit, indent)
	line := func(key, val string) {
		if val == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("%s- %s: %s\n", pad, key, val))
	}
	line("ID", s.ID)
	line("Критерии", strings.Join(s.Criteria, "; "))
	line("Тесты", strings.Join(s.Tests, "; "))
	line("Блокеры", strings.Join(s.Blockers, "; "))
	sb.WriteString(fmt.Sprintf("%s- Чекпоинты: Критерии=%s; Тесты=%s; Блокеры=%s\n", pad,
		s.CriteriaCheckpoint.Token(), s.TestsCheckpoint.Token(), s.BlockersCheckpoint.Token()))
	line("Отметки критериев", strings.Join(s.CriteriaCheckpoint.Notes, "; "))
	line("Отметки тестов", strings.Join(s.TestsCheckpoint.Notes, "; "))
	line("Отметки блокеров", strings.Join(s.BlockersCheckpoint.Notes, "; "))
	line("Прогресс", strings.Join(s.ProgressNotes, "; "))
	if s.StartedAt != nil {
		line("Начато", s.StartedAt.UTC().Format(time.RFC3339))
	}
	if !s.CreatedAt.IsZero() {
		line("Создано", s.CreatedAt.UTC().Format(time.RFC3339))
	}
	if s.CompletedAt != nil {
		line("Завершено", s.CompletedAt.UTC().Format(time.RFC3339))
	}
	if s.Blocked {
		sb.WriteString(fmt.Sprintf("%s- Заблокировано: да; %s\n", pad, s.BlockedReason))
	} else {
		sb.WriteString(fmt.Sprintf("%s- Заблокировано: нет\n", pad))
	}
	line("Вывод проверки", s.VerificationOutcome)
	line("Проверки", renderVerificationChecks(s.VerificationChecks))
	line("Вложения", renderAttachments(s.Attachments))
	if s.Plan != nil {
		sb.WriteString(fmt.Sprintf("%s- План: %s %s\n", pad, s.Plan.ID, s.Plan.Title))
		sb.WriteString(renderPlanNode(s.Plan, indent+1))
	}
	return sb.String()
}

func renderPlanNode(p *node.PlanNode, indent int) string {
	var sb strings.Builder
	pad := strings.Repeat(indentUnit, indent)
	line := func(key, val string) {
		if val == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("%s- %s: %s\n", pad, key, val))
	}
	line("Контракт", p.Contract)
	line("Документ", p.PlanDoc)
	line("ПланШаги", strings.Join(p.PlanSteps, "; "))
	if p.PlanCurrent != 0 {
		sb.WriteString(fmt.Sprintf("%s- ПланТекущий: %d\n", pad, p.PlanCurrent))
	}
	for _, t := range p.Tasks {
		sb.WriteString(fmt.Sprintf("%s- Задача: %s %s\n", pad, t.ID, t.Title))
		sb.WriteString(renderTaskNode(t, indent+1))
	}
	return sb.String()
}

func renderTaskNode(t *node.TaskNode, indent int) string {
	var sb strings.Builder
	pad := strings.Repeat(indentUnit, indent)
	line := func(key, val string) {
		if val == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("%s- %s: %s\n", pad, key, val))
	}
	line("Описание", t.Description)
	line("Контекст", t.Context)
	line("Домен", t.Domain)
	line("Фаза", t.Phase)
	line("Компонент", t.Component)
	line("Зависит", strings.Join(t.DependsOn, "; "))
	line("Критерии", strings.Join(t.SuccessCriteria, "; "))
	line("Риски", strings.Join(t.Risks, "; "))
	line("Проблемы", strings.Join(t.Problems, "; "))
	line("Шаги", strings.Join(t.NextSteps, "; "))
	line("История", strings.Join(t.History, "; "))
	if t.StatusManual {
		sb.WriteString(fmt.Sprintf("%s- СтатусРучной: да; %s\n", pad, t.Status))
	}
	if t.Blocked {
		sb.WriteString(fmt.Sprintf("%s- Заблокировано: да; %s\n", pad, t.BlockedReason))
	}
	sb.WriteString(renderSteps(t.Steps, indent))
	return sb.String()
}
