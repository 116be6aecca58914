package codec

import (
	"fmt"
	"regexp"
	"strings"
)

// Section headings are fixed and round-tripped verbatim, per §4.1.
const (
	HeadingDescription = "Описание"
	HeadingContext      = "Контекст"
	HeadingSteps        = "Подзадачи"
	HeadingProblems     = "Текущие проблемы"
	HeadingNextSteps    = "Следующие шаги"
	HeadingCriteria     = "Критерии успеха"
	HeadingDependencies = "Зависимости"
	HeadingRisks        = "Риски"
	HeadingHistory      = "История"
)

var headingOrder = []string{
	HeadingDescription, HeadingContext, HeadingSteps, HeadingProblems,
	HeadingNextSteps, HeadingCriteria, HeadingDependencies, HeadingRisks,
	HeadingHistory,
}

var headingRe = regexp.MustCompile(`^## (.+?)\s*$`)

// splitSections walks the markdown body and returns a map of heading name to
// its raw line block (exclusive of the "## Heading" line itself).
func splitSections(body string) map[string][]string {
	sections := map[string][]string{}
	var current string
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			if _, ok := sections[current]; !ok {
				sections[current] = []string{}
			}
			continue
		}
		if current == "" {
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return sections
}

// paragraph joins a section's lines into a single trimmed text block.
func paragraph(lines []string) string {
	trimmed := strings.TrimSpace(strings.Join(lines, "\n"))
	return trimmed
}

var bulletRe = regexp.MustCompile(`^- (.*)$`)

// bulletList extracts top-level `- item` bullets from a section, ignoring
// blank lines and anything indented (those belong to a nested parser, e.g.
// step attribute lines under Подзадачи).
func bulletList(lines []string) []string {
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, " ") {
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

func renderParagraphSection(heading, text string) string {
	if text == "" {
		return ""
	}
	return fmt.Sprintf("## %s\n%s\n", heading, text)
}

func renderBulletSection(heading string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n", heading))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return sb.String()
}
