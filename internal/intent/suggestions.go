package intent

import (
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/node"
)

// baseSuggestions implements the always-applicable rules of §4.6: an empty
// store suggests creating a plan, a plan with no tasks suggests creating
// one.
func baseSuggestions(m *manager.Manager) []Suggestion {
	roots, err := m.Repo().List("")
	if err != nil {
		return nil
	}
	var plans []*node.Plan
	tasksByParent := map[string]int{}
	for _, r := range roots {
		switch v := r.(type) {
		case *node.Plan:
			plans = append(plans, v)
		case *node.Task:
			tasksByParent[v.Parent]++
		}
	}
	if len(plans) == 0 {
		return []Suggestion{{Action: "create", Title: "Create a plan to get started", Params: map[string]any{"kind": "plan", "title": "New plan"}}}
	}
	var out []Suggestion
	for _, p := range plans {
		if tasksByParent[p.ID] == 0 {
			out = append(out, Suggestion{
				Action: "create", Title: "Add a first task to " + p.ID,
				Params: map[string]any{"kind": "task", "parent": p.ID, "title": "New task"},
			})
		}
	}
	return out
}

func revisionMismatchSuggestion(id string) Suggestion {
	return Suggestion{Action: "resume", Title: "Reload and retry", Params: map[string]any{"task": id}}
}

func closeTaskSuggestion(id string) Suggestion {
	return Suggestion{Action: "close_task", Title: "Close out " + id, Params: map[string]any{"task": id}}
}

// Runway is the open/closed readiness verdict for a root Task, plus a
// ready-to-submit patch recipe when closed.
type Runway struct {
	Open   bool    `json:"open"`
	Recipe *Recipe `json:"recipe,omitempty"`
}

// Recipe is a patch request, structurally valid and ready to submit
// unchanged.
type Recipe struct {
	Intent string    `json:"intent"`
	Kind   string    `json:"kind"`
	Task   string    `json:"task"`
	Ops    []PatchOp `json:"ops"`
}

// computeRunway implements §4.7: a task is closable when it would compute
// to DONE; otherwise the recipe names the missing piece: a root success
// criterion when the task has none, else force-completing its steps.
func computeRunway(t *node.Task) Runway {
	if t.ComputeStatus() == node.StatusDone {
		return Runway{Open: true}
	}
	if len(t.SuccessCriteria) == 0 {
		return Runway{Open: false, Recipe: &Recipe{
			Intent: "patch", Kind: "task_detail", Task: t.ID,
			Ops: []PatchOp{{Op: "append", Field: "success_criteria", Value: "ok"}},
		}}
	}
	return Runway{Open: false, Recipe: &Recipe{
		Intent: "patch", Kind: "task_detail", Task: t.ID,
		Ops: []PatchOp{{Op: "set", Field: "force_complete_steps", Value: "true"}},
	}}
}

// RadarResult is the payload of a radar intent.
type RadarResult struct {
	Focus     string       `json:"focus"`
	Now       NowNode      `json:"now"`
	Why       string       `json:"why"`
	Verify    []string     `json:"verify"`
	Next      []Suggestion `json:"next"`
	Blockers  []string     `json:"blockers"`
	Budget    Budget       `json:"budget"`
}

// NowNode describes the current-focus node surfaced by radar/handoff.
type NowNode struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Budget is the char-budget envelope enforced on radar/handoff text.
type Budget struct {
	MaxChars  int  `json:"max_chars"`
	UsedChars int  `json:"used_chars"`
	Truncated bool `json:"truncated"`
}

const defaultBudgetChars = 4000

func clamp(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	return s[:max], true
}

// buildRadar computes radar's now/why/verify/blockers/next for a task.
func buildRadar(t *node.Task) RadarResult {
	now, why, status := pickNow(t)
	why = why + " (updated " + humanize.Time(t.Updated) + ")"
	verify := openCheckpoints(t)
	blockers := append([]string{}, t.DependsOn...)
	if t.Blocked && t.BlockedReason != "" {
		blockers = append(blockers, t.BlockedReason)
	}

	used := len(t.Title) + len(t.Description)
	title, truncated := clamp(t.Title, 200)

	return RadarResult{
		Focus: t.ID,
		Now:   NowNode{Path: now, Title: title, Status: status},
		Why:   why,
		Verify: verify,
		Next:  rankedNextSteps(t),
		Blockers: blockers,
		Budget: Budget{MaxChars: defaultBudgetChars, UsedChars: used, Truncated: truncated},
	}
}

// rankedNextSteps implements §4.6's ready>active>blocked ordering: every
// incomplete step becomes a next-action suggestion, ranked by its runway
// state rather than store-level document counts.
func rankedNextSteps(t *node.Task) []Suggestion {
	type candidate struct {
		path   string
		rank   int
		status string
	}
	var cands []candidate
	for i, s := range t.Steps {
		if s.Completed {
			continue
		}
		p := pathFor(i)
		switch {
		case s.ReadyForCompletion():
			cands = append(cands, candidate{p, 0, "ready"})
		case s.Blocked:
			cands = append(cands, candidate{p, 2, "blocked"})
		default:
			cands = append(cands, candidate{p, 1, "active"})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].rank < cands[j].rank })

	out := make([]Suggestion, 0, len(cands))
	for _, c := range cands {
		switch c.status {
		case "ready":
			out = append(out, Suggestion{Action: "done", Title: "Complete " + c.path, Params: map[string]any{"task": t.ID, "path": c.path}})
		case "blocked":
			out = append(out, Suggestion{Action: "edit", Title: "Unblock " + c.path, Params: map[string]any{"task": t.ID, "path": c.path}})
		default:
			out = append(out, Suggestion{Action: "verify", Title: "Verify " + c.path, Params: map[string]any{"task": t.ID, "path": c.path}})
		}
	}
	return out
}

// pickNow ranks steps by ready-for-completion > active > blocked and
// returns the top pick's path, a reason, and its computed status token.
func pickNow(t *node.Task) (path, why, status string) {
	type candidate struct {
		path   string
		step   *node.Step
		rank   int
		status string
	}
	var cands []candidate
	for i, s := range t.Steps {
		p := pathFor(i)
		switch {
		case s.Completed:
			cands = append(cands, candidate{p, s, 3, "done"})
		case s.ReadyForCompletion():
			cands = append(cands, candidate{p, s, 0, "ready"})
		case s.Blocked:
			cands = append(cands, candidate{p, s, 2, "blocked"})
		default:
			cands = append(cands, candidate{p, s, 1, "active"})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].rank < cands[j].rank })
	for _, c := range cands {
		if c.status != "done" {
			reason := map[string]string{
				"blocked": "blocked and needs attention",
				"ready":   "ready for completion",
				"active":  "in progress",
			}[c.status]
			return c.path, reason, c.status
		}
	}
	if len(cands) > 0 {
		return cands[len(cands)-1].path, "all steps complete", "done"
	}
	return "", "no steps yet", "pending"
}

func pathFor(i int) string {
	return "s:" + strconv.Itoa(i)
}

func openCheckpoints(t *node.Task) []string {
	var out []string
	for i, s := range t.Steps {
		if !s.CriteriaCheckpoint.Satisfied() {
			out = append(out, pathFor(i)+":criteria")
		}
		if !s.TestsCheckpoint.Satisfied() {
			out = append(out, pathFor(i)+":tests")
		}
		if !s.BlockersCheckpoint.Satisfied() {
			out = append(out, pathFor(i)+":blockers")
		}
	}
	return out
}

// HandoffResult is the payload of a handoff intent: radar plus the
// remaining multi-section detail.
type HandoffResult struct {
	RadarResult
	OpenCheckpoints []string `json:"open_checkpoints"`
	Done            int      `json:"done"`
	Remaining       int      `json:"remaining"`
	Risks           []string `json:"risks"`
}

func buildHandoff(t *node.Task) HandoffResult {
	r := buildRadar(t)
	total, done := 0, 0
	for _, s := range t.Steps {
		total++
		if s.Completed {
			done++
		}
	}
	return HandoffResult{
		RadarResult:     r,
		OpenCheckpoints: openCheckpoints(t),
		Done:            done,
		Remaining:       total - done,
		Risks:           t.Risks,
	}
}
