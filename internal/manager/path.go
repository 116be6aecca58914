// Package manager wraps the repository with load/save orchestration,
// revision bumping, node navigation by path, and the auto-clean retention
// policy. See spec §4.4.
package manager

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nodeforge/taskengine/internal/node"
)

// segment is one parsed hop of a dot-delimited path: "s:<i>" (i-th Step),
// "t:<j>" (j-th embedded TaskNode), or "p:" (the embedded PlanNode hanging
// off the preceding Step).
type segment struct {
	kind  byte // 's', 't', or 'p'
	index int
}

func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "p:" {
			segs = append(segs, segment{kind: 'p'})
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 || (kv[0] != "s" && kv[0] != "t") {
			return nil, fmt.Errorf("invalid path segment: %q", part)
		}
		idx, err := strconv.Atoi(kv[1])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid path index: %q", part)
		}
		segs = append(segs, segment{kind: kv[0][0], index: idx})
	}
	return segs, nil
}

// ResolveStep walks task's root Steps forest along path, returning the
// located Step. An empty path is invalid for step resolution.
func ResolveStep(task *node.Task, path string) (*node.Step, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	steps := task.Steps
	var cur *node.Step
	for i, seg := range segs {
		switch seg.kind {
		case 's':
			if seg.index < 0 || seg.index >= len(steps) {
				return nil, fmt.Errorf("step index out of range: %d", seg.index)
			}
			cur = steps[seg.index]
			if i == len(segs)-1 {
				return cur, nil
			}
		case 't':
			if cur == nil || cur.Plan == nil {
				return nil, fmt.Errorf("no embedded plan at this position")
			}
			if seg.index < 0 || seg.index >= len(cur.Plan.Tasks) {
				return nil, fmt.Errorf("task node index out of range: %d", seg.index)
			}
			steps = cur.Plan.Tasks[seg.index].Steps
			cur = nil
		case 'p':
			return nil, fmt.Errorf("path resolves to a PlanNode, not a Step")
		}
	}
	return nil, fmt.Errorf("path did not resolve to a step")
}

// ResolveTaskNode walks the path to the embedded TaskNode it names (the
// path must end on a "t:<j>" segment).
func ResolveTaskNode(task *node.Task, path string) (*node.TaskNode, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	steps := task.Steps
	var cur *node.Step
	var result *node.TaskNode
	for i, seg := range segs {
		switch seg.kind {
		case 's':
			if seg.index < 0 || seg.index >= len(steps) {
				return nil, fmt.Errorf("step index out of range: %d", seg.index)
			}
			cur = steps[seg.index]
			result = nil
		case 't':
			if cur == nil || cur.Plan == nil {
				return nil, fmt.Errorf("no embedded plan at this position")
			}
			if seg.index < 0 || seg.index >= len(cur.Plan.Tasks) {
				return nil, fmt.Errorf("task node index out of range: %d", seg.index)
			}
			result = cur.Plan.Tasks[seg.index]
			if i != len(segs)-1 {
				steps = result.Steps
				cur = nil
			}
		case 'p':
			return nil, fmt.Errorf("path resolves to a PlanNode, not a TaskNode")
		}
	}
	if result == nil {
		return nil, fmt.Errorf("path did not resolve to a task node")
	}
	return result, nil
}

// ResolvePlanNode resolves a "p:<step-path>" path to the embedded PlanNode
// hanging off the named Step.
func ResolvePlanNode(task *node.Task, path string) (*node.PlanNode, error) {
	if !strings.HasPrefix(path, "p:") {
		return nil, fmt.Errorf("plan node path must start with p:")
	}
	step, err := ResolveStep(task, strings.TrimPrefix(path, "p:"))
	if err != nil {
		return nil, err
	}
	if step.Plan == nil {
		return nil, fmt.Errorf("step has no embedded plan")
	}
	return step.Plan, nil
}

// ParentSteps returns the Step slice that a new Step should be appended to,
// given an optional parent path (empty means root Steps).
func ParentSteps(task *node.Task, parentPath string) (*[]*node.Step, error) {
	if parentPath == "" {
		return &task.Steps, nil
	}
	taskNode, err := ResolveTaskNode(task, parentPath)
	if err != nil {
		return nil, err
	}
	return &taskNode.Steps, nil
}
