package intent

import (
	"github.com/nodeforge/taskengine/internal/codec"
	"github.com/nodeforge/taskengine/internal/manager"
)

const maxArrayLengthDefault = 100

// expandPaths fans a "paths" array out into one Request per path, copying
// every other field unchanged. Each entry becomes the clone's node Path; a
// literal Path is ignored when Paths is present.
func expandPaths(req Request) []Request {
	if len(req.Paths) == 0 {
		return []Request{req}
	}
	out := make([]Request, 0, len(req.Paths))
	for _, p := range req.Paths {
		clone := req
		clone.Path = p
		clone.Paths = nil
		out = append(out, clone)
	}
	return out
}

func doBatch(m *manager.Manager, req *Request) *Response {
	maxLen := m.MaxArrayLength
	if maxLen == 0 {
		maxLen = maxArrayLengthDefault
	}

	// atomic defaults to true per spec; only an explicit false opts out.
	atomic := req.Atomic == nil || *req.Atomic

	var expanded []Request
	for _, op := range req.Operations {
		expanded = append(expanded, expandPaths(op)...)
	}
	if len(expanded) > maxLen {
		return fail(req, "TOO_MANY_OPERATIONS_AFTER_EXPANSION",
			"batch expansion exceeds the maximum array length", nil)
	}

	var beforeImages map[string][]byte
	if atomic {
		beforeImages = snapshotTouched(m, expanded)
	}

	results := make([]*Response, 0, len(expanded))
	for _, op := range expanded {
		r := Process(m, op)
		results = append(results, r)
		if atomic && !r.Success {
			rollback(m, beforeImages)
			return &Response{
				Success: false, Intent: req.Intent,
				ErrorCode: r.ErrorCode, ErrorMessage: "batch rolled back: " + r.ErrorMessage,
				Result: map[string]any{"results": results},
			}
		}
	}
	return &Response{Success: true, Intent: req.Intent, Result: map[string]any{"results": results},
		Context: Context{TargetResolution: TargetResolution{Source: "paths"}}}
}

// snapshotTouched serializes the current on-disk bytes of every root an
// atomic batch's operations name, for rollback on any failure.
func snapshotTouched(m *manager.Manager, ops []Request) map[string][]byte {
	images := map[string][]byte{}
	for _, op := range ops {
		id := op.Task
		if id == "" {
			id = op.Plan
		}
		if id == "" || images[id] != nil {
			continue
		}
		root, err := m.Repo().Load(id, op.Domain)
		if err != nil {
			continue
		}
		if data, err := codec.Serialize(root); err == nil {
			images[id] = data
		}
	}
	return images
}

func rollback(m *manager.Manager, images map[string][]byte) {
	for id, data := range images {
		root, err := codec.Parse(data)
		if err != nil {
			continue
		}
		_ = m.Repo().Save(root)
		_ = id
	}
}
