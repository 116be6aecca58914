// Package migrate implements the one-time, idempotent reconciliation of
// legacy domain directories into their canonical location on store open.
// Grounded in original_source's tasks_dir_resolver.py: rename when the
// canonical target is absent, otherwise merge with ID-collision renaming
// and cross-reference rewriting. See spec §5.
package migrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nodeforge/taskengine/internal/codec"
	"github.com/nodeforge/taskengine/internal/logx"
	"github.com/nodeforge/taskengine/internal/node"
	"github.com/nodeforge/taskengine/internal/state"
)

// legacyPrefixes lists the directory-name prefixes that mark a domain as
// needing reconciliation; the canonical name is the directory name with the
// prefix stripped.
var legacyPrefixes = []string{"__", "legacy_"}

// canonicalName returns the reconciled form of a domain directory name and
// whether it differs from name.
func canonicalName(name string) (string, bool) {
	canon := name
	for _, p := range legacyPrefixes {
		canon = strings.TrimPrefix(canon, p)
	}
	return canon, canon != name && canon != ""
}

// Run reconciles every legacy-prefixed top-level domain directory under
// storeRoot. It is safe to call once per process open and is idempotent:
// a second call against an already-reconciled store is a no-op. Callers
// must not run this concurrently with focus/history updates in the same
// process; Run takes the shared process-wide lock itself.
func Run(storeRoot string) error {
	state.Lock()
	defer state.Unlock()

	entries, err := os.ReadDir(storeRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		canon, changed := canonicalName(e.Name())
		if !changed {
			continue
		}
		legacyDir := filepath.Join(storeRoot, e.Name())
		targetDir := filepath.Join(storeRoot, canon)
		if legacyDir == targetDir {
			continue
		}
		if _, err := os.Stat(targetDir); os.IsNotExist(err) {
			logx.L().Info().Str("from", e.Name()).Str("to", canon).Msg("renaming legacy domain directory")
			if err := os.Rename(legacyDir, targetDir); err == nil {
				continue
			}
			// Fall through to merge if the rename failed (e.g. cross-device).
		}
		if err := mergeDomain(storeRoot, legacyDir, targetDir); err != nil {
			return err
		}
	}
	return nil
}

// idMapping tracks old-ID -> new-ID renames applied while merging the
// losing (legacy) side into an already-populated canonical directory.
type idMapping map[string]string

func mergeDomain(storeRoot, legacyDir, targetDir string) error {
	logx.L().Info().Str("legacy", legacyDir).Str("target", targetDir).Msg("merging legacy domain directory")
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}

	planMap := idMapping{}
	taskMap := idMapping{}
	var movedFiles []string

	var taskFiles, planFiles []string
	err := filepath.WalkDir(legacyDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".trash" || d.Name() == ".snapshots" {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case strings.HasPrefix(d.Name(), "PLAN-") && strings.HasSuffix(d.Name(), ".task"):
			planFiles = append(planFiles, path)
		case strings.HasPrefix(d.Name(), "TASK-") && strings.HasSuffix(d.Name(), ".task"):
			taskFiles = append(taskFiles, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(planFiles)
	sort.Strings(taskFiles)

	for _, src := range planFiles {
		moved, err := moveOrRenumberPlan(storeRoot, legacyDir, targetDir, src, planMap)
		if err != nil {
			return err
		}
		if moved != "" {
			movedFiles = append(movedFiles, moved)
		}
	}
	for _, src := range taskFiles {
		moved, err := moveOrRenumberTask(storeRoot, legacyDir, targetDir, src, planMap, taskMap)
		if err != nil {
			return err
		}
		if moved != "" {
			movedFiles = append(movedFiles, moved)
		}
	}

	if err := rewriteCrossReferences(movedFiles, planMap, taskMap); err != nil {
		return err
	}

	if err := mergeRemainder(legacyDir, targetDir, planMap, taskMap); err != nil {
		return err
	}

	return os.RemoveAll(legacyDir)
}

func relDest(legacyDir, targetDir, src string) string {
	rel, _ := filepath.Rel(legacyDir, src)
	return filepath.Join(targetDir, rel)
}

func moveOrRenumberPlan(storeRoot, legacyDir, targetDir, src string, planMap idMapping) (string, error) {
	dst := relDest(legacyDir, targetDir, src)
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", err
		}
		if err := os.Rename(src, dst); err != nil {
			return "", err
		}
		return dst, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	root, err := codec.Parse(data)
	if err != nil {
		logx.L().Warn().Str("path", src).Err(err).Msg("skipping unparsable plan during migration")
		return "", os.Remove(src)
	}
	plan, ok := root.(*node.Plan)
	if !ok {
		return "", os.Remove(src)
	}
	oldID := plan.ID
	newID, err := codec.NextPlanID(storeRoot)
	if err != nil {
		return "", err
	}
	planMap[oldID] = newID
	plan.ID = newID
	out, err := codec.Serialize(plan)
	if err != nil {
		return "", err
	}
	newDst := filepath.Join(filepath.Dir(dst), newID+".task")
	if err := os.MkdirAll(filepath.Dir(newDst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(newDst, out, 0o644); err != nil {
		return "", err
	}
	return newDst, os.Remove(src)
}

func moveOrRenumberTask(storeRoot, legacyDir, targetDir, src string, planMap, taskMap idMapping) (string, error) {
	dst := relDest(legacyDir, targetDir, src)
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", err
		}
		if err := os.Rename(src, dst); err != nil {
			return "", err
		}
		return dst, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	root, err := codec.Parse(data)
	if err != nil {
		logx.L().Warn().Str("path", src).Err(err).Msg("skipping unparsable task during migration")
		return "", os.Remove(src)
	}
	task, ok := root.(*node.Task)
	if !ok {
		return "", os.Remove(src)
	}
	oldID := task.ID
	newID, err := codec.NextTaskID(storeRoot)
	if err != nil {
		return "", err
	}
	taskMap[oldID] = newID
	task.ID = newID
	if mapped, ok := planMap[task.Parent]; ok {
		task.Parent = mapped
	}
	out, err := codec.Serialize(task)
	if err != nil {
		return "", err
	}
	newDst := filepath.Join(filepath.Dir(dst), newID+".task")
	if err := os.MkdirAll(filepath.Dir(newDst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(newDst, out, 0o644); err != nil {
		return "", err
	}
	return newDst, os.Remove(src)
}

// rewriteCrossReferences patches parent/depends_on references inside every
// file actually moved in this merge (not the whole store) to match the
// rename mapping recorded while resolving collisions.
func rewriteCrossReferences(movedFiles []string, planMap, taskMap idMapping) error {
	if len(planMap) == 0 && len(taskMap) == 0 {
		return nil
	}
	for _, path := range movedFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		root, err := codec.Parse(data)
		if err != nil {
			continue
		}
		task, ok := root.(*node.Task)
		if !ok {
			continue
		}
		changed := false
		if mapped, ok := planMap[task.Parent]; ok {
			task.Parent = mapped
			changed = true
		}
		for i, dep := range task.DependsOn {
			if mapped, ok := taskMap[dep]; ok {
				task.DependsOn[i] = mapped
				changed = true
			}
		}
		if !changed {
			continue
		}
		out, err := codec.Serialize(task)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// mergeRemainder moves every remaining legacy-dir entry (snapshots, trash,
// the history ring, anything else) into target, merging .history.json by
// entry and renaming on any other collision. A colliding .trash/.snapshots
// directory is kept whole under a ".legacyN" suffix rather than merged
// file-by-file — trash/snapshot collisions across two stores being unified
// are rare enough that preserving both wholesale is an acceptable trade for
// not losing data.
func mergeRemainder(legacyDir, targetDir string, planMap, taskMap idMapping) error {
	entries, err := os.ReadDir(legacyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		src := filepath.Join(legacyDir, e.Name())
		dst := filepath.Join(targetDir, e.Name())
		if e.Name() == state.HistoryFile {
			if err := mergeHistory(dst, src, planMap, taskMap); err != nil {
				return err
			}
			continue
		}
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			if err := os.Rename(src, dst); err != nil {
				return err
			}
			continue
		}
		candidate := dst
		i := 1
		for {
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				break
			}
			candidate = dst + ".legacy" + itoa(i)
			i++
		}
		if err := os.Rename(src, candidate); err != nil {
			return err
		}
	}
	return nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func mergeHistory(dst, src string, planMap, taskMap idMapping) error {
	dstHist := readHistory(dst)
	srcHist := readHistory(src)

	for i := range srcHist.Entries {
		if mapped, ok := taskMap[srcHist.Entries[i].RootID]; ok {
			srcHist.Entries[i].RootID = mapped
		} else if mapped, ok := planMap[srcHist.Entries[i].RootID]; ok {
			srcHist.Entries[i].RootID = mapped
		}
	}

	merged := append(dstHist.Entries, srcHist.Entries...)
	out := state.History{Entries: merged, Index: len(merged)}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}

func readHistory(path string) state.History {
	var h state.History
	data, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	_ = json.Unmarshal(data, &h)
	return h
}
