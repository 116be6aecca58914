package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nodeforge/taskengine/internal/codec"
	"github.com/nodeforge/taskengine/internal/logx"
	"github.com/nodeforge/taskengine/internal/node"
)

// CleanFilter selects which DONE roots a clean_filtered call hard-removes.
type CleanFilter struct {
	Tag    string
	Status string
	Phase  string
}

// Repository opens one store directory and exposes by-ID operations that
// validate every path against traversal before touching disk.
type Repository struct {
	root string
}

// Open opens (creating if necessary) a store directory.
func Open(root string) (*Repository, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &Repository{root: root}, nil
}

// Root returns the store's base directory.
func (r *Repository) Root() string { return r.root }

func filename(id string) string { return id + ".task" }

// Load reads the root with the given ID. If domain doesn't contain it, the
// whole tree (excluding .trash/ and .snapshots/) is searched for a matching
// filename and the root's in-memory domain is updated to match.
func (r *Repository) Load(id, domain string) (node.Root, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateDomain(domain); err != nil {
		return nil, err
	}

	path, err := resolve(r.root, domain, filename(id))
	if err != nil {
		return nil, err
	}
	if root, err := r.readFile(path); err == nil {
		root.SetDomain(domain)
		return root, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	found, foundDomain, err := r.findByFilename(filename(id))
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &NotFoundError{ID: id}
	}
	found.SetDomain(foundDomain)
	return found, nil
}

func (r *Repository) findByFilename(fname string) (node.Root, string, error) {
	var found node.Root
	var foundDomain string
	err := filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || found != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == TrashDir || d.Name() == SnapshotsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != fname {
			return nil
		}
		root, parseErr := r.readFile(path)
		if parseErr != nil {
			logx.L().Warn().Str("path", path).Err(parseErr).Msg("ignoring unparsable root file")
			return nil
		}
		found = root
		rel, _ := filepath.Rel(r.root, filepath.Dir(path))
		if rel == "." {
			rel = ""
		}
		foundDomain = rel
		return nil
	})
	return found, foundDomain, err
}

func (r *Repository) readFile(path string) (node.Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := codec.Parse(data)
	if err != nil {
		return nil, &codec.ErrInvalidPreamble{Path: path, Err: err}
	}
	return root, nil
}

// Save bumps the revision to max(in-memory, on-disk-if-newer)+1 and
// rewrites the whole file.
func (r *Repository) Save(root node.Root) error {
	if err := validateID(root.RootID()); err != nil {
		return err
	}
	if err := validateDomain(root.GetDomain()); err != nil {
		return err
	}
	path, err := resolve(r.root, root.GetDomain(), filename(root.RootID()))
	if err != nil {
		return err
	}

	onDisk := 0
	if existing, err := r.readFile(path); err == nil {
		onDisk = existing.GetRevision()
	}
	next := root.GetRevision()
	if onDisk > next {
		next = onDisk
	}
	root.SetRevision(next + 1)

	data, err := codec.Serialize(root)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create domain directory: %w", err)
	}
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List recursively enumerates every root under the given store-relative
// subdirectory (empty string for the whole store). Unparsable files are
// skipped and logged, never surfaced as an error.
func (r *Repository) List(domainPath string) ([]node.Root, error) {
	if err := validateDomain(domainPath); err != nil {
		return nil, err
	}
	base, err := resolve(r.root, domainPath, "")
	if err != nil {
		return nil, err
	}
	var out []node.Root
	err = filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == TrashDir || d.Name() == SnapshotsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".task") {
			return nil
		}
		root, parseErr := r.readFile(path)
		if parseErr != nil {
			logx.L().Warn().Str("path", path).Err(parseErr).Msg("ignoring unparsable root file")
			return nil
		}
		rel, _ := filepath.Rel(r.root, filepath.Dir(path))
		if rel == "." {
			rel = ""
		}
		root.SetDomain(rel)
		out = append(out, root)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeSignature folds mtime_ns XOR size across every active root file so
// adapters can poll for external edits.
func (r *Repository) ComputeSignature() (uint64, error) {
	var sig uint64
	err := filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == TrashDir || d.Name() == SnapshotsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".task") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		sig ^= uint64(info.ModTime().UnixNano()) ^ uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sig, nil
}

// Delete unlinks the root's file. Soft-delete (moving to .trash/) is the
// manager's responsibility.
func (r *Repository) Delete(id, domain string) error {
	if err := validateID(id); err != nil {
		return err
	}
	path, err := resolve(r.root, domain, filename(id))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{ID: id}
		}
		return err
	}
	return nil
}

// Move writes the root to newDomain first, then unlinks the source.
func (r *Repository) Move(id, domain, newDomain string) error {
	root, err := r.Load(id, domain)
	if err != nil {
		return err
	}
	oldPath, err := resolve(r.root, root.GetDomain(), filename(id))
	if err != nil {
		return err
	}
	root.SetDomain(newDomain)
	newPath, err := resolve(r.root, newDomain, filename(id))
	if err != nil {
		return err
	}
	data, err := codec.Serialize(root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return err
	}
	if err := atomicWrite(newPath, data); err != nil {
		return err
	}
	if oldPath != newPath {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// MoveGlob moves every root whose ID matches pattern (filepath.Match syntax
// against the ID, not the filename) into newDomain.
func (r *Repository) MoveGlob(pattern, newDomain string) error {
	roots, err := r.List("")
	if err != nil {
		return err
	}
	for _, root := range roots {
		matched, err := filepath.Match(pattern, root.RootID())
		if err != nil {
			return err
		}
		if matched {
			if err := r.Move(root.RootID(), root.GetDomain(), newDomain); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteGlob hard-deletes every root whose ID matches pattern.
func (r *Repository) DeleteGlob(pattern string) error {
	roots, err := r.List("")
	if err != nil {
		return err
	}
	for _, root := range roots {
		matched, err := filepath.Match(pattern, root.RootID())
		if err != nil {
			return err
		}
		if matched {
			if err := r.Delete(root.RootID(), root.GetDomain()); err != nil {
				return err
			}
		}
	}
	return nil
}

// CleanFiltered hard-removes DONE roots matching the given filter.
func (r *Repository) CleanFiltered(filter CleanFilter) (int, error) {
	roots, err := r.List("")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, root := range roots {
		task, ok := root.(*node.Task)
		if !ok || task.Status != node.StatusDone {
			continue
		}
		if filter.Phase != "" && task.Phase != filter.Phase {
			continue
		}
		if filter.Status != "" && string(task.Status) != filter.Status {
			continue
		}
		if filter.Tag != "" && !containsStr(task.Tags, filter.Tag) {
			continue
		}
		if err := r.Delete(task.ID, task.Domain); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// TrashPath returns the absolute path of the store's .trash directory.
func (r *Repository) TrashPath() string { return filepath.Join(r.root, TrashDir) }

// SnapshotsPath returns the absolute path of a timestamped snapshot
// directory under .snapshots/.
func (r *Repository) SnapshotsPath(at time.Time) string {
	return filepath.Join(r.root, SnapshotsDir, at.UTC().Format("20060102T150405.000000000"))
}
