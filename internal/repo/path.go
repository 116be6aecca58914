package repo

import (
	"path/filepath"
	"strings"
)

const (
	TrashDir     = ".trash"
	SnapshotsDir = ".snapshots"
)

// validateID rejects IDs that could escape the store root.
func validateID(id string) error {
	if id == "" {
		return &InvalidIDError{Value: id, Reason: "empty"}
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return &InvalidIDError{Value: id, Reason: "must not contain path separators or .."}
	}
	return nil
}

// validateDomain rejects domain prefixes that are absolute or escape the
// store root.
func validateDomain(domain string) error {
	if domain == "" {
		return nil
	}
	if filepath.IsAbs(domain) {
		return &InvalidIDError{Value: domain, Reason: "domain must not be absolute"}
	}
	if strings.Contains(domain, "..") {
		return &InvalidIDError{Value: domain, Reason: "domain must not contain .."}
	}
	return nil
}

// resolve joins root/domain/filename and verifies the result still lies
// within root, guarding against traversal via crafted domain/id values.
func resolve(root, domain, filename string) (string, error) {
	full := filepath.Join(root, domain, filename)
	cleanRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	cleanFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if cleanFull != cleanRoot && !strings.HasPrefix(cleanFull, cleanRoot+string(filepath.Separator)) {
		return "", &InvalidIDError{Value: filename, Reason: "resolves outside store root"}
	}
	return full, nil
}
