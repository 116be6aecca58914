package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	planPrefix = "PLAN-"
	taskPrefix = "TASK-"
	stepPrefix = "STEP-"
	nodePrefix = "NODE-"

	taskFileExt = ".task"
)

// NextTaskID scans every TASK-*.task file under root, including .trash/ and
// .snapshots/, and returns the prefixed ID one greater than the highest
// numeric suffix found. This prevents ID reuse after deletion or rollback.
func NextTaskID(root string) (string, error) {
	n, err := maxSuffix(root, taskPrefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", taskPrefix, n+1), nil
}

// NextPlanID is the Plan-side equivalent of NextTaskID.
func NextPlanID(root string) (string, error) {
	n, err := maxSuffix(root, planPrefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", planPrefix, n+1), nil
}

func maxSuffix(root, prefix string) (int, error) {
	max := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, taskFileExt) {
			return nil
		}
		stem := strings.TrimSuffix(name, taskFileExt)
		if !strings.HasPrefix(stem, prefix) {
			return nil
		}
		numStr := strings.TrimPrefix(stem, prefix)
		num, convErr := strconv.Atoi(numStr)
		if convErr != nil {
			return nil
		}
		if num > max {
			max = num
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	return max, nil
}

// NewStepID returns a random 8-hex-character Step ID, STEP- prefixed.
func NewStepID() string {
	return stepPrefix + shortHex()
}

// NewTaskNodeID returns a random 8-hex-character embedded TaskNode ID,
// NODE- prefixed.
func NewTaskNodeID() string {
	return nodePrefix + shortHex()
}

func shortHex() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
