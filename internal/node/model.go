// Package node defines the recursive Step/Plan/Task graph that the engine
// persists: a Plan or Task root owns a file on disk, and every Step, embedded
// PlanNode, and embedded TaskNode nests inside it to arbitrary depth.
package node

import "time"

// Status is the lifecycle state of a root or embedded task node.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusDone    Status = "DONE"
)

// CheckpointKind is one of the three checkable facets of a Step.
type CheckpointKind string

const (
	CheckpointCriteria CheckpointKind = "criteria"
	CheckpointTests    CheckpointKind = "tests"
	CheckpointBlockers CheckpointKind = "blockers"
)

func (k CheckpointKind) Valid() bool {
	switch k {
	case CheckpointCriteria, CheckpointTests, CheckpointBlockers:
		return true
	}
	return false
}

// CheckpointToken is the serialized state of a checkpoint: OK, AUTO, or TODO.
type CheckpointToken string

const (
	TokenOK   CheckpointToken = "OK"
	TokenAuto CheckpointToken = "AUTO"
	TokenTODO CheckpointToken = "TODO"
)

// Checkpoint tracks the confirmed/auto-confirmed pair for one facet of a Step.
type Checkpoint struct {
	Confirmed     bool
	AutoConfirmed bool
	Notes         []string
}

// Token renders the checkpoint as its serialized form.
func (c Checkpoint) Token() CheckpointToken {
	switch {
	case c.Confirmed:
		return TokenOK
	case c.AutoConfirmed:
		return TokenAuto
	default:
		return TokenTODO
	}
}

// Satisfied reports whether the checkpoint no longer blocks completion:
// either explicitly confirmed, or auto-confirmed because its list was empty.
func (c Checkpoint) Satisfied() bool {
	return c.Confirmed || c.AutoConfirmed
}

// VerificationCheck is one recorded outcome of a verify intent.
type VerificationCheck struct {
	Kind      CheckpointKind
	Outcome   string
	Note      string
	Timestamp time.Time
}

// Attachment is an evidence descriptor recorded by a verify intent.
type Attachment struct {
	ID        string
	Name      string
	Path      string
	Note      string
	CreatedAt time.Time
}

// Step is a single atomic action inside a Task.
type Step struct {
	ID    string
	Title string

	Completed bool

	Criteria []string
	Tests    []string
	Blockers []string

	CriteriaCheckpoint Checkpoint
	TestsCheckpoint    Checkpoint
	BlockersCheckpoint Checkpoint

	ProgressNotes []string

	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time

	Blocked       bool
	BlockedReason string

	VerificationOutcome string
	VerificationChecks  []VerificationCheck
	Attachments         []Attachment

	// Plan is the optional embedded PlanNode hanging off this Step, enabling
	// infinite Step -> Plan -> Task -> Step nesting.
	Plan *PlanNode
}

// NewStep creates a Step with checkpoints auto-confirmed per the empty-list
// rule: criteria is never auto-confirmed, tests/blockers are auto-confirmed
// iff their list is empty at creation time.
func NewStep(id, title string, criteria, tests, blockers []string, now time.Time) *Step {
	s := &Step{
		ID:        id,
		Title:     title,
		Criteria:  normalizeList(criteria),
		Tests:     normalizeList(tests),
		Blockers:  normalizeList(blockers),
		CreatedAt: now,
	}
	s.CriteriaCheckpoint = Checkpoint{}
	s.TestsCheckpoint = Checkpoint{AutoConfirmed: len(s.Tests) == 0}
	s.BlockersCheckpoint = Checkpoint{AutoConfirmed: len(s.Blockers) == 0}
	return s
}

// ReadyForCompletion implements the invariant: not blocked, criteria
// confirmed, tests confirmed-or-auto-confirmed, and (if an embedded plan is
// present) every embedded task under it is done.
func (s *Step) ReadyForCompletion() bool {
	if s.Blocked {
		return false
	}
	if !s.CriteriaCheckpoint.Satisfied() {
		return false
	}
	if !s.TestsCheckpoint.Satisfied() {
		return false
	}
	if s.Plan != nil {
		for _, t := range s.Plan.Tasks {
			if !t.Done() {
				return false
			}
		}
	}
	return true
}

func (s *Step) checkpoint(kind CheckpointKind) *Checkpoint {
	switch kind {
	case CheckpointCriteria:
		return &s.CriteriaCheckpoint
	case CheckpointTests:
		return &s.TestsCheckpoint
	case CheckpointBlockers:
		return &s.BlockersCheckpoint
	default:
		return nil
	}
}

// SetCheckpoint toggles one checkpoint's confirmed flag and appends a note.
// It returns true if this was the first transition away from pristine
// (nothing confirmed yet), the signal for setting StartedAt.
func (s *Step) SetCheckpoint(kind CheckpointKind, confirmed bool, note string) bool {
	cp := s.checkpoint(kind)
	if cp == nil {
		return false
	}
	wasPristine := !s.CriteriaCheckpoint.Confirmed && !s.TestsCheckpoint.Satisfied() && !s.BlockersCheckpoint.Satisfied()
	cp.Confirmed = confirmed
	if confirmed {
		cp.AutoConfirmed = false
	}
	if note != "" {
		cp.Notes = append(cp.Notes, note)
	}
	return wasPristine && (s.CriteriaCheckpoint.Confirmed || s.TestsCheckpoint.Satisfied() || s.BlockersCheckpoint.Satisfied())
}

// ContractVersion is a retained snapshot of a Plan's contract text.
type ContractVersion struct {
	Text      string
	Timestamp time.Time
}

// PlanNode is the embedded-plan shape nested inside a Step: same fields as a
// root Plan (contract, doc, step checklist, contract history) but owns
// TaskNode children rather than a file.
type PlanNode struct {
	ID    string
	Title string

	Contract string
	PlanDoc  string

	PlanSteps   []string
	PlanCurrent int

	ContractVersions []ContractVersion

	Tasks []*TaskNode

	Events []Event
}

// TaskNode is the embedded-task shape nested inside a PlanNode: same fields
// as a root Task but its children are Steps, and its status may be computed
// from descendant progress or pinned manually.
type TaskNode struct {
	ID    string
	Title string

	Description string
	Context     string

	Domain    string
	Phase     string
	Component string

	DependsOn []string

	SuccessCriteria []string
	Risks           []string
	Problems        []string
	NextSteps       []string
	History         []string

	Steps []*Step

	StatusManual bool
	Status       Status

	Blocked       bool
	BlockedReason string

	Events []Event
}

// Done implements the invariant: a TaskNode is done iff not blocked AND
// (status_manual: explicit status is DONE; else: 100% of descendant Steps
// are completed).
func (t *TaskNode) Done() bool {
	if t.Blocked {
		return false
	}
	if t.StatusManual {
		return t.Status == StatusDone
	}
	if len(t.Steps) == 0 {
		return false
	}
	for _, s := range t.Steps {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Progress returns the percentage (0-100) of completed descendant Steps.
func (t *TaskNode) Progress() int {
	if len(t.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range t.Steps {
		if s.Completed {
			done++
		}
	}
	return done * 100 / len(t.Steps)
}

func normalizeList(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
