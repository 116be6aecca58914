package node

import "time"

// Kind distinguishes the two root variants that own a file on disk.
type Kind string

const (
	KindPlan Kind = "plan"
	KindTask Kind = "task"
)

// Root is the common surface shared by *Plan and *Task so the repository and
// manager can operate on either without knowing the concrete variant.
type Root interface {
	RootID() string
	RootKind() Kind
	GetDomain() string
	SetDomain(string)
	GetRevision() int
	SetRevision(int)
	GetUpdated() time.Time
	SetUpdated(time.Time)
	AppendEvent(Event)
	GetEvents() []Event
	GetIdempotencyKey() string
	GetProjectItemID() string
	SetProjectItemID(string)
}

// Plan is the strategic root unit: a contract, a strategy narrative, an
// ordered plan-step checklist with a cursor, and the Tasks it owns.
type Plan struct {
	ID    string
	Title string

	Domain    string
	Phase     string
	Component string
	Tags      []string
	Priority  string
	Assignee  string

	Created time.Time
	Updated time.Time

	Blocked       bool
	BlockedReason string

	ProjectItemID      string
	ProjectIssueNumber string

	Revision int
	Events   []Event

	Contract         string
	PlanDoc          string
	PlanSteps        []string
	PlanCurrent      int
	ContractVersions []ContractVersion

	IdempotencyKey string

	// Extra preserves unknown preamble keys verbatim across re-save.
	Extra map[string]string
}

func (p *Plan) RootID() string              { return p.ID }
func (p *Plan) RootKind() Kind              { return KindPlan }
func (p *Plan) GetDomain() string           { return p.Domain }
func (p *Plan) SetDomain(d string)          { p.Domain = d }
func (p *Plan) GetRevision() int            { return p.Revision }
func (p *Plan) SetRevision(r int)           { p.Revision = r }
func (p *Plan) GetUpdated() time.Time       { return p.Updated }
func (p *Plan) SetUpdated(t time.Time)      { p.Updated = t }
func (p *Plan) AppendEvent(e Event)         { p.Events = append(p.Events, e) }
func (p *Plan) GetEvents() []Event          { return p.Events }
func (p *Plan) GetIdempotencyKey() string   { return p.IdempotencyKey }
func (p *Plan) GetProjectItemID() string    { return p.ProjectItemID }
func (p *Plan) SetProjectItemID(id string)  { p.ProjectItemID = id }

// CurrentStep returns the plan-step text at the cursor, or "" if the cursor
// is at len(PlanSteps) ("all done").
func (p *Plan) CurrentStep() string {
	if p.PlanCurrent < 0 || p.PlanCurrent >= len(p.PlanSteps) {
		return ""
	}
	return p.PlanSteps[p.PlanCurrent]
}

// Task is the executable root unit: description, domain scope, dependency
// list, root-level lists, and a recursive Steps forest.
type Task struct {
	ID    string
	Title string

	Domain    string
	Phase     string
	Component string
	Tags      []string
	Priority  string
	Assignee  string

	Created time.Time
	Updated time.Time

	Blocked       bool
	BlockedReason string

	ProjectItemID      string
	ProjectIssueNumber string
	SubtaskProjectIDs  []string

	Revision int
	Events   []Event

	Parent string // Plan ID

	DependsOn []string

	Description string
	Context     string

	SuccessCriteria []string
	Risks           []string
	Problems        []string
	NextSteps       []string
	History         []string

	Steps []*Step

	Status Status

	IdempotencyKey string

	Extra map[string]string
}

func (t *Task) RootID() string             { return t.ID }
func (t *Task) RootKind() Kind             { return KindTask }
func (t *Task) GetDomain() string          { return t.Domain }
func (t *Task) SetDomain(d string)         { t.Domain = d }
func (t *Task) GetRevision() int           { return t.Revision }
func (t *Task) SetRevision(r int)          { t.Revision = r }
func (t *Task) GetUpdated() time.Time      { return t.Updated }
func (t *Task) SetUpdated(tm time.Time)    { t.Updated = tm }
func (t *Task) AppendEvent(e Event)        { t.Events = append(t.Events, e) }
func (t *Task) GetEvents() []Event         { return t.Events }
func (t *Task) GetIdempotencyKey() string  { return t.IdempotencyKey }
func (t *Task) GetProjectItemID() string   { return t.ProjectItemID }
func (t *Task) SetProjectItemID(id string) { t.ProjectItemID = id }

// Progress returns the percentage (0-100) of completed Steps across the
// recursive forest: root steps plus the steps of every embedded task node,
// at any depth.
func (t *Task) Progress() int {
	total, done := countSteps(t.Steps)
	if total == 0 {
		return 0
	}
	return done * 100 / total
}

func countSteps(steps []*Step) (total, done int) {
	for _, s := range steps {
		total++
		if s.Completed {
			done++
		}
		if s.Plan != nil {
			for _, tn := range s.Plan.Tasks {
				st, sd := countSteps(tn.Steps)
				total += st
				done += sd
			}
		}
	}
	return total, done
}

// AllStepsComplete reports whether every recursively nested Step is
// completed. An empty forest counts as complete (vacuously true) so that a
// freshly-decomposed task with no steps yet does not itself block DONE;
// root success-criteria emptiness is what keeps the runway closed.
func (t *Task) AllStepsComplete() bool {
	total, done := countSteps(t.Steps)
	return total == done
}

// ComputeStatus implements the root Task status invariant: DONE iff every
// root-level success criterion exists AND all steps recursively are 100%
// complete AND not blocked. Reaching 100% progress alone is not sufficient
// when root success criteria are empty.
func (t *Task) ComputeStatus() Status {
	if t.Blocked {
		return StatusBlocked
	}
	if len(t.SuccessCriteria) > 0 && t.AllStepsComplete() {
		return StatusDone
	}
	if t.Progress() > 0 {
		return StatusActive
	}
	return StatusPending
}
