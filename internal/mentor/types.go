package mentor

import (
	"strings"
	"time"
)

// Category is the fixed, closed set of dashboard buckets.
type Category string

const (
	CategoryAcademics Category = "Academics"
	CategoryPersonal  Category = "Personal"
	CategoryHobbies   Category = "Hobbies"
	CategoryFuture    Category = "Future/Long-term Goals"
)

// Categories returns the buckets in dashboard order.
func Categories() []Category {
	return []Category{CategoryAcademics, CategoryPersonal, CategoryHobbies, CategoryFuture}
}

// ParseCategory maps a string onto the closed category set.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Provenance marks how a task entered the store.
type Provenance string

const (
	ProvenanceManual     Provenance = "manual"
	ProvenanceAIAccepted Provenance = "ai-accepted"
)

// SubtaskOrigin scopes bulk removal: only auto-generated subtasks are purged
// when autonomy is switched off.
type SubtaskOrigin string

const (
	OriginManual        SubtaskOrigin = "manual"
	OriginAutoGenerated SubtaskOrigin = "auto-generated"
)

// SubgoalStatus is derived from child tasks, never stored.
type SubgoalStatus string

const (
	SubgoalNotStarted SubgoalStatus = "not-started"
	SubgoalInProgress SubgoalStatus = "in-progress"
	SubgoalCompleted  SubgoalStatus = "completed"
)

// ClarificationMessage is forwarded verbatim whenever the oracle reports
// zero confidence for a categorization or decomposition.
const ClarificationMessage = "Categorization failed due to vague or unclear thoughts. Clarify thoughts and try again."

// RationaleNote attributes one explanation to the stage that produced it.
type RationaleNote struct {
	Stage string `json:"stage"`
	Note  string `json:"note"`
}

// Rationale is the ordered per-stage explanation trail for a confidence score.
// Stages append, never overwrite, so attribution is not lost.
type Rationale []RationaleNote

// Render flattens the trail into a single string for presentation.
func (r Rationale) Render() string {
	parts := make([]string, 0, len(r))
	for _, n := range r {
		if n.Stage == "" {
			parts = append(parts, n.Note)
			continue
		}
		parts = append(parts, n.Stage+": "+n.Note)
	}
	return strings.Join(parts, "\n")
}

// Subtask is the smallest unit of work within a task.
type Subtask struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Done        bool          `json:"done"`
	Origin      SubtaskOrigin `json:"origin"`
}

// Task is a unit of work owned by a subgoal, or directly by a category
// bucket on the flat dashboard.
type Task struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Due              string     `json:"due,omitempty"`
	Started          bool       `json:"started"`
	Done             bool       `json:"done"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Provenance       Provenance `json:"provenance"`
	Subtasks         []*Subtask `json:"subtasks"`

	// Counted latches the completion so one done-transition feeds the
	// reward engine exactly once.
	Counted bool `json:"counted"`
}

// Subgoal groups related tasks within a goal.
type Subgoal struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Level int     `json:"level"`
	Tasks []*Task `json:"tasks"`
}

// Goal is the top of the hierarchy: Goal -> Subgoal -> Task -> Subtask.
type Goal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Confidence  int        `json:"confidence"`
	Rationale   Rationale  `json:"rationale"`
	CreatedAt   time.Time  `json:"created_at"`
	Subgoals    []*Subgoal `json:"subgoals"`
}

// CandidateTask is an AI-produced flat task that has not passed the review
// gate yet. Confidence and rationale describe the oracle's original
// judgment and are immutable once generated.
type CandidateTask struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Category   Category `json:"category"`
	Confidence int      `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// Reflection is one entry of the reflective check-in log.
type Reflection struct {
	Task      string    `json:"task"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackKind selects which engine a piece of user feedback steers.
type FeedbackKind string

const (
	FeedbackCategorization FeedbackKind = "categorization"
	FeedbackDecomposition  FeedbackKind = "decomposition"
)

func clampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
