package mentor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// ReviewItem wraps one candidate task for the accept/edit/exclude pass.
// Include defaults to true; Text starts as the candidate's text and may be
// edited before commit. Edits never touch the candidate's confidence or
// rationale, which describe the oracle's original judgment.
type ReviewItem struct {
	Candidate CandidateTask `json:"candidate"`
	Include   bool          `json:"include"`
	Text      string        `json:"text"`
}

// PendingReview is one categorization batch awaiting user review.
type PendingReview struct {
	Items      []*ReviewItem `json:"items"`
	Confidence int           `json:"confidence"`
	Rationale  string        `json:"rationale"`
	Message    string        `json:"message,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewPendingReview builds the review set from a categorization result, with
// every item included by default.
func NewPendingReview(res *CategorizationResult) *PendingReview {
	pr := &PendingReview{
		Confidence: res.Confidence,
		Rationale:  res.Rationale,
		Message:    res.Message,
		CreatedAt:  time.Now(),
	}
	for _, c := range res.Items {
		pr.Items = append(pr.Items, &ReviewItem{Candidate: c, Include: true, Text: c.Text})
	}
	return pr
}

// Decision is one per-item user choice applied before commit. Nil fields
// leave the current value unchanged.
type Decision struct {
	ItemID  string  `json:"item_id"`
	Include *bool   `json:"include,omitempty"`
	Text    *string `json:"text,omitempty"`
}

// Gate commits reviewed candidates into the store. Nothing AI-generated
// becomes persistent state without passing through it.
type Gate struct {
	store    *Store
	autonomy *Controller
}

// NewGate wires the gate to a session store and its autonomy controller.
func NewGate(store *Store, autonomy *Controller) *Gate {
	return &Gate{store: store, autonomy: autonomy}
}

// Commit applies decisions to the pending review set and persists every
// included item as a flat dashboard task. A zero-confidence batch is refused
// outright. Excluded items are skipped without a trace; duplicates collapse
// in AddTask. When autonomy is on, each accepted task gets auto-generated
// subtasks; a generation failure leaves the task accepted.
func (g *Gate) Commit(ctx context.Context, decisions []Decision) ([]*Task, error) {
	pr := g.store.PendingReview()
	if pr == nil {
		return nil, fmt.Errorf("no pending review")
	}
	if pr.Confidence == 0 {
		return nil, fmt.Errorf("cannot accept a zero-confidence batch: %s", pr.Message)
	}

	byID := make(map[string]*ReviewItem, len(pr.Items))
	for _, it := range pr.Items {
		byID[it.Candidate.ID] = it
	}
	for _, d := range decisions {
		it, ok := byID[d.ItemID]
		if !ok {
			return nil, fmt.Errorf("unknown review item: %s", d.ItemID)
		}
		if d.Include != nil {
			it.Include = *d.Include
		}
		if d.Text != nil {
			it.Text = *d.Text
		}
	}

	// Validate every included item before persisting any, so a bad edit
	// cannot leave a half-committed batch behind.
	for _, it := range pr.Items {
		if it.Include && strings.TrimSpace(it.Text) == "" {
			return nil, fmt.Errorf("%w: item %s has blank text", ErrEmptyInput, it.Candidate.ID)
		}
	}

	var accepted []*Task
	for _, it := range pr.Items {
		if !it.Include {
			continue
		}
		t, err := g.store.AddTask(it.Candidate.Category, it.Text, ProvenanceAIAccepted)
		if err != nil {
			return nil, fmt.Errorf("accepting %q: %w", it.Text, err)
		}
		accepted = append(accepted, t)
	}

	if g.autonomy != nil && g.store.Autonomy() {
		for _, t := range accepted {
			if err := g.autonomy.GenerateSubtasks(ctx, t); err != nil {
				log.Printf("[Gate] WARNING subtask generation failed for %q: %v", t.Text, err)
			}
		}
	}

	g.store.SetPendingReview(nil)
	log.Printf("[Gate] Committed %d of %d reviewed tasks", len(accepted), len(pr.Items))
	return accepted, nil
}

// Discard drops the pending review set without persisting anything.
func (g *Gate) Discard() {
	g.store.SetPendingReview(nil)
}

// CommitGoal accepts the last decomposition candidate into the store. A
// zero-confidence candidate is refused; re-accepting the same goal is a
// no-op returning the stored copy. When autonomy is on, every leaf task
// gets auto-generated subtasks before the goal lands.
func (g *Gate) CommitGoal(ctx context.Context) (*Goal, error) {
	cand := g.store.LastCandidate()
	if cand == nil || cand.Goal == nil {
		return nil, fmt.Errorf("no decomposition candidate to accept")
	}
	if !cand.Usable() {
		return nil, fmt.Errorf("cannot accept a zero-confidence goal: %s", cand.Message)
	}
	if g.store.HasGoal(cand.Goal.ID) {
		return cand.Goal, nil
	}

	if g.autonomy != nil && g.store.Autonomy() {
		for _, sg := range cand.Goal.Subgoals {
			for _, t := range sg.Tasks {
				if err := g.autonomy.GenerateSubtasks(ctx, t); err != nil {
					log.Printf("[Gate] WARNING subtask generation failed for %q: %v", t.Text, err)
				}
			}
		}
	}

	g.store.AddGoal(cand.Goal)
	g.store.SetLastCandidate(nil)
	log.Printf("[Gate] Accepted goal %q (%d subgoals, %d tasks)",
		cand.Goal.Title, len(cand.Goal.Subgoals), cand.Goal.TotalTasks())
	return cand.Goal, nil
}
