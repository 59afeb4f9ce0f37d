package mentor

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds all state for one session: flat tasks by category,
// hierarchical goals, the autonomy flag, reward counters, badges, the
// reflection log and the feedback lists. Nothing in it survives the
// session; teardown is dropping the reference.
//
// The mutex only guards against interleaved HTTP requests for the same
// session; cross-session isolation comes from the Registry.
type Store struct {
	mu sync.Mutex

	tasks    map[Category][]*Task
	goals    []*Goal
	autonomy bool

	rewards     *RewardEngine
	reflections []Reflection
	feedback    map[FeedbackKind][]string

	pendingReview *PendingReview
	lastCandidate *DecompositionResult

	events chan Celebration
}

// NewStore creates an empty session store.
func NewStore(autonomyDefault bool) *Store {
	s := &Store{
		tasks:    make(map[Category][]*Task),
		autonomy: autonomyDefault,
		rewards:  NewRewardEngine(),
		feedback: make(map[FeedbackKind][]string),
		events:   make(chan Celebration, 32),
	}
	for _, c := range Categories() {
		s.tasks[c] = []*Task{}
	}
	return s
}

// Events exposes the celebration feed for this session.
func (s *Store) Events() <-chan Celebration { return s.events }

func (s *Store) publish(cs []Celebration) {
	for _, c := range cs {
		select {
		case s.events <- c:
		default:
			// Nobody is draining the feed; drop rather than block.
		}
	}
}

// --- Flat dashboard ---

// AddTask appends a task to a category bucket, skipping case-insensitive
// duplicates and inferring a due label from the text.
func (s *Store) AddTask(cat Category, text string, prov Provenance) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if _, ok := s.tasks[cat]; !ok {
		return nil, fmt.Errorf("unknown category %q", cat)
	}
	for _, existing := range s.tasks[cat] {
		if strings.EqualFold(existing.Text, text) {
			return existing, nil
		}
	}

	t := &Task{
		ID:         uuid.New().String(),
		Text:       text,
		Due:        InferDue(text, time.Now()),
		Provenance: prov,
		Subtasks:   []*Subtask{},
	}
	s.tasks[cat] = append(s.tasks[cat], t)
	return t, nil
}

// Tasks returns the flat dashboard keyed by category.
func (s *Store) Tasks() map[Category][]*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Category][]*Task, len(s.tasks))
	for c, list := range s.tasks {
		cp := make([]*Task, len(list))
		copy(cp, list)
		out[c] = cp
	}
	return out
}

// findTask locates a task by ID on the flat dashboard or inside any goal.
// Caller must hold the lock.
func (s *Store) findTask(id string) *Task {
	for _, list := range s.tasks {
		for _, t := range list {
			if t.ID == id {
				return t
			}
		}
	}
	for _, g := range s.goals {
		for _, sg := range g.Subgoals {
			for _, t := range sg.Tasks {
				if t.ID == id {
					return t
				}
			}
		}
	}
	return nil
}

// SetTaskStarted toggles the started flag. Starting is not a completion
// event and never touches the reward counters.
func (s *Store) SetTaskStarted(id string, started bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(id)
	if t == nil {
		return fmt.Errorf("task not found: %s", id)
	}
	t.Started = started
	return nil
}

// SetTaskDone toggles completion. A false->true transition that has not
// been counted yet feeds the reward engine exactly once; un-completing
// re-arms the latch but never rewinds the lifetime counter.
func (s *Store) SetTaskDone(id string, done bool) ([]Celebration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(id)
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", id)
	}

	var out []Celebration
	if done && !t.Counted {
		t.Counted = true
		out = s.rewards.RecordCompletion(t.Text)
		log.Printf("[Store] Task completed: %s (lifetime=%d)", t.Text, s.rewards.Lifetime())
	}
	if !done {
		t.Counted = false
	}
	t.Done = done

	s.publish(out)
	return out, nil
}

// SetSubtaskDone toggles one subtask of a task.
func (s *Store) SetSubtaskDone(taskID, subtaskID string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(taskID)
	if t == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}
	for _, st := range t.Subtasks {
		if st.ID == subtaskID {
			st.Done = done
			return nil
		}
	}
	return fmt.Errorf("subtask not found: %s", subtaskID)
}

// DeleteTask removes a flat task by ID.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for cat, list := range s.tasks {
		for i, t := range list {
			if t.ID == id {
				s.tasks[cat] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("task not found: %s", id)
}

// CleanCompleted removes every done flat task and awards the task-finisher
// badge when at least one was cleared.
func (s *Store) CleanCompleted() (int, []Celebration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for cat, list := range s.tasks {
		kept := list[:0]
		for _, t := range list {
			if t.Done {
				removed++
			} else {
				kept = append(kept, t)
			}
		}
		s.tasks[cat] = kept
	}

	var out []Celebration
	if removed > 0 && s.rewards.Award(BadgeTaskFinisher) {
		out = append(out, Celebration{
			Kind:     CelebrationBadge,
			Message:  "Badge earned: " + BadgeTaskFinisher,
			Lifetime: s.rewards.Lifetime(),
		})
	}
	s.publish(out)
	return removed, out
}

// --- Goals ---

// AddGoal persists an accepted hierarchical goal.
func (s *Store) AddGoal(g *Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
}

// Goals returns the accepted hierarchical goals.
func (s *Store) Goals() []*Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// HasGoal reports whether a goal with the given ID was already accepted.
func (s *Store) HasGoal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id {
			return true
		}
	}
	return false
}

// ClearGoals drops every hierarchical goal.
func (s *Store) ClearGoals() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = nil
}

// --- Autonomy flag + purge ---

// Autonomy reports whether automatic subtask generation is on.
func (s *Store) Autonomy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autonomy
}

// SetAutonomy flips the flag without side effects; the Controller owns the
// purge-on-disable semantics.
func (s *Store) SetAutonomy(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autonomy = on
}

// PurgeAutoSubtasks removes every subtask with origin auto-generated across
// all tasks, flat and hierarchical, leaving manual subtasks untouched. It
// returns the number removed.
func (s *Store) PurgeAutoSubtasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	purge := func(t *Task) {
		kept := t.Subtasks[:0]
		for _, st := range t.Subtasks {
			if st.Origin == OriginAutoGenerated {
				removed++
			} else {
				kept = append(kept, st)
			}
		}
		t.Subtasks = kept
	}
	for _, list := range s.tasks {
		for _, t := range list {
			purge(t)
		}
	}
	for _, g := range s.goals {
		for _, sg := range g.Subgoals {
			for _, t := range sg.Tasks {
				purge(t)
			}
		}
	}
	return removed
}

// --- Rewards ---

// Progress is the counters-and-badges summary for the progress page.
type Progress struct {
	Consecutive int     `json:"consecutive_completions"`
	Lifetime    int     `json:"lifetime_completions"`
	Badges      []Badge `json:"badges"`
	TotalTasks  int     `json:"total_tasks"`
	DoneTasks   int     `json:"done_tasks"`
}

// Progress snapshots the reward state plus flat dashboard totals.
func (s *Store) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, done := 0, 0
	for _, list := range s.tasks {
		for _, t := range list {
			total++
			if t.Done {
				done++
			}
		}
	}
	return Progress{
		Consecutive: s.rewards.Consecutive(),
		Lifetime:    s.rewards.Lifetime(),
		Badges:      s.rewards.Badges(),
		TotalTasks:  total,
		DoneTasks:   done,
	}
}

// --- Reflections & feedback ---

// AddReflection appends one reflective check-in entry.
func (s *Store) AddReflection(task, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reflections = append(s.reflections, Reflection{
		Task:      task,
		Text:      text,
		Timestamp: time.Now(),
	})
	return nil
}

// Reflections returns the reflection log in insertion order.
func (s *Store) Reflections() []Reflection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reflection, len(s.reflections))
	copy(out, s.reflections)
	return out
}

// AddFeedback stores free-text steering for future oracle calls. It never
// mutates existing entities.
func (s *Store) AddFeedback(kind FeedbackKind, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[kind] = append(s.feedback[kind], text)
	return nil
}

// Feedback returns the stored feedback for one engine.
func (s *Store) Feedback(kind FeedbackKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.feedback[kind]))
	copy(out, s.feedback[kind])
	return out
}

// ClearFeedback drops the stored feedback for one engine.
func (s *Store) ClearFeedback(kind FeedbackKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[kind] = nil
}

// --- Candidate slots ---

// SetPendingReview replaces the pending categorization review set; each run
// produces a fresh, independent set.
func (s *Store) SetPendingReview(pr *PendingReview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingReview = pr
}

// PendingReview returns the current pending review set, if any.
func (s *Store) PendingReview() *PendingReview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingReview
}

// SetLastCandidate stores the most recent decomposition result, still
// unpersisted until accepted through the gate.
func (s *Store) SetLastCandidate(res *DecompositionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCandidate = res
}

// LastCandidate returns the most recent decomposition result, if any.
func (s *Store) LastCandidate() *DecompositionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCandidate
}

// Registry maps session keys to store instances, giving each session its
// own isolated state instead of shared mutable globals.
type Registry struct {
	mu              sync.Mutex
	stores          map[string]*Store
	autonomyDefault bool
}

// NewRegistry creates an empty registry. autonomyDefault seeds the flag for
// every new session store.
func NewRegistry(autonomyDefault bool) *Registry {
	return &Registry{
		stores:          make(map[string]*Store),
		autonomyDefault: autonomyDefault,
	}
}

// Get returns the store for a session key, creating it on first use.
func (r *Registry) Get(key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[key]; ok {
		return s
	}
	s := NewStore(r.autonomyDefault)
	r.stores[key] = s
	return s
}

// Drop discards a session's store. Teardown is dropping the reference.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, key)
}
