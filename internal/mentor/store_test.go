package mentor

import (
	"testing"
	"time"
)

func TestStore_AddTaskDedupe(t *testing.T) {
	s := NewStore(false)
	a, err := s.AddTask(CategoryPersonal, "Call the dentist", ProvenanceManual)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := s.AddTask(CategoryPersonal, "call THE dentist", ProvenanceManual)
	if err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	if a.ID != b.ID {
		t.Error("case-insensitive duplicate created a second task")
	}
	if got := len(s.Tasks()[CategoryPersonal]); got != 1 {
		t.Errorf("bucket size = %d, want 1", got)
	}
}

func TestStore_AddTaskEmpty(t *testing.T) {
	s := NewStore(false)
	if _, err := s.AddTask(CategoryPersonal, "  ", ProvenanceManual); err == nil {
		t.Error("expected error for blank task")
	}
}

func TestStore_DoneLatchFeedsRewardsOnce(t *testing.T) {
	s := NewStore(false)
	task, _ := s.AddTask(CategoryPersonal, "Water the plants", ProvenanceManual)

	if _, err := s.SetTaskDone(task.ID, true); err != nil {
		t.Fatalf("done: %v", err)
	}
	if got := s.Progress().Lifetime; got != 1 {
		t.Fatalf("lifetime = %d, want 1", got)
	}

	// Re-completing without un-doing must not count again.
	s.SetTaskDone(task.ID, true)
	if got := s.Progress().Lifetime; got != 1 {
		t.Errorf("lifetime = %d after repeated done, want 1", got)
	}

	// Un-doing re-arms the latch but never rewinds the counter.
	s.SetTaskDone(task.ID, false)
	if got := s.Progress().Lifetime; got != 1 {
		t.Errorf("lifetime = %d after undo, want 1", got)
	}
	s.SetTaskDone(task.ID, true)
	if got := s.Progress().Lifetime; got != 2 {
		t.Errorf("lifetime = %d after re-completion, want 2", got)
	}
}

func TestStore_StartedNeverTouchesRewards(t *testing.T) {
	s := NewStore(false)
	task, _ := s.AddTask(CategoryPersonal, "Pack for the trip", ProvenanceManual)
	for i := 0; i < 5; i++ {
		s.SetTaskStarted(task.ID, i%2 == 0)
	}
	if got := s.Progress().Lifetime; got != 0 {
		t.Errorf("lifetime = %d, started toggles must not count", got)
	}
}

func TestStore_FindsTasksInsideGoals(t *testing.T) {
	s := NewStore(false)
	g := &Goal{
		ID:    "g1",
		Title: "Learn Spanish",
		Subgoals: []*Subgoal{{
			ID:    "sg1",
			Title: "Vocabulary",
			Tasks: []*Task{{ID: "t1", Text: "Learn 10 words"}},
		}},
	}
	s.AddGoal(g)

	cs, err := s.SetTaskDone("t1", true)
	if err != nil {
		t.Fatalf("done on goal task: %v", err)
	}
	if len(cs) == 0 {
		t.Error("hierarchical completion produced no celebration")
	}
	if g.Subgoals[0].Status() != SubgoalCompleted {
		t.Errorf("subgoal status = %s", g.Subgoals[0].Status())
	}
}

func TestStore_CleanCompletedAwardsBadge(t *testing.T) {
	s := NewStore(false)
	a, _ := s.AddTask(CategoryPersonal, "One", ProvenanceManual)
	s.AddTask(CategoryPersonal, "Two", ProvenanceManual)
	s.SetTaskDone(a.ID, true)

	removed, cs := s.CleanCompleted()
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if !hasKind(cs, CelebrationBadge) {
		t.Error("first clean should award the task-finisher badge")
	}
	if got := len(s.Tasks()[CategoryPersonal]); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}

	// Second clean with nothing to remove: no badge, no error.
	removed, cs = s.CleanCompleted()
	if removed != 0 || len(cs) != 0 {
		t.Errorf("empty clean: removed=%d celebrations=%v", removed, cs)
	}
}

func TestStore_PurgeAutoSubtasksKeepsManual(t *testing.T) {
	s := NewStore(true)
	task, _ := s.AddTask(CategoryPersonal, "Write essay", ProvenanceManual)
	task.Subtasks = append(task.Subtasks,
		&Subtask{ID: "m1", Description: "Outline", Origin: OriginManual},
		&Subtask{ID: "a1", Description: "Open editor", Origin: OriginAutoGenerated},
		&Subtask{ID: "a2", Description: "Set a timer", Origin: OriginAutoGenerated},
	)
	g := &Goal{ID: "g1", Subgoals: []*Subgoal{{Tasks: []*Task{{
		ID: "t2", Subtasks: []*Subtask{{ID: "a3", Origin: OriginAutoGenerated}},
	}}}}}
	s.AddGoal(g)

	removed := s.PurgeAutoSubtasks()
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if len(task.Subtasks) != 1 || task.Subtasks[0].Origin != OriginManual {
		t.Errorf("manual subtask was not preserved: %+v", task.Subtasks)
	}
	if len(g.Subgoals[0].Tasks[0].Subtasks) != 0 {
		t.Error("hierarchical auto subtask survived the purge")
	}
}

func TestStore_EventsFeedDoesNotBlock(t *testing.T) {
	s := NewStore(false)
	// Overflow the buffer with nobody draining; publishes must not block.
	for i := 0; i < 100; i++ {
		task, _ := s.AddTask(CategoryPersonal, time.Now().Add(time.Duration(i)).String(), ProvenanceManual)
		s.SetTaskDone(task.ID, true)
	}
}

func TestRegistry_SessionIsolation(t *testing.T) {
	r := NewRegistry(false)
	a := r.Get("session-a")
	b := r.Get("session-b")
	if a == b {
		t.Fatal("different keys must get different stores")
	}
	a.AddTask(CategoryPersonal, "Only in A", ProvenanceManual)
	if got := len(b.Tasks()[CategoryPersonal]); got != 0 {
		t.Errorf("session b sees %d of session a's tasks", got)
	}
	if r.Get("session-a") != a {
		t.Error("same key must return the same store")
	}
	r.Drop("session-a")
	if r.Get("session-a") == a {
		t.Error("dropped session must get a fresh store")
	}
}
