package mentor

// Derived values are computed from children on every call, so no node ever
// carries a stale aggregate across a structural edit.

// Status derives the subgoal state from its tasks: completed iff all tasks
// are done, in-progress iff at least one is started or done, otherwise
// not-started.
func (sg *Subgoal) Status() SubgoalStatus {
	if len(sg.Tasks) == 0 {
		return SubgoalNotStarted
	}
	allDone := true
	anyTouched := false
	for _, t := range sg.Tasks {
		if t.Done {
			anyTouched = true
		} else {
			allDone = false
			if t.Started {
				anyTouched = true
			}
		}
	}
	if allDone {
		return SubgoalCompleted
	}
	if anyTouched {
		return SubgoalInProgress
	}
	return SubgoalNotStarted
}

// EstimatedMinutes sums the estimates of the subgoal's tasks.
func (sg *Subgoal) EstimatedMinutes() int {
	total := 0
	for _, t := range sg.Tasks {
		total += t.EstimatedMinutes
	}
	return total
}

// TotalTasks counts tasks across all subgoals.
func (g *Goal) TotalTasks() int {
	total := 0
	for _, sg := range g.Subgoals {
		total += len(sg.Tasks)
	}
	return total
}

// CompletedTasks counts done tasks across all subgoals.
func (g *Goal) CompletedTasks() int {
	done := 0
	for _, sg := range g.Subgoals {
		for _, t := range sg.Tasks {
			if t.Done {
				done++
			}
		}
	}
	return done
}

// CompletionPercent is done tasks over total tasks, 0 when there are none.
func (g *Goal) CompletionPercent() float64 {
	total := g.TotalTasks()
	if total == 0 {
		return 0
	}
	return float64(g.CompletedTasks()) / float64(total) * 100
}

// EstimatedMinutes sums the estimates of every descendant task.
func (g *Goal) EstimatedMinutes() int {
	total := 0
	for _, sg := range g.Subgoals {
		total += sg.EstimatedMinutes()
	}
	return total
}
