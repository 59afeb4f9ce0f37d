package mentor

import (
	"strings"
	"time"
)

// Suggestion pairs a nudge with the tasks it applies to.
type Suggestion struct {
	Hint  string   `json:"hint"`
	Tasks []string `json:"tasks,omitempty"`
}

// Suggest produces contextual nudges from the time of day and the open
// dashboard. Pure heuristic, no oracle call: it has to work even when the
// model is down.
func Suggest(tasks map[Category][]*Task, now time.Time) []Suggestion {
	var open []*Task
	for _, cat := range Categories() {
		for _, t := range tasks[cat] {
			if !t.Done {
				open = append(open, t)
			}
		}
	}

	var out []Suggestion
	hour := now.Hour()
	switch {
	case hour < 12:
		out = append(out, Suggestion{
			Hint:  "Morning focus: knock out the hardest task while energy is high.",
			Tasks: matchTasks(open, "study", "write", "read", "review"),
		})
	case hour < 18:
		out = append(out, Suggestion{
			Hint:  "Afternoon slot: good time for errands and quick wins.",
			Tasks: matchTasks(open, "buy", "call", "email", "clean"),
		})
	default:
		out = append(out, Suggestion{
			Hint:  "Evening wind-down: pick something light or plan tomorrow.",
			Tasks: matchTasks(open, "plan", "journal", "pack", "practice"),
		})
	}

	today := now.Format("Jan 02")
	var due []string
	for _, t := range open {
		if t.Due == today {
			due = append(due, t.Text)
		}
	}
	if len(due) > 0 {
		out = append(out, Suggestion{Hint: "Due today:", Tasks: due})
	}

	var started []string
	for _, t := range open {
		if t.Started {
			started = append(started, t.Text)
		}
	}
	if len(started) > 0 {
		out = append(out, Suggestion{Hint: "Already in progress, close these out:", Tasks: started})
	}

	return out
}

func matchTasks(open []*Task, keywords ...string) []string {
	var out []string
	for _, t := range open {
		lower := strings.ToLower(t.Text)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, t.Text)
				break
			}
		}
	}
	return out
}
