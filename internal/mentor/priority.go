package mentor

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Prioritizer picks the top 3 tasks to focus on next from the flat
// dashboard, weighing due labels, started work and category balance.
type Prioritizer struct {
	oracle Oracle
}

// NewPrioritizer creates a priority engine on top of the oracle.
func NewPrioritizer(oracle Oracle) *Prioritizer {
	return &Prioritizer{oracle: oracle}
}

// TopTasks returns up to 3 open tasks the user should tackle next. With 3 or
// fewer open tasks the oracle is skipped entirely. Oracle names that do not
// match an open task are dropped rather than guessed at.
func (p *Prioritizer) TopTasks(ctx context.Context, tasks map[Category][]*Task) ([]*Task, error) {
	var open []*Task
	var lines []string
	for _, cat := range Categories() {
		for _, t := range tasks[cat] {
			if t.Done {
				continue
			}
			open = append(open, t)
			line := fmt.Sprintf("- [%s] %s", cat, t.Text)
			if t.Due != "" {
				line += " (due " + t.Due + ")"
			}
			if t.Started {
				line += " (in progress)"
			}
			lines = append(lines, line)
		}
	}
	if len(open) <= 3 {
		return open, nil
	}

	prompt := fmt.Sprintf(`You are a goal mentor for students. From the task list below, pick the 3 tasks the user should focus on right now.
Prefer tasks with near due dates, tasks already in progress, and a healthy mix of categories. Return the task texts exactly as written.
Tasks:
%s
Return ONLY valid JSON:
{
  "top": ["task text", "task text", "task text"]
}`, strings.Join(lines, "\n"))

	var resp struct {
		Top []string `json:"top"`
	}
	if err := p.oracle.GenerateJSON(ctx, prompt, &resp); err != nil {
		return nil, fmt.Errorf("priority pick failed: %w", err)
	}

	var out []*Task
	for _, name := range resp.Top {
		for _, t := range open {
			if strings.EqualFold(strings.TrimSpace(name), t.Text) {
				out = append(out, t)
				break
			}
		}
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no picks matched open tasks", ErrMalformedResponse)
	}
	log.Printf("[Prioritizer] Picked %d of %d open tasks", len(out), len(open))
	return out, nil
}
