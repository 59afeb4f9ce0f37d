package mentor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

// Controller owns the autonomy toggle semantics. Enabling only flips the
// flag; disabling synchronously purges every auto-generated subtask so no
// AI-generated detail survives the opt-out. Manual subtasks are never
// touched.
type Controller struct {
	store  *Store
	oracle Oracle
}

// NewController wires the controller to a session store and the oracle.
func NewController(store *Store, oracle Oracle) *Controller {
	return &Controller{store: store, oracle: oracle}
}

// Enabled reports the current autonomy flag.
func (c *Controller) Enabled() bool { return c.store.Autonomy() }

// SetEnabled flips the flag. Turning autonomy off purges auto-generated
// subtasks before returning, so the purge is total from the caller's view.
// It returns the number of subtasks removed (always 0 when enabling).
func (c *Controller) SetEnabled(on bool) int {
	c.store.SetAutonomy(on)
	if on {
		return 0
	}
	removed := c.store.PurgeAutoSubtasks()
	log.Printf("[Autonomy] Disabled, purged %d auto-generated subtasks", removed)
	return removed
}

// GenerateSubtasks asks the oracle for 3-5 micro-steps and attaches them to
// the task with origin auto-generated. Tasks that already carry subtasks are
// left alone. Errors propagate so the caller can log and move on; the task
// itself is never rolled back.
func (c *Controller) GenerateSubtasks(ctx context.Context, t *Task) error {
	if len(t.Subtasks) > 0 {
		return nil
	}

	prompt := fmt.Sprintf(`You are a goal mentor for students. Break this task into 3-5 tiny micro-steps.
Each micro-step should be a single concrete action taking a few minutes at most. Keep them in execution order.
Task: %s
Return ONLY valid JSON:
{
  "subtasks": ["First micro-step", "Second micro-step"]
}`, t.Text)

	var resp struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := c.oracle.GenerateJSON(ctx, prompt, &resp); err != nil {
		return err
	}
	if len(resp.Subtasks) == 0 {
		return fmt.Errorf("%w: no subtasks produced", ErrMalformedResponse)
	}

	for _, desc := range resp.Subtasks {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		t.Subtasks = append(t.Subtasks, &Subtask{
			ID:          uuid.New().String(),
			Description: desc,
			Origin:      OriginAutoGenerated,
		})
	}
	log.Printf("[Autonomy] Generated %d subtasks for %q", len(t.Subtasks), t.Text)
	return nil
}
