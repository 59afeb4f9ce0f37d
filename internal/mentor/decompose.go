package mentor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pipeline stage names, used to attribute rationale notes and failures.
const (
	StageParseGoal         = "parse-goal"
	StageDecomposeSubgoals = "decompose-subgoals"
	StageGenerateTasks     = "generate-tasks"
	StageFinalize          = "finalize"
)

// TerminalState is the outcome of one pipeline run.
type TerminalState string

const (
	// RunCompleted means the full tree was returned.
	RunCompleted TerminalState = "completed"
	// RunAborted means stage 1 or an unrecoverable oracle error stopped the run.
	RunAborted TerminalState = "aborted"
	// RunPartiallyCompleted means task generation failed for at least one
	// subgoal; succeeded subgoals are intact.
	RunPartiallyCompleted TerminalState = "partially-completed"
)

// SubgoalFailure records one failed task-generation iteration.
type SubgoalFailure struct {
	Subgoal string `json:"subgoal"`
	Reason  string `json:"reason"`
}

// DecompositionResult is the candidate produced by one pipeline run. The
// goal is unpersisted until it passes the review gate.
type DecompositionResult struct {
	Goal     *Goal            `json:"goal"`
	State    TerminalState    `json:"state"`
	Failures []SubgoalFailure `json:"failures,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// Usable reports whether the candidate may be accepted.
func (r *DecompositionResult) Usable() bool {
	return r.Goal != nil && r.Goal.Confidence > 0
}

// Decomposer runs the four-stage goal decomposition pipeline:
// parse-goal -> decompose-subgoals -> generate-tasks (one iteration per
// subgoal, in creation order) -> finalize. Stages run strictly sequentially
// because rationale attribution depends on confidence propagation order.
// Every run is a fresh pipeline instance; there is no resumable state.
type Decomposer struct {
	oracle Oracle
}

// NewDecomposer creates a decomposition engine on top of the oracle.
func NewDecomposer(oracle Oracle) *Decomposer {
	return &Decomposer{oracle: oracle}
}

// Decompose turns one free-text goal plus category into a full candidate
// tree. Goal-level confidence is the minimum confidence observed across all
// stages that touched it, so the top-level number never overstates
// certainty; failed subgoals are excluded from that minimum and reported
// separately.
func (d *Decomposer) Decompose(ctx context.Context, goalText string, cat Category, feedback []string) (*DecompositionResult, error) {
	if strings.TrimSpace(goalText) == "" {
		return nil, ErrEmptyInput
	}

	log.Printf("[Decomposer] Parsing goal: %.60q", goalText)
	parsed, err := d.parseGoal(ctx, goalText, feedback)
	if err != nil {
		return nil, fmt.Errorf("%s stage failed: %w", StageParseGoal, err)
	}

	g := &Goal{
		ID:          uuid.New().String(),
		Title:       parsed.Title,
		Description: parsed.Description,
		Category:    cat,
		Confidence:  clampConfidence(parsed.Confidence),
		Rationale:   Rationale{{Stage: StageParseGoal, Note: parsed.Rationale}},
		CreatedAt:   time.Now(),
	}

	if g.Confidence == 0 {
		// The oracle disowned its own judgment; later stages would build on
		// nothing. Terminal, valid, unusable.
		log.Printf("[Decomposer] Zero-confidence parse, skipping remaining stages")
		return &DecompositionResult{
			Goal:    g,
			State:   RunCompleted,
			Message: ClarificationMessage,
		}, nil
	}

	subgoals, err := d.decomposeSubgoals(ctx, g, feedback)
	if err != nil {
		return nil, fmt.Errorf("%s stage failed: %w", StageDecomposeSubgoals, err)
	}

	var failures []SubgoalFailure
	for i, sg := range subgoals {
		if err := d.generateTasks(ctx, g, sg, feedback); err != nil {
			// One subgoal's failure never disturbs completed iterations.
			failures = append(failures, SubgoalFailure{Subgoal: sg.Title, Reason: err.Error()})
			log.Printf("[Decomposer] WARNING task generation failed for subgoal %d (%s): %v", i+1, sg.Title, err)
		}
		g.Subgoals = append(g.Subgoals, sg)
	}

	return d.finalize(g, failures), nil
}

type parsedGoal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
	Rationale   string `json:"rationale"`
}

func (d *Decomposer) parseGoal(ctx context.Context, goalText string, feedback []string) (*parsedGoal, error) {
	prompt := fmt.Sprintf(`You are a goal mentor for students. Parse this goal into a clear title and description.
Track your confidence in the user's goal and your reading of it, ranked out of 10. A vague or single-word goal like "Jog" or "Study" deserves a low confidence rating because you must assume a lot about the user's end goal; a clear, specific goal deserves a high one. Explain the rating in the "rationale" field, clear and concise, tying back to the user's goal.
If the input does not make sense at all, give a 0 in the confidence field and explain why in the rationale.
Users can give feedback based on past usage; take it into account but never let it take you completely off-course.
User goal: %s
User feedback: %s
Return ONLY valid JSON:
{
  "title": "Short, clear goal title (max 10 words)",
  "description": "Brief description of what success looks like (1-2 sentences)",
  "confidence": 0-10,
  "rationale": "explanation for the confidence rating"
}`, goalText, strings.Join(feedback, "; "))

	var resp parsedGoal
	if err := d.oracle.GenerateJSON(ctx, prompt, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrMalformedResponse)
	}
	if resp.Confidence < 0 || resp.Confidence > 10 {
		return nil, fmt.Errorf("%w: confidence %d out of range", ErrMalformedResponse, resp.Confidence)
	}
	return &resp, nil
}

func (d *Decomposer) decomposeSubgoals(ctx context.Context, g *Goal, feedback []string) ([]*Subgoal, error) {
	prompt := fmt.Sprintf(`You are a goal mentor for students. Break down this goal into 3-5 major subgoals.
Each subgoal should be a distinct phase or component; subgoals should be sequential or complementary; avoid overwhelming detail (that comes in the task breakdown).
Reassess the confidence rating out of 10: keep the current rating if it is accurate, lower it if this breakdown required more assumptions. Explain in the "rationale" field.
Users can give feedback based on past usage; take it into account but never let it take you completely off-course.

Goal: %s
Description: %s
Current confidence: %d
Current rationale: %s
User feedback: %s

Return ONLY valid JSON:
{
  "subgoals": [
    {"title": "Subgoal 1 title"},
    {"title": "Subgoal 2 title"}
  ],
  "confidence": 0-10,
  "rationale": "explanation for the confidence rating"
}`, g.Title, g.Description, g.Confidence, g.Rationale.Render(), strings.Join(feedback, "; "))

	var resp struct {
		Subgoals []struct {
			Title string `json:"title"`
		} `json:"subgoals"`
		Confidence int    `json:"confidence"`
		Rationale  string `json:"rationale"`
	}
	if err := d.oracle.GenerateJSON(ctx, prompt, &resp); err != nil {
		return nil, err
	}
	if len(resp.Subgoals) == 0 {
		return nil, fmt.Errorf("%w: no subgoals produced", ErrMalformedResponse)
	}
	if len(resp.Subgoals) < 3 || len(resp.Subgoals) > 5 {
		// Tolerated: the count is a prompt request, not a schema rule.
		log.Printf("[Decomposer] WARNING %d subgoals outside requested 3-5 range", len(resp.Subgoals))
	}
	if resp.Confidence < 0 || resp.Confidence > 10 {
		return nil, fmt.Errorf("%w: confidence %d out of range", ErrMalformedResponse, resp.Confidence)
	}

	d.lowerConfidence(g, StageDecomposeSubgoals, resp.Confidence, resp.Rationale)

	subgoals := make([]*Subgoal, 0, len(resp.Subgoals))
	for i, sg := range resp.Subgoals {
		title := strings.TrimSpace(sg.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: subgoal %d missing title", ErrMalformedResponse, i+1)
		}
		subgoals = append(subgoals, &Subgoal{
			ID:    uuid.New().String(),
			Title: title,
			Level: i + 1,
			Tasks: []*Task{},
		})
	}
	log.Printf("[Decomposer] Goal %q decomposed into %d subgoals", g.Title, len(subgoals))
	return subgoals, nil
}

func (d *Decomposer) generateTasks(ctx context.Context, g *Goal, sg *Subgoal, feedback []string) error {
	prompt := fmt.Sprintf(`You are a goal mentor for students. Generate 5-7 specific, actionable tasks for this subgoal.
Each task should be concrete and doable with minimal resources; prefer tasks that take 5-15 minutes; include a time estimate in minutes.
Reassess the confidence rating out of 10: keep the current rating if it is accurate, lower it if this breakdown required more assumptions. Explain in the "rationale" field.
Users can give feedback based on past usage; take it into account but never let it take you completely off-course.

Main goal: %s
Current subgoal: %s
Current confidence: %d
User feedback: %s

Return ONLY valid JSON:
{
  "tasks": [
    {"task": "Specific task description", "estimated_minutes": 10}
  ],
  "confidence": 0-10,
  "rationale": "explanation for the confidence rating"
}`, g.Title, sg.Title, g.Confidence, strings.Join(feedback, "; "))

	var resp struct {
		Tasks []struct {
			Task             string `json:"task"`
			EstimatedMinutes int    `json:"estimated_minutes"`
		} `json:"tasks"`
		Confidence int    `json:"confidence"`
		Rationale  string `json:"rationale"`
	}
	if err := d.oracle.GenerateJSON(ctx, prompt, &resp); err != nil {
		return err
	}
	if len(resp.Tasks) == 0 {
		return fmt.Errorf("%w: no tasks produced", ErrMalformedResponse)
	}
	if len(resp.Tasks) < 5 || len(resp.Tasks) > 7 {
		log.Printf("[Decomposer] WARNING %d tasks for subgoal %q outside requested 5-7 range", len(resp.Tasks), sg.Title)
	}
	if resp.Confidence < 0 || resp.Confidence > 10 {
		return fmt.Errorf("%w: confidence %d out of range", ErrMalformedResponse, resp.Confidence)
	}

	for i, t := range resp.Tasks {
		text := strings.TrimSpace(t.Task)
		if text == "" {
			return fmt.Errorf("%w: task %d missing text", ErrMalformedResponse, i+1)
		}
		minutes := t.EstimatedMinutes
		if minutes < 0 {
			return fmt.Errorf("%w: task %q has negative estimate", ErrMalformedResponse, text)
		}
		sg.Tasks = append(sg.Tasks, &Task{
			ID:               uuid.New().String(),
			Text:             text,
			EstimatedMinutes: minutes,
			Provenance:       ProvenanceAIAccepted,
			Subtasks:         []*Subtask{},
		})
	}

	d.lowerConfidence(g, StageGenerateTasks+" ("+sg.Title+")", resp.Confidence, resp.Rationale)
	return nil
}

// lowerConfidence applies the minimum rule: the goal-level confidence only
// ever goes down, and the stage that lowered it is named in an appended
// rationale note. Failed stages never reach here, so they are excluded.
func (d *Decomposer) lowerConfidence(g *Goal, stage string, confidence int, rationale string) {
	confidence = clampConfidence(confidence)
	if confidence >= g.Confidence {
		return
	}
	g.Confidence = confidence
	note := fmt.Sprintf("confidence lowered to %d", confidence)
	if rationale != "" {
		note += ": " + rationale
	}
	g.Rationale = append(g.Rationale, RationaleNote{Stage: stage, Note: note})
}

func (d *Decomposer) finalize(g *Goal, failures []SubgoalFailure) *DecompositionResult {
	g.Confidence = clampConfidence(g.Confidence)

	res := &DecompositionResult{Goal: g, State: RunCompleted, Failures: failures}
	if len(failures) > 0 {
		res.State = RunPartiallyCompleted
		names := make([]string, len(failures))
		for i, f := range failures {
			names[i] = f.Subgoal
		}
		res.Message = "Task generation failed for: " + strings.Join(names, ", ")
		g.Rationale = append(g.Rationale, RationaleNote{
			Stage: StageFinalize,
			Note:  "tasks missing for subgoals: " + strings.Join(names, ", "),
		})
	}
	log.Printf("[Decomposer] Finalized goal %q: %d subgoals, %d tasks, confidence %d, state %s",
		g.Title, len(g.Subgoals), g.TotalTasks(), g.Confidence, res.State)
	return res
}
