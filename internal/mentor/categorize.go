package mentor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

// CategorizationResult is the outcome of one classification call. Items are
// candidates only; nothing is created in the store by this stage. A zero
// batch confidence flags the whole result and carries ClarificationMessage,
// but the items are still returned so the user can see why nothing usable
// was produced.
type CategorizationResult struct {
	Items      []CandidateTask `json:"items"`
	Confidence int             `json:"confidence"`
	Rationale  string          `json:"rationale"`
	Message    string          `json:"message,omitempty"`
}

// Usable reports whether the batch may be presented as actionable output.
func (r *CategorizationResult) Usable() bool {
	return r.Confidence > 0
}

// Categorizer classifies a free-form thought dump into the four fixed
// category buckets with a confidence score and rationale.
type Categorizer struct {
	oracle Oracle
}

// NewCategorizer creates a categorization engine on top of the oracle.
func NewCategorizer(oracle Oracle) *Categorizer {
	return &Categorizer{oracle: oracle}
}

// Categorize classifies raw text in one oracle call. Empty or
// whitespace-only input is rejected locally without invoking the oracle.
// Stored user feedback is passed along as steering context.
func (c *Categorizer) Categorize(ctx context.Context, raw string, feedback []string) (*CategorizationResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	prompt := fmt.Sprintf(`You are a task organizer for students.
Categorize the user's thoughts into EXACTLY these groups:
- Academics
- Personal
- Hobbies
- Future/Long-term Goals
Fix any spelling errors or typos and return each thought in title case.
Rank your confidence in the categorization from 1 to 10 in the "confidence" field,
and explain what about the thoughts made you decide on these categories in the "rationale" field.
If you receive gibberish or something you simply cannot categorize, give a 0 in the confidence field and explain why in the rationale.
Users can give feedback on previous categorizations; take it into account only where it does not harm the categorization, and mention in the rationale when it changed the outcome. Disregard empty or illogical feedback.
Return ONLY valid JSON like:
{
  "Academics": ["..."],
  "Personal": [],
  "Hobbies": [],
  "Future/Long-term Goals": [],
  "confidence": 0-10,
  "rationale": "explanation for the confidence rating"
}

Thoughts: %s
User feedback: %s`, raw, strings.Join(feedback, "; "))

	var resp struct {
		Academics  []string `json:"Academics"`
		Personal   []string `json:"Personal"`
		Hobbies    []string `json:"Hobbies"`
		Future     []string `json:"Future/Long-term Goals"`
		Confidence int      `json:"confidence"`
		Rationale  string   `json:"rationale"`
	}
	if err := c.oracle.GenerateJSON(ctx, prompt, &resp); err != nil {
		return nil, fmt.Errorf("categorization failed: %w", err)
	}
	if resp.Confidence < 0 || resp.Confidence > 10 {
		return nil, fmt.Errorf("%w: confidence %d out of range", ErrMalformedResponse, resp.Confidence)
	}

	res := &CategorizationResult{
		Confidence: resp.Confidence,
		Rationale:  resp.Rationale,
	}
	buckets := []struct {
		cat   Category
		items []string
	}{
		{CategoryAcademics, resp.Academics},
		{CategoryPersonal, resp.Personal},
		{CategoryHobbies, resp.Hobbies},
		{CategoryFuture, resp.Future},
	}
	for _, b := range buckets {
		for _, text := range b.items {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			res.Items = append(res.Items, CandidateTask{
				ID:         uuid.New().String(),
				Text:       text,
				Category:   b.cat,
				Confidence: resp.Confidence,
				Rationale:  resp.Rationale,
			})
		}
	}

	if res.Confidence == 0 {
		// Zero confidence is a valid terminal result, never an abort: the
		// items stay, flagged, so the review gate can show why nothing
		// usable was produced.
		res.Message = ClarificationMessage
		log.Printf("[Categorizer] Zero-confidence batch (%d items): %s", len(res.Items), resp.Rationale)
	} else {
		log.Printf("[Categorizer] Categorized %d items with confidence %d", len(res.Items), res.Confidence)
	}
	return res, nil
}
