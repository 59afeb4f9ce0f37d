package mentor

import (
	"fmt"
	"time"
)

// Celebration kinds emitted by the reward engine.
const (
	CelebrationStreak    = "streak"
	CelebrationMilestone = "milestone"
	CelebrationBadge     = "badge"
)

// Badge names. Issuance is keyed by name, so re-evaluating the same event
// stream never double-awards.
const (
	BadgeFirstCompletion = "First completion"
	BadgeThreeInARow     = "Three in a row"
	BadgeWeeklyStreak    = "Weekly streak hero"
	BadgeTaskFinisher    = "Task finisher"
)

// Celebration is one reward event derived from a completion.
type Celebration struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Task     string `json:"task,omitempty"`
	Lifetime int    `json:"lifetime"`
}

// Badge is a permanently earned achievement.
type Badge struct {
	Name     string    `json:"name"`
	EarnedAt time.Time `json:"earned_at"`
}

// RewardEngine derives streaks, milestones and badges purely from the
// stream of task-completed events. Every 3rd consecutive completion fires a
// streak celebration; every 7th lifetime completion fires a milestone. Both
// checks run independently and can co-fire on the same completion.
type RewardEngine struct {
	consecutive int
	lifetime    int
	badges      []Badge
	earned      map[string]bool
}

// NewRewardEngine creates an engine with zeroed counters.
func NewRewardEngine() *RewardEngine {
	return &RewardEngine{earned: make(map[string]bool)}
}

// Consecutive returns the in-session consecutive completion counter.
func (e *RewardEngine) Consecutive() int { return e.consecutive }

// Lifetime returns the lifetime completion counter.
func (e *RewardEngine) Lifetime() int { return e.lifetime }

// Badges returns the earned badges in award order.
func (e *RewardEngine) Badges() []Badge {
	out := make([]Badge, len(e.badges))
	copy(out, e.badges)
	return out
}

// RecordCompletion advances the counters for one task-completed event and
// returns the celebrations it triggered. Non-completion events (started
// toggles, edits) must never reach this method.
func (e *RewardEngine) RecordCompletion(taskName string) []Celebration {
	e.consecutive++
	e.lifetime++

	var out []Celebration

	if e.lifetime == 1 {
		if e.Award(BadgeFirstCompletion) {
			out = append(out, e.badgeCelebration(BadgeFirstCompletion))
		}
	}

	if e.consecutive == 3 {
		out = append(out, Celebration{
			Kind:     CelebrationStreak,
			Message:  "Three in a row! You are on fire.",
			Task:     taskName,
			Lifetime: e.lifetime,
		})
		if e.Award(BadgeThreeInARow) {
			out = append(out, e.badgeCelebration(BadgeThreeInARow))
		}
		// Streak counter restarts after the celebration fires.
		e.consecutive = 0
	}

	if e.lifetime%7 == 0 {
		out = append(out, Celebration{
			Kind:     CelebrationMilestone,
			Message:  fmt.Sprintf("Weekly streak unlocked: %d completions!", e.lifetime),
			Task:     taskName,
			Lifetime: e.lifetime,
		})
		if e.Award(BadgeWeeklyStreak) {
			out = append(out, e.badgeCelebration(BadgeWeeklyStreak))
		}
	}

	return out
}

// Award grants a badge once. It reports whether the badge was newly earned;
// an already-earned badge is never revoked or duplicated.
func (e *RewardEngine) Award(name string) bool {
	if e.earned[name] {
		return false
	}
	e.earned[name] = true
	e.badges = append(e.badges, Badge{Name: name, EarnedAt: time.Now()})
	return true
}

func (e *RewardEngine) badgeCelebration(name string) Celebration {
	return Celebration{
		Kind:     CelebrationBadge,
		Message:  "Badge earned: " + name,
		Lifetime: e.lifetime,
	}
}
