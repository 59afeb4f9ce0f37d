package mentor

import "testing"

func kinds(cs []Celebration) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Kind
	}
	return out
}

func hasKind(cs []Celebration, kind string) bool {
	for _, c := range cs {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

func TestRewards_FirstCompletionBadge(t *testing.T) {
	e := NewRewardEngine()
	cs := e.RecordCompletion("read chapter 1")
	if !hasKind(cs, CelebrationBadge) {
		t.Errorf("first completion should award a badge, got %v", kinds(cs))
	}
	if len(e.Badges()) != 1 || e.Badges()[0].Name != BadgeFirstCompletion {
		t.Errorf("badges = %+v", e.Badges())
	}
}

func TestRewards_StreakEveryThirdConsecutive(t *testing.T) {
	e := NewRewardEngine()
	e.RecordCompletion("a")
	e.RecordCompletion("b")
	cs := e.RecordCompletion("c")
	if !hasKind(cs, CelebrationStreak) {
		t.Fatalf("third consecutive completion should fire a streak, got %v", kinds(cs))
	}
	if e.Consecutive() != 0 {
		t.Errorf("consecutive = %d, must reset after the streak fires", e.Consecutive())
	}

	// Next streak needs three more completions, not one.
	if cs := e.RecordCompletion("d"); hasKind(cs, CelebrationStreak) {
		t.Error("streak fired one completion after reset")
	}
	e.RecordCompletion("e")
	if cs := e.RecordCompletion("f"); !hasKind(cs, CelebrationStreak) {
		t.Error("second streak did not fire on the sixth completion")
	}
}

func TestRewards_MilestoneEverySeventhLifetime(t *testing.T) {
	e := NewRewardEngine()
	for i := 0; i < 6; i++ {
		if cs := e.RecordCompletion("t"); hasKind(cs, CelebrationMilestone) {
			t.Fatalf("milestone fired early at lifetime %d", e.Lifetime())
		}
	}
	if cs := e.RecordCompletion("t"); !hasKind(cs, CelebrationMilestone) {
		t.Error("milestone did not fire at lifetime 7")
	}
	for i := 0; i < 6; i++ {
		e.RecordCompletion("t")
	}
	if cs := e.RecordCompletion("t"); !hasKind(cs, CelebrationMilestone) {
		t.Error("milestone did not fire at lifetime 14")
	}
}

func TestRewards_StreakAndMilestoneCoFire(t *testing.T) {
	e := NewRewardEngine()
	var last []Celebration
	for i := 0; i < 21; i++ {
		last = e.RecordCompletion("t")
	}
	// 21 is divisible by both cycle lengths, so both fire together.
	if !hasKind(last, CelebrationStreak) || !hasKind(last, CelebrationMilestone) {
		t.Errorf("completion 21 should co-fire streak and milestone, got %v", kinds(last))
	}
	if e.Lifetime() != 21 {
		t.Errorf("lifetime = %d", e.Lifetime())
	}
}

func TestRewards_BadgesAreIdempotent(t *testing.T) {
	e := NewRewardEngine()
	if !e.Award(BadgeTaskFinisher) {
		t.Fatal("first award should succeed")
	}
	if e.Award(BadgeTaskFinisher) {
		t.Error("second award of the same badge must be a no-op")
	}
	if len(e.Badges()) != 1 {
		t.Errorf("badges = %d, want 1", len(e.Badges()))
	}
}
