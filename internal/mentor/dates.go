package mentor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dayOfMonthRe = regexp.MustCompile(`\b(\d{1,2})\s*(st|nd|rd|th)?\b`)

// InferDue guesses a due label from task text. It is a small heuristic, not
// a parser: "tomorrow", "next week", "today"/"tonight" and bare day-of-month
// numbers produce a "Jan 02" style label; anything else yields "".
func InferDue(text string, now time.Time) string {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1).Format("Jan 02")
	}
	if m := dayOfMonthRe.FindStringSubmatch(lower); m != nil {
		if day, err := strconv.Atoi(m[1]); err == nil && day >= 1 && day <= 31 {
			candidate := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
			// Reject roll-overs like Feb 30 -> Mar 02.
			if candidate.Day() == day {
				return candidate.Format("Jan 02")
			}
		}
	}
	if strings.Contains(lower, "next week") {
		return now.AddDate(0, 0, 7).Format("Jan 02")
	}
	if strings.Contains(lower, "today") || strings.Contains(lower, "tonight") {
		return now.Format("Jan 02")
	}
	return ""
}
