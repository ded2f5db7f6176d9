package store

import (
	"slices"
	"time"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/models"
)

const week = 7 * 24 * time.Hour

// ComputeProgress scans the whole state into the counters achievements are
// evaluated against.
func ComputeProgress(s models.AppState, now time.Time) achievements.Progress {
	p := achievements.Progress{
		TotalWorkouts:          len(s.Sessions),
		TotalExercises:         len(s.Exercises),
		TotalWorkoutPlans:      len(s.Workouts),
		CurrentStreak:          s.CurrentStreak,
		LongestStreak:          s.Stats.LongestStreak,
		TotalXP:                s.Stats.TotalXP,
		ConsecutiveWorkoutDays: s.CurrentStreak,
	}

	categories := make(map[string]struct{})
	for _, ex := range s.Exercises {
		p.TotalLevels += ex.CurrentLevel
		p.ExerciseLevelUps += ex.CurrentLevel - 1
		if ex.MaxWeight > 0 {
			p.WeightIncreases++
		}
		if cat := models.CategoryKey(ex.Category); cat != "" && ex.Performed() {
			categories[cat] = struct{}{}
		}
		if !ex.CreatedAt.IsZero() && (p.FirstExerciseAt == nil || ex.CreatedAt.Before(*p.FirstExerciseAt)) {
			at := ex.CreatedAt
			p.FirstExerciseAt = &at
		}
	}
	p.DistinctCategories = len(categories)

	weekAgo := now.Add(-week)
	for _, sess := range s.Sessions {
		if !sess.Date.Before(weekAgo) {
			p.WorkoutsThisWeek++
		}
		if p.FirstWorkoutAt == nil || sess.Date.Before(*p.FirstWorkoutAt) {
			at := sess.Date
			p.FirstWorkoutAt = &at
		}
		if p.LastWorkoutAt == nil || sess.Date.After(*p.LastWorkoutAt) {
			at := sess.Date
			p.LastWorkoutAt = &at
		}
	}

	return p
}

// dayStreaks returns the run of consecutive UTC calendar days with a session
// ending at the latest session day, and the longest such run overall.
func dayStreaks(sessions []models.WorkoutSession) (current, longest int) {
	if len(sessions) == 0 {
		return 0, 0
	}
	days := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		days = append(days, dayNumber(s.Date))
	}
	slices.Sort(days)
	days = slices.Compact(days)

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return run, longest
}

func dayNumber(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}
