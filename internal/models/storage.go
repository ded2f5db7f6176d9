package models

import "time"

// UserStats is the aggregate view derived from the collections in AppState.
type UserStats struct {
	TotalLevel       int    `json:"totalLevel"`
	TotalXP          int    `json:"totalXP"`
	TotalWorkouts    int    `json:"totalWorkouts"`
	CurrentStreak    int    `json:"currentStreak"`
	LongestStreak    int    `json:"longestStreak"`
	FavoriteExercise string `json:"favoriteExercise"`
	TotalTime        int    `json:"totalTime"` // minutes
}

// NoFavorite is the favorite exercise reported before any XP is earned.
const NoFavorite = "None"

// AppState owns every collection and is the unit of persistence.
type AppState struct {
	Exercises     []Exercise       `json:"exercises"`
	Workouts      []Workout        `json:"workouts"`
	Sessions      []WorkoutSession `json:"sessions"`
	Stats         UserStats        `json:"stats"`
	CurrentStreak int              `json:"currentStreak"`
	Achievements  []Achievement    `json:"achievements"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s AppState) Clone() AppState {
	out := AppState{
		Stats:         s.Stats,
		CurrentStreak: s.CurrentStreak,
	}

	out.Exercises = make([]Exercise, len(s.Exercises))
	for i, e := range s.Exercises {
		e.LastPerformed = cloneTime(e.LastPerformed)
		out.Exercises[i] = e
	}

	out.Workouts = make([]Workout, len(s.Workouts))
	for i, w := range s.Workouts {
		w.Exercises = cloneSlice(w.Exercises)
		out.Workouts[i] = w
	}

	out.Sessions = make([]WorkoutSession, len(s.Sessions))
	for i, sess := range s.Sessions {
		exs := make([]SessionExercise, len(sess.Exercises))
		for j, se := range sess.Exercises {
			se.Sets = cloneSlice(se.Sets)
			exs[j] = se
		}
		sess.Exercises = exs
		out.Sessions[i] = sess
	}

	out.Achievements = make([]Achievement, len(s.Achievements))
	for i, a := range s.Achievements {
		a.UnlockedAt = cloneTime(a.UnlockedAt)
		out.Achievements[i] = a
	}

	return out
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
