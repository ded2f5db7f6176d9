package store

import (
	"strings"
	"time"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/progression"
	"github.com/claude/levelgym/internal/snapshot"
)

// Result reports what a command did. Applied is false when the command
// referenced an id that does not exist; the state is then unchanged.
type Result struct {
	Applied    bool                 `json:"applied"`
	ID         string               `json:"id,omitempty"`
	XPGained   int                  `json:"xpGained,omitempty"`
	LevelUp    *progression.LevelUp `json:"levelUp,omitempty"`
	Unlocked   []models.Achievement `json:"unlocked,omitempty"`
	Progressed []models.Achievement `json:"progressed,omitempty"`
}

// InitialState is the empty state with every achievement locked.
func InitialState() models.AppState {
	return snapshot.Empty()
}

// Apply is the pure transition function. It never mutates state. Every
// command except LoadState and ResetState is followed by an achievement
// evaluation over the resulting state.
func Apply(state models.AppState, cmd Command, now time.Time) (models.AppState, Result) {
	return apply(achievements.Default(), state, cmd, now)
}

func apply(cat *achievements.Catalog, state models.AppState, cmd Command, now time.Time) (models.AppState, Result) {
	switch c := cmd.(type) {
	case LoadState:
		return c.State.Clone(), Result{Applied: true}
	case ResetState:
		return InitialState(), Result{Applied: true}
	}

	next := state.Clone()
	var res Result

	switch c := cmd.(type) {
	case AddExercise:
		res = addExercise(&next, c, now)
	case AddWorkout:
		res = addWorkout(&next, c, now)
	case UpdateWorkout:
		res = updateWorkout(&next, c)
	case DeleteWorkout:
		res = deleteWorkout(&next, c)
	case AddSession:
		res = addSession(&next, c, now)
	case CompleteExercise:
		res = completeExercise(&next, c, now)
	case UnlockAchievement:
		res = unlockAchievement(cat, &next, c, now)
	}

	if !res.Applied {
		return state, res
	}

	eval := cat.Evaluate(next.Achievements, ComputeProgress(next, now), now)
	next.Achievements = achievements.Merge(next.Achievements, eval)
	res.Unlocked = append(res.Unlocked, eval.NewlyUnlocked...)
	res.Progressed = eval.ProgressUpdates
	return next, res
}

func addExercise(s *models.AppState, c AddExercise, now time.Time) Result {
	s.Exercises = append(s.Exercises, models.Exercise{
		ID:            c.ID,
		Name:          c.Name,
		Category:      strings.TrimSpace(c.Category),
		CurrentLevel:  1,
		XPToNextLevel: progression.XPToNextLevel(1),
		CreatedAt:     now,
	})
	refreshStats(s)
	return Result{Applied: true, ID: c.ID}
}

func addWorkout(s *models.AppState, c AddWorkout, now time.Time) Result {
	s.Workouts = append(s.Workouts, models.Workout{
		ID:        c.ID,
		Name:      c.Name,
		DayOfWeek: c.DayOfWeek,
		Exercises: append([]models.WorkoutExercise{}, c.Exercises...),
		IsActive:  c.IsActive,
		CreatedAt: now,
	})
	return Result{Applied: true, ID: c.ID}
}

func updateWorkout(s *models.AppState, c UpdateWorkout) Result {
	i := workoutIndex(s.Workouts, c.Workout.ID)
	if i < 0 {
		return Result{}
	}
	w := c.Workout
	w.CreatedAt = s.Workouts[i].CreatedAt
	w.Exercises = append([]models.WorkoutExercise{}, w.Exercises...)
	s.Workouts[i] = w
	return Result{Applied: true, ID: w.ID}
}

func deleteWorkout(s *models.AppState, c DeleteWorkout) Result {
	i := workoutIndex(s.Workouts, c.ID)
	if i < 0 {
		return Result{}
	}
	s.Workouts = append(s.Workouts[:i], s.Workouts[i+1:]...)
	return Result{Applied: true, ID: c.ID}
}

func addSession(s *models.AppState, c AddSession, now time.Time) Result {
	if c.WorkoutID != "" && workoutIndex(s.Workouts, c.WorkoutID) < 0 {
		return Result{}
	}

	date := c.Date
	if date.IsZero() {
		date = now
	}

	sess := models.WorkoutSession{
		ID:        c.ID,
		WorkoutID: c.WorkoutID,
		Date:      date,
		Exercises: make([]models.SessionExercise, len(c.Exercises)),
		Duration:  c.Duration,
		Notes:     c.Notes,
	}
	for i, se := range c.Exercises {
		se.Sets = append([]models.SessionSet{}, se.Sets...)
		se.TotalXP = 0
		for _, set := range se.Sets {
			if set.Completed {
				se.TotalXP += set.XP
			}
		}
		sess.TotalXP += se.TotalXP
		sess.Exercises[i] = se
	}

	s.Sessions = append(s.Sessions, sess)
	s.Stats.TotalWorkouts++
	s.Stats.TotalTime += c.Duration

	current, longest := dayStreaks(s.Sessions)
	s.CurrentStreak = current
	s.Stats.CurrentStreak = current
	s.Stats.LongestStreak = max(s.Stats.LongestStreak, longest)

	return Result{Applied: true, ID: c.ID, XPGained: sess.TotalXP}
}

func completeExercise(s *models.AppState, c CompleteExercise, now time.Time) Result {
	i := exerciseIndex(s.Exercises, c.ExerciseID)
	if i < 0 {
		return Result{}
	}
	ex := &s.Exercises[i]

	xp := progression.SetXP(c.Weight, c.Reps, ex.CurrentLevel, ex.Streak)
	ex.CurrentXP += xp
	ex.TotalXP += xp
	ex.MaxWeight = max(ex.MaxWeight, c.Weight)
	ex.MaxReps = max(ex.MaxReps, c.Reps)
	ex.MaxSets = max(ex.MaxSets, c.Sets)
	performed := now
	ex.LastPerformed = &performed
	ex.Streak++

	lu := progression.CheckLevelUp(ex.CurrentLevel, ex.CurrentXP)
	if lu.LeveledUp {
		ex.CurrentLevel = lu.NewLevel
		ex.CurrentXP = lu.XPRemaining
	}
	ex.XPToNextLevel = progression.XPToNextLevel(ex.CurrentLevel)

	refreshStats(s)
	return Result{Applied: true, ID: ex.ID, XPGained: xp, LevelUp: &lu}
}

func unlockAchievement(cat *achievements.Catalog, s *models.AppState, c UnlockAchievement, now time.Time) Result {
	a, ok := cat.Unlock(s.Achievements, c.ID, now)
	if !ok {
		return Result{}
	}
	s.Achievements = achievements.Merge(s.Achievements, achievements.Result{NewlyUnlocked: []models.Achievement{a}})
	return Result{Applied: true, ID: c.ID, Unlocked: []models.Achievement{a}}
}

// refreshStats recomputes the stats derived from exercises.
func refreshStats(s *models.AppState) {
	totalXP, totalLevel := 0, 0
	favorite, best := models.NoFavorite, 0
	for _, ex := range s.Exercises {
		totalXP += ex.TotalXP
		totalLevel += ex.CurrentLevel
		if ex.TotalXP > best {
			favorite, best = ex.Name, ex.TotalXP
		}
	}
	s.Stats.TotalXP = totalXP
	s.Stats.TotalLevel = totalLevel
	s.Stats.FavoriteExercise = favorite
}

func exerciseIndex(list []models.Exercise, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func workoutIndex(list []models.Workout, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
