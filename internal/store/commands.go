package store

import (
	"time"

	"github.com/claude/levelgym/internal/models"
)

// Command is a state transition accepted by Apply. The set is closed.
type Command interface {
	Kind() string
	isCommand()
}

// AddExercise creates an exercise at level 1.
type AddExercise struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// AddWorkout creates a workout plan.
type AddWorkout struct {
	ID        string                   `json:"id,omitempty"`
	Name      string                   `json:"name"`
	DayOfWeek int                      `json:"dayOfWeek"`
	Exercises []models.WorkoutExercise `json:"exercises"`
	IsActive  bool                     `json:"isActive"`
}

// UpdateWorkout replaces the workout with the same id. CreatedAt is kept.
type UpdateWorkout struct {
	Workout models.Workout `json:"workout"`
}

type DeleteWorkout struct {
	ID string `json:"id"`
}

// AddSession appends to the session log. A zero Date means now.
type AddSession struct {
	ID        string                   `json:"id,omitempty"`
	WorkoutID string                   `json:"workoutId"`
	Date      time.Time                `json:"date"`
	Exercises []models.SessionExercise `json:"exercises"`
	Duration  int                      `json:"duration"`
	Notes     string                   `json:"notes"`
}

// CompleteExercise awards XP for a set. Weight, Reps and Sets must be
// non-negative; they are not validated here.
type CompleteExercise struct {
	ExerciseID string  `json:"exerciseId"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	Sets       int     `json:"sets"`
}

type UnlockAchievement struct {
	ID string `json:"id"`
}

// LoadState replaces the whole state without evaluating achievements.
type LoadState struct {
	State models.AppState `json:"state"`
}

// ResetState replaces the whole state with InitialState.
type ResetState struct{}

func (AddExercise) Kind() string       { return "add_exercise" }
func (AddWorkout) Kind() string        { return "add_workout" }
func (UpdateWorkout) Kind() string     { return "update_workout" }
func (DeleteWorkout) Kind() string     { return "delete_workout" }
func (AddSession) Kind() string        { return "add_session" }
func (CompleteExercise) Kind() string  { return "complete_exercise" }
func (UnlockAchievement) Kind() string { return "unlock_achievement" }
func (LoadState) Kind() string         { return "load_state" }
func (ResetState) Kind() string        { return "reset_state" }

func (AddExercise) isCommand()       {}
func (AddWorkout) isCommand()        {}
func (UpdateWorkout) isCommand()     {}
func (DeleteWorkout) isCommand()     {}
func (AddSession) isCommand()        {}
func (CompleteExercise) isCommand()  {}
func (UnlockAchievement) isCommand() {}
func (LoadState) isCommand()         {}
func (ResetState) isCommand()        {}
