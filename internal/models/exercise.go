package models

import (
	"strings"
	"time"
)

// Exercise is a trackable lift that accrues XP and levels as sets are completed.
type Exercise struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	CurrentLevel  int        `json:"currentLevel"`
	CurrentXP     int        `json:"currentXP"`
	XPToNextLevel int        `json:"xpToNextLevel"`
	TotalXP       int        `json:"totalXP"`
	MaxWeight     float64    `json:"maxWeight"`
	MaxReps       int        `json:"maxReps"`
	MaxSets       int        `json:"maxSets"`
	LastPerformed *time.Time `json:"lastPerformed"`
	Streak        int        `json:"streak"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CategoryKey is the form exercise categories are compared in: trimmed and
// lowercased, so "Legs" and " legs" are one category.
func CategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Performed reports whether the exercise has been completed at least once.
func (e Exercise) Performed() bool {
	return e.LastPerformed != nil
}

// Workout is a planned routine scheduled on a day of the week.
type Workout struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	DayOfWeek int               `json:"dayOfWeek"` // 0 = Sunday
	Exercises []WorkoutExercise `json:"exercises"`
	IsActive  bool              `json:"isActive"`
	CreatedAt time.Time         `json:"createdAt"`
}

// WorkoutExercise references an Exercise by id with its planned volume.
type WorkoutExercise struct {
	ExerciseID string  `json:"exerciseId"`
	Sets       int     `json:"sets"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
	RestTime   int     `json:"restTime"` // seconds
}

// WorkoutSession is an append-only log entry for a performed workout.
type WorkoutSession struct {
	ID        string            `json:"id"`
	WorkoutID string            `json:"workoutId"`
	Date      time.Time         `json:"date"`
	Exercises []SessionExercise `json:"exercises"`
	TotalXP   int               `json:"totalXP"`
	Duration  int               `json:"duration"` // minutes
	Notes     string            `json:"notes"`
}

type SessionExercise struct {
	ExerciseID string       `json:"exerciseId"`
	Sets       []SessionSet `json:"sets"`
	TotalXP    int          `json:"totalXP"`
}

type SessionSet struct {
	SetNumber int     `json:"setNumber"`
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	XP        int     `json:"xp"`
	Completed bool    `json:"completed"`
}
