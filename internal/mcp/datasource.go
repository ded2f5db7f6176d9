package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/store"
)

// ErrNotFound is returned when a referenced exercise does not exist.
var ErrNotFound = errors.New("not found")

// AllDays lists workouts regardless of their day.
const AllDays = -1

// DataSource abstracts the data layer for MCP tools. Both LocalSource (in
// process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context, category string) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id string) (*store.ExerciseDetail, error)
	AddExercise(ctx context.Context, name, category string) (*models.Exercise, error)
	CompleteExercise(ctx context.Context, cmd store.CompleteExercise) (*store.Completion, error)
	ListWorkouts(ctx context.Context, day int) ([]models.Workout, error)
	GetStats(ctx context.Context) (*models.UserStats, error)
	ListAchievements(ctx context.Context, category models.AchievementCategory) ([]models.Achievement, error)
	AchievementSummary(ctx context.Context) (*achievements.Summary, error)
}

// LocalSource serves tools straight from a Store.
type LocalSource struct {
	st *store.Store
}

var _ DataSource = (*LocalSource)(nil)

func NewLocalSource(st *store.Store) *LocalSource {
	return &LocalSource{st: st}
}

func (l *LocalSource) ListExercises(_ context.Context, category string) ([]models.Exercise, error) {
	return l.st.Exercises(category), nil
}

func (l *LocalSource) GetExercise(_ context.Context, id string) (*store.ExerciseDetail, error) {
	d, ok := l.st.ExerciseDetail(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (l *LocalSource) AddExercise(_ context.Context, name, category string) (*models.Exercise, error) {
	res := l.st.Dispatch(store.AddExercise{Name: strings.TrimSpace(name), Category: strings.TrimSpace(category)})
	ex, ok := l.st.Exercise(res.ID)
	if !ok {
		return nil, ErrNotFound
	}
	return &ex, nil
}

func (l *LocalSource) CompleteExercise(_ context.Context, cmd store.CompleteExercise) (*store.Completion, error) {
	c, ok := l.st.Complete(cmd)
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (l *LocalSource) ListWorkouts(_ context.Context, day int) ([]models.Workout, error) {
	if day == AllDays {
		return l.st.Workouts(), nil
	}
	return l.st.WorkoutsByDay(day), nil
}

func (l *LocalSource) GetStats(_ context.Context) (*models.UserStats, error) {
	stats := l.st.Stats()
	return &stats, nil
}

func (l *LocalSource) ListAchievements(_ context.Context, category models.AchievementCategory) ([]models.Achievement, error) {
	return l.st.Achievements(category), nil
}

func (l *LocalSource) AchievementSummary(_ context.Context) (*achievements.Summary, error) {
	sum := l.st.AchievementSummary()
	return &sum, nil
}
