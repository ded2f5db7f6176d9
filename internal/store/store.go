// Package store hosts the progression state machine: a pure Apply over a
// closed set of commands, and a Store that serializes commands, keeps the
// current state and hands snapshots to a persister.
package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/metrics"
	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/progression"
	"github.com/claude/levelgym/internal/snapshot"
)

// Persister stores encoded snapshots. Save and Clear must not block on I/O.
// Load returns nil data when nothing has been stored yet.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(data []byte)
	Clear()
	Flush(ctx context.Context) error
	Close() error
}

// Store owns the AppState. Commands are applied one at a time.
type Store struct {
	mu      sync.Mutex
	state   models.AppState
	persist Persister
	metrics *metrics.Manager
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new entities.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(s *Store) { s.metrics = m }
}

// Open loads the persisted snapshot and returns a ready Store. A failed or
// empty load starts from InitialState.
func Open(ctx context.Context, p Persister, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		state:   InitialState(),
		persist: p,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Discard()
	}

	data, err := p.Load(ctx)
	switch {
	case err != nil:
		log.Error("loading snapshot failed, starting empty", "error", err)
	case data == nil:
		log.Info("no snapshot stored, starting empty")
	default:
		state, err := snapshot.Decode(data)
		if err != nil {
			log.Warn("snapshot loaded with defaults", "error", err)
		}
		s.state = state
		log.Info("snapshot loaded",
			"exercises", len(state.Exercises),
			"workouts", len(state.Workouts),
			"sessions", len(state.Sessions),
		)
	}
	s.observe()
	return s
}

// Dispatch applies cmd to the current state. No-op commands leave state and
// storage untouched.
func (s *Store) Dispatch(cmd Command) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(cmd)
}

// Completion is the outcome of a set: the updated exercise with the XP and
// level change it caused.
type Completion struct {
	Exercise models.Exercise      `json:"exercise"`
	XPGained int                  `json:"xpGained"`
	LevelUp  progression.LevelUp  `json:"levelUp"`
	Unlocked []models.Achievement `json:"unlocked"`
}

// Complete dispatches cmd and returns the exercise as it is afterwards. It
// reports false when the exercise does not exist.
func (s *Store) Complete(cmd CompleteExercise) (Completion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.dispatch(cmd)
	if !res.Applied {
		return Completion{}, false
	}
	i := exerciseIndex(s.state.Exercises, cmd.ExerciseID)
	c := Completion{
		Exercise: cloneExercises(s.state.Exercises[i : i+1])[0],
		XPGained: res.XPGained,
		Unlocked: res.Unlocked,
	}
	if c.Unlocked == nil {
		c.Unlocked = []models.Achievement{}
	}
	if res.LevelUp != nil {
		c.LevelUp = *res.LevelUp
	}
	return c, true
}

func (s *Store) dispatch(cmd Command) Result {
	cmd = s.assignID(cmd)
	next, res := Apply(s.state, cmd, s.now())

	outcome := "applied"
	if !res.Applied {
		outcome = "noop"
	}
	s.metrics.CounterCommands.WithLabelValues(cmd.Kind(), outcome).Inc()
	if !res.Applied {
		s.log.Debug("command had no effect", "command", cmd.Kind())
		return res
	}

	s.state = next
	s.record(cmd, res)
	s.observe()

	if _, reset := cmd.(ResetState); reset {
		s.persist.Clear()
		return res
	}
	data, err := snapshot.Encode(s.state)
	if err != nil {
		s.log.Error("encoding snapshot failed", "command", cmd.Kind(), "error", err)
		return res
	}
	s.persist.Save(data)
	return res
}

func (s *Store) assignID(cmd Command) Command {
	switch c := cmd.(type) {
	case AddExercise:
		if c.ID == "" {
			c.ID = s.newID()
		}
		return c
	case AddWorkout:
		if c.ID == "" {
			c.ID = s.newID()
		}
		return c
	case AddSession:
		if c.ID == "" {
			c.ID = s.newID()
		}
		return c
	}
	return cmd
}

func (s *Store) record(cmd Command, res Result) {
	if res.XPGained > 0 && cmd.Kind() == (CompleteExercise{}).Kind() {
		s.metrics.CounterXPAwarded.Add(float64(res.XPGained))
	}
	if res.LevelUp != nil && res.LevelUp.LeveledUp {
		s.metrics.CounterLevelUps.Inc()
		s.log.Info("exercise leveled up", "exercise", res.ID, "level", res.LevelUp.NewLevel)
	}
	for _, a := range res.Unlocked {
		s.metrics.CounterUnlocks.WithLabelValues(a.ID).Inc()
		s.log.Info("achievement unlocked", "achievement", a.ID, "name", a.Name)
	}
}

func (s *Store) observe() {
	s.metrics.GaugeExercises.Set(float64(len(s.state.Exercises)))
	s.metrics.GaugeSessions.Set(float64(len(s.state.Sessions)))
}

// Close flushes pending writes and releases the persister.
func (s *Store) Close(ctx context.Context) error {
	return multierr.Combine(
		s.persist.Flush(ctx),
		s.persist.Close(),
	)
}

// State returns a copy of the whole state.
func (s *Store) State() models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Exercises returns exercises in the given category, or all when category
// is empty. Categories match case-insensitively, as in ComputeProgress.
func (s *Store) Exercises(category string) []models.Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.CategoryKey(category)
	out := make([]models.Exercise, 0, len(s.state.Exercises))
	for _, ex := range s.state.Exercises {
		if key == "" || models.CategoryKey(ex.Category) == key {
			out = append(out, ex)
		}
	}
	return cloneExercises(out)
}

func (s *Store) Exercise(id string) (models.Exercise, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := exerciseIndex(s.state.Exercises, id)
	if i < 0 {
		return models.Exercise{}, false
	}
	return cloneExercises(s.state.Exercises[i : i+1])[0], true
}

// ExerciseDetail is an exercise with its position on the level ladder.
type ExerciseDetail struct {
	models.Exercise
	LevelProgress float64 `json:"levelProgress"`
	XPRemaining   int     `json:"xpRemaining"`
}

func (s *Store) ExerciseDetail(id string) (ExerciseDetail, bool) {
	ex, ok := s.Exercise(id)
	if !ok {
		return ExerciseDetail{}, false
	}
	return ExerciseDetail{
		Exercise:      ex,
		LevelProgress: progression.LevelProgress(ex.CurrentLevel, ex.CurrentXP),
		XPRemaining:   progression.XPRemainingToNext(ex.CurrentLevel, ex.CurrentXP),
	}, true
}

func (s *Store) Workout(id string) (models.Workout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := workoutIndex(s.state.Workouts, id)
	if i < 0 {
		return models.Workout{}, false
	}
	return models.AppState{Workouts: s.state.Workouts[i : i+1]}.Clone().Workouts[0], true
}

func (s *Store) Workouts() []models.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AppState{Workouts: s.state.Workouts}.Clone().Workouts
}

// WorkoutsByDay returns workouts scheduled on day (0 = Sunday).
func (s *Store) WorkoutsByDay(day int) []models.Workout {
	all := s.Workouts()
	return slices.DeleteFunc(all, func(w models.Workout) bool { return w.DayOfWeek != day })
}

func (s *Store) Sessions() []models.WorkoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AppState{Sessions: s.state.Sessions}.Clone().Sessions
}

func (s *Store) Stats() models.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stats
}

// Achievements returns achievements in category, or all when category is
// empty.
func (s *Store) Achievements(category models.AchievementCategory) []models.Achievement {
	s.mu.Lock()
	list := models.AppState{Achievements: s.state.Achievements}.Clone().Achievements
	s.mu.Unlock()
	if category == "" {
		return list
	}
	return achievements.ByCategory(list, category)
}

func (s *Store) AchievementSummary() achievements.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return achievements.Summarize(s.state.Achievements)
}

func cloneExercises(list []models.Exercise) []models.Exercise {
	return models.AppState{Exercises: list}.Clone().Exercises
}
