// Package achievements defines the achievement catalog and evaluates it
// against a progress snapshot of the whole app state.
package achievements

import (
	"fmt"
	"sync"
	"time"

	"github.com/claude/levelgym/internal/models"
)

// Progress is the counter snapshot achievements are evaluated against. It
// is recomputed from the full state on every evaluation and never stored.
type Progress struct {
	TotalWorkouts          int        `json:"totalWorkouts"`
	TotalExercises         int        `json:"totalExercises"`
	TotalWorkoutPlans      int        `json:"totalWorkoutPlans"`
	DistinctCategories     int        `json:"distinctCategories"`
	CurrentStreak          int        `json:"currentStreak"`
	LongestStreak          int        `json:"longestStreak"`
	TotalLevels            int        `json:"totalLevels"`
	TotalXP                int        `json:"totalXP"`
	WorkoutsThisWeek       int        `json:"workoutsThisWeek"`
	ExerciseLevelUps       int        `json:"exerciseLevelUps"`
	WeightIncreases        int        `json:"weightIncreases"`
	ConsecutiveWorkoutDays int        `json:"consecutiveWorkoutDays"`
	FirstWorkoutAt         *time.Time `json:"firstWorkoutAt,omitempty"`
	LastWorkoutAt          *time.Time `json:"lastWorkoutAt,omitempty"`
	FirstExerciseAt        *time.Time `json:"firstExerciseAt,omitempty"`
}

// Definition is one immutable catalog entry. Metric is nil for binary
// achievements; otherwise its value is clamped to [0, MaxProgress].
type Definition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    models.AchievementCategory
	MaxProgress int
	Unlocks     func(Progress) bool
	Metric      func(Progress) int
}

// Tracked reports whether the definition carries a progress counter.
func (d Definition) Tracked() bool {
	return d.Metric != nil && d.MaxProgress > 0
}

func (d Definition) progress(p Progress) int {
	if !d.Tracked() {
		return 0
	}
	return min(max(d.Metric(p), 0), d.MaxProgress)
}

// Locked returns the initial stored record for d.
func (d Definition) Locked() models.Achievement {
	return models.Achievement{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		Category:    d.Category,
		MaxProgress: d.MaxProgress,
	}
}

// Catalog is an ordered, id-unique set of definitions.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog validates defs and keeps them in declaration order.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("achievement definition without id")
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id %q", d.ID)
		}
		if d.Unlocks == nil {
			return nil, fmt.Errorf("achievement %q has no unlock predicate", d.ID)
		}
		c.index[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// Definitions returns the catalog in declaration order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Lookup returns the definition with the given id.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	i, ok := c.index[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Initial returns every catalog entry as a locked record.
func (c *Catalog) Initial() []models.Achievement {
	out := make([]models.Achievement, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Locked()
	}
	return out
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := NewCatalog(builtin()...)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Initial returns the built-in catalog with everything locked.
func Initial() []models.Achievement {
	return Default().Initial()
}

func atLeast(metric func(Progress) int, n int) func(Progress) bool {
	return func(p Progress) bool { return metric(p) >= n }
}

func totalWorkouts(p Progress) int      { return p.TotalWorkouts }
func totalExercises(p Progress) int     { return p.TotalExercises }
func totalWorkoutPlans(p Progress) int  { return p.TotalWorkoutPlans }
func exerciseLevelUps(p Progress) int   { return p.ExerciseLevelUps }
func workoutsThisWeek(p Progress) int   { return p.WorkoutsThisWeek }
func weightIncreases(p Progress) int    { return p.WeightIncreases }
func currentStreak(p Progress) int      { return p.CurrentStreak }
func totalXP(p Progress) int            { return p.TotalXP }
func distinctCategories(p Progress) int { return p.DistinctCategories }

// counter builds a progress-tracked definition that unlocks at limit.
func counter(id, name, desc, icon string, cat models.AchievementCategory, metric func(Progress) int, limit int) Definition {
	return Definition{
		ID:          id,
		Name:        name,
		Description: desc,
		Icon:        icon,
		Category:    cat,
		MaxProgress: limit,
		Unlocks:     atLeast(metric, limit),
		Metric:      metric,
	}
}

func builtin() []Definition {
	return []Definition{
		{ID: "first_exercise", Name: "First Exercise", Description: "Add your first exercise", Icon: "💪",
			Category: models.CategoryFirstTime, Unlocks: atLeast(totalExercises, 1)},
		{ID: "first_workout", Name: "First Steps", Description: "Complete your first workout", Icon: "🚀",
			Category: models.CategoryFirstTime, Unlocks: atLeast(totalWorkouts, 1)},
		{ID: "first_workout_plan", Name: "Organized", Description: "Create your first workout plan", Icon: "📋",
			Category: models.CategoryFirstTime, Unlocks: atLeast(totalWorkoutPlans, 1)},
		{ID: "first_level_up", Name: "Leveling Up", Description: "Level up any exercise", Icon: "⭐",
			Category: models.CategoryFirstTime, Unlocks: atLeast(exerciseLevelUps, 1)},

		counter("workout_milestones", "Consistent", "Complete 5 workouts", "📈", models.CategoryProgress, totalWorkouts, 5),
		counter("workout_milestones_10", "Dedicated", "Complete 10 workouts", "🔥", models.CategoryProgress, totalWorkouts, 10),
		counter("workout_milestones_25", "Hooked", "Complete 25 workouts", "💎", models.CategoryProgress, totalWorkouts, 25),
		counter("workout_milestones_50", "Legendary", "Complete 50 workouts", "👑", models.CategoryProgress, totalWorkouts, 50),
		counter("weekly_workouts", "Sprinter", "Complete 3 workouts within a week", "⚡", models.CategoryProgress, workoutsThisWeek, 3),
		{ID: "weight_increase", Name: "Strong", Description: "Record a working weight on any exercise", Icon: "🏋️",
			Category: models.CategoryProgress, Unlocks: atLeast(weightIncreases, 1)},
		counter("level_milestones", "Evolution", "Gain 5 levels in total", "🚀", models.CategoryProgress, exerciseLevelUps, 5),

		counter("streak_7", "Flame", "Train 7 days in a row", "🔥", models.CategoryStreak, currentStreak, 7),
		counter("streak_14", "Determined", "Train 14 days in a row", "💪", models.CategoryStreak, currentStreak, 14),
		counter("streak_30", "Diamond", "Train 30 days in a row", "💎", models.CategoryStreak, currentStreak, 30),
		counter("streak_100", "Rocket", "Train 100 days in a row", "🚀", models.CategoryStreak, currentStreak, 100),

		counter("xp_milestones", "Collector", "Reach 1,000 total XP", "💎", models.CategoryMilestone, totalXP, 1000),
		counter("xp_milestones_5k", "Experienced", "Reach 5,000 total XP", "🌟", models.CategoryMilestone, totalXP, 5000),
		counter("xp_milestones_10k", "Master", "Reach 10,000 total XP", "👑", models.CategoryMilestone, totalXP, 10000),

		counter("variety", "Versatile", "Train 5 different exercise categories", "🎯", models.CategorySpecial, distinctCategories, 5),
	}
}
