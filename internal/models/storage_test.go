package models

import (
	"testing"
	"time"
)

// TestCloneIsDeep verifies that mutating a clone never reaches back into the
// original state, including nested slices and time pointers.
func TestCloneIsDeep(t *testing.T) {
	performed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	orig := AppState{
		Exercises: []Exercise{{ID: "e1", LastPerformed: &performed}},
		Workouts:  []Workout{{ID: "w1", Exercises: []WorkoutExercise{{ExerciseID: "e1", Sets: 3}}}},
		Sessions: []WorkoutSession{{
			ID:        "s1",
			Exercises: []SessionExercise{{ExerciseID: "e1", Sets: []SessionSet{{SetNumber: 1, Reps: 10}}}},
		}},
		Achievements: []Achievement{{ID: "first_exercise", Unlocked: true, UnlockedAt: &performed}},
	}

	c := orig.Clone()
	c.Exercises[0].Name = "changed"
	*c.Exercises[0].LastPerformed = performed.Add(time.Hour)
	c.Workouts[0].Exercises[0].Sets = 99
	c.Sessions[0].Exercises[0].Sets[0].Reps = 99
	*c.Achievements[0].UnlockedAt = performed.Add(time.Hour)

	if orig.Exercises[0].Name != "" {
		t.Errorf("exercise name = %q, want empty", orig.Exercises[0].Name)
	}
	if !orig.Exercises[0].LastPerformed.Equal(performed) {
		t.Errorf("lastPerformed = %v, want %v", orig.Exercises[0].LastPerformed, performed)
	}
	if orig.Workouts[0].Exercises[0].Sets != 3 {
		t.Errorf("workout sets = %d, want 3", orig.Workouts[0].Exercises[0].Sets)
	}
	if orig.Sessions[0].Exercises[0].Sets[0].Reps != 10 {
		t.Errorf("session reps = %d, want 10", orig.Sessions[0].Exercises[0].Sets[0].Reps)
	}
	if !orig.Achievements[0].UnlockedAt.Equal(performed) {
		t.Errorf("unlockedAt = %v, want %v", orig.Achievements[0].UnlockedAt, performed)
	}
}

// TestCloneEmpty verifies that cloning the zero state yields empty, non-nil
// collections so encoded snapshots carry [] instead of null.
func TestCloneEmpty(t *testing.T) {
	c := AppState{}.Clone()
	if c.Exercises == nil || c.Workouts == nil || c.Sessions == nil || c.Achievements == nil {
		t.Errorf("clone of empty state has nil collections: %+v", c)
	}
}

// TestAchievementCategoryValid verifies the closed set of categories.
func TestAchievementCategoryValid(t *testing.T) {
	for _, c := range []AchievementCategory{CategoryFirstTime, CategoryProgress, CategoryStreak, CategoryMilestone, CategorySpecial} {
		if !c.Valid() {
			t.Errorf("%q.Valid() = false, want true", c)
		}
	}
	if AchievementCategory("legendary").Valid() {
		t.Error(`"legendary".Valid() = true, want false`)
	}
}
