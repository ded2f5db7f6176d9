package snapshot

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/progression"
)

func sampleState() models.AppState {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	performed := time.Date(2026, 2, 3, 19, 15, 30, 250_000_000, time.UTC)
	unlocked := time.Date(2026, 2, 3, 19, 15, 31, 0, time.UTC)

	achs := achievements.Initial()
	achs[0].Unlocked = true
	achs[0].UnlockedAt = &unlocked
	achs[4].Progress = 1

	return models.AppState{
		Exercises: []models.Exercise{{
			ID: "e1", Name: "Bench Press", Category: "chest",
			CurrentLevel: 2, CurrentXP: 13, XPToNextLevel: progression.XPToNextLevel(2), TotalXP: 163,
			MaxWeight: 62.5, MaxReps: 10, MaxSets: 3,
			LastPerformed: &performed, Streak: 8, CreatedAt: created,
		}},
		Workouts: []models.Workout{{
			ID: "w1", Name: "Push Day", DayOfWeek: 1, IsActive: true, CreatedAt: created,
			Exercises: []models.WorkoutExercise{{ExerciseID: "e1", Sets: 3, Reps: 10, Weight: 60, RestTime: 90}},
		}},
		Sessions: []models.WorkoutSession{{
			ID: "s1", WorkoutID: "w1", Date: performed, TotalXP: 40, Duration: 45, Notes: "felt strong",
			Exercises: []models.SessionExercise{{
				ExerciseID: "e1", TotalXP: 40,
				Sets: []models.SessionSet{
					{SetNumber: 1, Reps: 10, Weight: 60, XP: 20, Completed: true},
					{SetNumber: 2, Reps: 10, Weight: 60, XP: 20, Completed: true},
				},
			}},
		}},
		Stats: models.UserStats{
			TotalLevel: 2, TotalXP: 163, TotalWorkouts: 1, CurrentStreak: 1, LongestStreak: 1,
			FavoriteExercise: "Bench Press", TotalTime: 45,
		},
		CurrentStreak: 1,
		Achievements:  achs,
	}
}

// TestRoundTrip verifies that encoding and decoding reproduces every
// collection field for field, including dates.
func TestRoundTrip(t *testing.T) {
	want := sampleState()
	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
	if !got.Exercises[0].LastPerformed.Equal(*want.Exercises[0].LastPerformed) {
		t.Errorf("lastPerformed = %v, want %v", got.Exercises[0].LastPerformed, want.Exercises[0].LastPerformed)
	}
}

// TestEncodeDates verifies dates are written as ISO-8601 strings and absent
// dates as null.
func TestEncodeDates(t *testing.T) {
	data, err := Encode(sampleState())
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"lastPerformed":"2026-02-03T19:15:30.25Z"`,
		`"date":"2026-02-03T19:15:30.25Z"`,
		`"createdAt":"2026-02-01T08:00:00Z"`,
		`"unlockedAt":null`,
		`"version":1`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded snapshot missing %s", want)
		}
	}
}

// TestDecodeMissingAchievements verifies snapshots written before
// achievements existed load with the full catalog locked.
func TestDecodeMissingAchievements(t *testing.T) {
	blob := `{
		"exercises": [{"id":"1","name":"Squat","category":"legs","currentLevel":1,"currentXP":20,
			"xpToNextLevel":100,"totalXP":20,"maxWeight":80,"maxReps":5,"maxSets":5,
			"lastPerformed":"2025-11-02T10:04:05.123Z","streak":1}],
		"workouts": [],
		"sessions": [],
		"stats": {"totalLevel":1,"totalXP":20,"totalWorkouts":0,"currentStreak":0,"longestStreak":0,
			"favoriteExercise":"Nenhum","totalTime":0,"achievements":[]},
		"currentStreak": 0
	}`
	got, err := Decode([]byte(blob))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Achievements) != len(achievements.Initial()) {
		t.Fatalf("achievements = %d, want full catalog", len(got.Achievements))
	}
	for _, a := range got.Achievements {
		if a.Unlocked {
			t.Errorf("%s unlocked, want locked", a.ID)
		}
	}
	ex := got.Exercises[0]
	if ex.XPToNextLevel != 150 {
		t.Errorf("xpToNextLevel = %d, want recomputed 150", ex.XPToNextLevel)
	}
	want := time.Date(2025, 11, 2, 10, 4, 5, 123_000_000, time.UTC)
	if ex.LastPerformed == nil || !ex.LastPerformed.Equal(want) {
		t.Errorf("lastPerformed = %v, want %v", ex.LastPerformed, want)
	}
	if !ex.CreatedAt.IsZero() {
		t.Errorf("createdAt = %v, want zero", ex.CreatedAt)
	}
}

// TestDecodeMalformedField verifies a broken field falls back to its default
// while the rest of the snapshot still loads.
func TestDecodeMalformedField(t *testing.T) {
	blob := `{
		"exercises": "not a list",
		"workouts": [{"id":"w1","name":"Legs","dayOfWeek":3,"exercises":[],"isActive":true,"createdAt":"2026-01-01T00:00:00Z"}],
		"currentStreak": 4
	}`
	got, err := Decode([]byte(blob))
	if err == nil {
		t.Fatal("expected error describing the malformed field")
	}
	if !strings.Contains(err.Error(), "exercises") {
		t.Errorf("error = %v, want mention of exercises", err)
	}
	if got.Exercises == nil || len(got.Exercises) != 0 {
		t.Errorf("exercises = %v, want empty default", got.Exercises)
	}
	if len(got.Workouts) != 1 || got.Workouts[0].Name != "Legs" {
		t.Errorf("workouts = %+v, want the Legs workout", got.Workouts)
	}
	if got.CurrentStreak != 4 {
		t.Errorf("currentStreak = %d, want 4", got.CurrentStreak)
	}
	if got.Stats.FavoriteExercise != models.NoFavorite {
		t.Errorf("favoriteExercise = %q, want %q", got.Stats.FavoriteExercise, models.NoFavorite)
	}
}

// TestDecodeLegacyAppBlob verifies a blob written by the mobile app loads in
// full: no version, unrounded xpToNextLevel past level 3, millisecond dates,
// achievements nested under stats and xpReward fields.
func TestDecodeLegacyAppBlob(t *testing.T) {
	blob := `{
		"exercises": [
			{"id":"e1","name":"Supino","category":"peito","currentLevel":1,"currentXP":40,"xpToNextLevel":100,
			 "totalXP":40,"maxWeight":60,"maxReps":10,"maxSets":3,"lastPerformed":"2026-03-02T18:30:00.000Z","streak":2},
			{"id":"e2","name":"Agachamento","category":"pernas","currentLevel":4,"currentXP":120,"xpToNextLevel":337.5,
			 "totalXP":900,"maxWeight":100,"maxReps":8,"maxSets":4,"lastPerformed":null,"streak":30}
		],
		"workouts": [],
		"sessions": [],
		"stats": {"totalLevel":5,"totalXP":940,"totalWorkouts":0,"currentStreak":0,"longestStreak":0,
		          "favoriteExercise":"Agachamento","totalTime":0,"achievements":[]},
		"currentStreak": 0,
		"achievements": [{"id":"first_exercise","name":"Primeiro Exercício","description":"","icon":"💪",
		                  "unlocked":true,"unlockedAt":"2026-03-01T10:00:00.000Z","xpReward":50}]
	}`
	got, err := Decode([]byte(blob))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(got.Exercises))
	}
	squat := got.Exercises[1]
	if squat.CurrentLevel != 4 || squat.TotalXP != 900 || squat.Streak != 30 {
		t.Errorf("squat = %+v", squat)
	}
	if want := progression.XPToNextLevel(4); squat.XPToNextLevel != want {
		t.Errorf("xpToNextLevel = %d, want %d", squat.XPToNextLevel, want)
	}
	if got.Exercises[0].LastPerformed == nil || got.Exercises[0].LastPerformed.Minute() != 30 {
		t.Errorf("lastPerformed = %v", got.Exercises[0].LastPerformed)
	}
	if got.Stats.TotalXP != 940 || got.Stats.FavoriteExercise != "Agachamento" {
		t.Errorf("stats = %+v", got.Stats)
	}
	var unlocked int
	for _, a := range got.Achievements {
		if a.Unlocked {
			unlocked++
			if a.ID != "first_exercise" {
				t.Errorf("unexpected unlocked %q", a.ID)
			}
		}
	}
	if unlocked != 1 || len(got.Achievements) != len(achievements.Initial()) {
		t.Errorf("achievements = %d (unlocked %d), want %d (1)", len(got.Achievements), unlocked, len(achievements.Initial()))
	}
}

// TestDecodeSkipsBadRecord verifies one malformed element is dropped and
// reported while its siblings still load.
func TestDecodeSkipsBadRecord(t *testing.T) {
	blob := `{
		"exercises": [
			{"id":"e1","name":"Row","category":"back","currentLevel":2},
			{"id":"e2","name":"Curl","category":"arms","currentLevel":"two"},
			null
		],
		"achievements": [
			{"id":"first_exercise","unlocked":true,"unlockedAt":"2026-03-01T10:00:00Z"},
			{"id":"first_workout","unlocked":"yes"}
		]
	}`
	got, err := Decode([]byte(blob))
	if err == nil {
		t.Fatal("expected error describing the dropped records")
	}
	for _, want := range []string{"exercises[1]", "exercises[2]", "achievements[1]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %v, want mention of %s", err, want)
		}
	}
	if len(got.Exercises) != 1 || got.Exercises[0].ID != "e1" {
		t.Errorf("exercises = %+v, want only e1", got.Exercises)
	}
	for _, a := range got.Achievements {
		if want := a.ID == "first_exercise"; a.Unlocked != want {
			t.Errorf("%s unlocked = %v, want %v", a.ID, a.Unlocked, want)
		}
	}
}

// TestDecodeGarbage verifies a blob that is not JSON yields the empty state.
func TestDecodeGarbage(t *testing.T) {
	got, err := Decode([]byte("\x00\x01not json"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !reflect.DeepEqual(got, Empty()) {
		t.Errorf("state = %+v, want Empty()", got)
	}
}

// TestDecodeNewerVersion verifies a snapshot from a newer build still loads
// but is reported.
func TestDecodeNewerVersion(t *testing.T) {
	got, err := Decode([]byte(`{"version": 99, "currentStreak": 2}`))
	if err == nil {
		t.Error("expected version warning")
	}
	if got.CurrentStreak != 2 {
		t.Errorf("currentStreak = %d, want 2", got.CurrentStreak)
	}
}
