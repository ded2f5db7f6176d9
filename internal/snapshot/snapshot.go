// Package snapshot encodes AppState to the persisted JSON blob and decodes it
// back, falling back to defaults field by field for old or damaged blobs.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/progression"
)

// DefaultKey is the storage key the snapshot is written under.
const DefaultKey = "soloLevelingGym_data"

// Version is written into every snapshot.
const Version = 1

type envelope struct {
	Version int `json:"version"`
	models.AppState
}

// Encode serializes state. Dates become RFC 3339 strings.
func Encode(state models.AppState) ([]byte, error) {
	data, err := json.Marshal(envelope{Version: Version, AppState: state.Clone()})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Empty returns a fresh state with the full catalog locked.
func Empty() models.AppState {
	return models.AppState{
		Exercises:    []models.Exercise{},
		Workouts:     []models.Workout{},
		Sessions:     []models.WorkoutSession{},
		Stats:        models.UserStats{FavoriteExercise: models.NoFavorite},
		Achievements: achievements.Initial(),
	}
}

// Decode parses a snapshot. The returned state is always usable: a blob that
// is not a JSON object yields Empty(), each malformed field falls back to its
// default, and a malformed list element is dropped while the rest of the list
// loads. The error reports everything that was replaced or dropped.
func Decode(data []byte) (models.AppState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Empty(), fmt.Errorf("parsing snapshot: %w", err)
	}

	state := Empty()
	var errs error

	if v, ok := raw["version"]; ok {
		var version int
		if err := json.Unmarshal(v, &version); err == nil && version > Version {
			errs = multierr.Append(errs, fmt.Errorf("snapshot version %d is newer than %d", version, Version))
		}
	}

	errs = multierr.Combine(errs,
		records(raw, "exercises", &state.Exercises, decodeExercise),
		records(raw, "workouts", &state.Workouts, decodeRecord[models.Workout]),
		records(raw, "sessions", &state.Sessions, decodeRecord[models.WorkoutSession]),
		field(raw, "stats", &state.Stats),
		field(raw, "currentStreak", &state.CurrentStreak),
	)

	var stored []models.Achievement
	if err := records(raw, "achievements", &stored, decodeRecord[models.Achievement]); err != nil {
		errs = multierr.Append(errs, err)
	}
	if stored != nil {
		state.Achievements = achievements.Default().Reconcile(stored)
	}

	normalize(&state)
	return state, errs
}

// field decodes raw[name] into dst. A missing or null field leaves dst at
// its default; a malformed one is reported and leaves dst untouched.
func field[T any](raw map[string]json.RawMessage, name string, dst *T) error {
	v, ok := raw[name]
	if !ok || string(v) == "null" {
		return nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	*dst = out
	return nil
}

// records decodes the list raw[name] one element at a time. A malformed
// element is reported and skipped; a value that is not a list is reported
// and leaves dst untouched.
func records[T any](raw map[string]json.RawMessage, name string, dst *[]T, decode func(json.RawMessage) (T, error)) error {
	v, ok := raw[name]
	if !ok || string(v) == "null" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}

	out := make([]T, 0, len(items))
	var errs error
	for i, item := range items {
		rec, err := decode(item)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("field %s[%d]: %w", name, i, err))
			continue
		}
		out = append(out, rec)
	}
	*dst = out
	return errs
}

func decodeRecord[T any](data json.RawMessage) (T, error) {
	var v T
	if string(data) == "null" {
		return v, errors.New("null record")
	}
	err := json.Unmarshal(data, &v)
	return v, err
}

// legacyExercise accepts the fractional xpToNextLevel older snapshots carry
// (100 * 1.5^(level-1) was stored unrounded). normalize recomputes it.
type legacyExercise struct {
	models.Exercise
	XPToNextLevel float64 `json:"xpToNextLevel"`
}

func decodeExercise(data json.RawMessage) (models.Exercise, error) {
	le, err := decodeRecord[legacyExercise](data)
	return le.Exercise, err
}

func normalize(s *models.AppState) {
	if s.Exercises == nil {
		s.Exercises = []models.Exercise{}
	}
	if s.Workouts == nil {
		s.Workouts = []models.Workout{}
	}
	if s.Sessions == nil {
		s.Sessions = []models.WorkoutSession{}
	}
	for i := range s.Exercises {
		ex := &s.Exercises[i]
		if ex.CurrentLevel < 1 {
			ex.CurrentLevel = 1
		}
		ex.XPToNextLevel = progression.XPToNextLevel(ex.CurrentLevel)
	}
	if s.Stats.FavoriteExercise == "" {
		s.Stats.FavoriteExercise = models.NoFavorite
	}
}
