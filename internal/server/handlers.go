package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/progression"
	"github.com/claude/levelgym/internal/snapshot"
	"github.com/claude/levelgym/internal/store"
)

const maxStateBytes = 10 << 20

type exerciseRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type completeRequest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Sets   int     `json:"sets"`
}

type workoutRequest struct {
	Name      string                   `json:"name"`
	DayOfWeek int                      `json:"dayOfWeek"`
	Exercises []models.WorkoutExercise `json:"exercises"`
	IsActive  bool                     `json:"isActive"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleExportState(w http.ResponseWriter, r *http.Request) {
	data, err := snapshot.Encode(s.store.State())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImportState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStateBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	state, err := snapshot.Decode(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot: " + err.Error()})
		return
	}
	s.store.Dispatch(store.LoadState{State: state})
	s.log.Info("state imported", "exercises", len(state.Exercises), "sessions", len(state.Sessions))
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	s.store.Dispatch(store.ResetState{})
	s.log.Warn("state reset", "by", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Exercises(r.URL.Query().Get("category")))
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	res := s.store.Dispatch(store.AddExercise{Name: req.Name, Category: strings.TrimSpace(req.Category)})
	ex, ok := s.store.Exercise(res.ID)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "exercise removed concurrently"})
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	detail, ok := s.store.ExerciseDetail(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := progression.ValidateSet(req.Weight, req.Reps, req.Sets); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	c, ok := s.store.Complete(store.CompleteExercise{
		ExerciseID: chi.URLParam(r, "id"),
		Weight:     req.Weight,
		Reps:       req.Reps,
		Sets:       req.Sets,
	})
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	dayStr := r.URL.Query().Get("day")
	if dayStr == "" {
		writeJSON(w, http.StatusOK, s.store.Workouts())
		return
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || !validDay(day) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day must be 0-6"})
		return
	}
	writeJSON(w, http.StatusOK, s.store.WorkoutsByDay(day))
}

func (s *Server) handleAddWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res := s.store.Dispatch(store.AddWorkout{
		Name:      req.Name,
		DayOfWeek: req.DayOfWeek,
		Exercises: req.Exercises,
		IsActive:  req.IsActive,
	})
	wk, ok := s.store.Workout(res.ID)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "workout removed concurrently"})
		return
	}
	writeJSON(w, http.StatusCreated, wk)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id := chi.URLParam(r, "id")
	res := s.store.Dispatch(store.UpdateWorkout{Workout: models.Workout{
		ID:        id,
		Name:      req.Name,
		DayOfWeek: req.DayOfWeek,
		Exercises: req.Exercises,
		IsActive:  req.IsActive,
	}})
	if !res.Applied {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	wk, _ := s.store.Workout(id)
	writeJSON(w, http.StatusOK, wk)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	res := s.store.Dispatch(store.DeleteWorkout{ID: chi.URLParam(r, "id")})
	if !res.Applied {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Sessions())
}

func (s *Server) handleAddSession(w http.ResponseWriter, r *http.Request) {
	var req store.AddSession
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validateSession(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req.ID = ""

	res := s.store.Dispatch(req)
	if !res.Applied {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	cat := models.AchievementCategory(r.URL.Query().Get("category"))
	if cat != "" && !cat.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown category %q", cat)})
		return
	}
	writeJSON(w, http.StatusOK, s.store.Achievements(cat))
}

func (s *Server) handleAchievementSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.AchievementSummary())
}

func (s *Server) handleUnlockAchievement(w http.ResponseWriter, r *http.Request) {
	res := s.store.Dispatch(store.UnlockAchievement{ID: chi.URLParam(r, "id")})
	if !res.Applied {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "achievement not found or already unlocked"})
		return
	}
	writeJSON(w, http.StatusOK, res.Unlocked[0])
}

func (req workoutRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if !validDay(req.DayOfWeek) {
		return errors.New("dayOfWeek must be 0-6")
	}
	for _, ex := range req.Exercises {
		if err := progression.ValidateSet(ex.Weight, ex.Reps, ex.Sets); err != nil {
			return fmt.Errorf("exercise %s: %w", ex.ExerciseID, err)
		}
		if ex.RestTime < 0 {
			return fmt.Errorf("exercise %s: rest time must not be negative", ex.ExerciseID)
		}
	}
	return nil
}

func validateSession(req store.AddSession) error {
	if req.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	for _, ex := range req.Exercises {
		for _, set := range ex.Sets {
			if err := progression.ValidateSet(set.Weight, set.Reps, 0); err != nil {
				return fmt.Errorf("exercise %s: %w", ex.ExerciseID, err)
			}
			if set.XP < 0 || set.XP > progression.MaxSetXP {
				return fmt.Errorf("exercise %s: set xp must be between 0 and %d", ex.ExerciseID, progression.MaxSetXP)
			}
		}
	}
	return nil
}

func validDay(day int) bool {
	return day >= 0 && day <= 6
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
