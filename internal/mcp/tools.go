package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/progression"
	"github.com/claude/levelgym/internal/store"
)

var categoryEnum = mcp.Enum(
	string(models.CategoryFirstTime),
	string(models.CategoryProgress),
	string(models.CategoryStreak),
	string(models.CategoryMilestone),
	string(models.CategorySpecial),
)

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List tracked exercises with level, XP, personal bests and streak."),
	mcp.WithString("category", mcp.Description("Only exercises in this category (e.g. chest, legs). Defaults to all.")),
)

var toolGetExercise = mcp.NewTool("get_exercise",
	mcp.WithDescription("Get one exercise with its progress toward the next level (levelProgress in [0,1], xpRemaining)."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Start tracking a new exercise at level 1."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. 'Bench Press')")),
	mcp.WithString("category", mcp.Description("Category (e.g. chest, back, legs)")),
)

var toolCompleteExercise = mcp.NewTool("complete_exercise",
	mcp.WithDescription("Log a completed set. Awards XP, may level the exercise up by one level, and may unlock achievements."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithNumber("weight", mcp.Required(), mcp.Min(0), mcp.Max(progression.MaxWeight), mcp.Description("Weight used (kg)")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Min(0), mcp.Description("Repetitions per set")),
	mcp.WithNumber("sets", mcp.Required(), mcp.Min(0), mcp.Description("Number of sets")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List workout plans, optionally only those scheduled on one weekday."),
	mcp.WithNumber("day", mcp.Min(0), mcp.Max(6), mcp.Description("Day of week, 0 = Sunday. Defaults to all days.")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Overall stats: total level, total XP, workouts, streaks, favorite exercise and training time."),
)

var toolListAchievements = mcp.NewTool("list_achievements",
	mcp.WithDescription("List achievements with unlock state and progress."),
	mcp.WithString("category", mcp.Description("Only achievements in this category. Defaults to all."), categoryEnum),
)

var toolPreviewSetXP = mcp.NewTool("preview_set_xp",
	mcp.WithDescription("Compute the XP a set would award without logging it."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Min(0), mcp.Max(progression.MaxWeight), mcp.Description("Weight (kg)")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Min(0), mcp.Description("Repetitions")),
	mcp.WithNumber("level", mcp.Description("Current exercise level. Defaults to 1."), mcp.Min(1)),
	mcp.WithNumber("streak", mcp.Description("Current exercise streak. Defaults to 0."), mcp.Min(0)),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.ListExercises(ctx, req.GetString("category", ""))
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) getExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}

	detail, err := h.ds.GetExercise(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return mcp.NewToolResultError("exercise not found: " + id), nil
	}
	if err != nil {
		h.log.Error("mcp get_exercise", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(detail)
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	ex, err := h.ds.AddExercise(ctx, name, req.GetString("category", ""))
	if err != nil {
		h.log.Error("mcp add_exercise", "error", err)
		return mcp.NewToolResultError("add failed: " + err.Error()), nil
	}
	return jsonResult(ex)
}

func (h *handlers) completeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	sets, err := req.RequireInt("sets")
	if err != nil {
		return mcp.NewToolResultError("sets parameter is required"), nil
	}
	if err := progression.ValidateSet(weight, reps, sets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, err := h.ds.CompleteExercise(ctx, store.CompleteExercise{ExerciseID: id, Weight: weight, Reps: reps, Sets: sets})
	if errors.Is(err, ErrNotFound) {
		return mcp.NewToolResultError("exercise not found: " + id), nil
	}
	if err != nil {
		h.log.Error("mcp complete_exercise", "error", err)
		return mcp.NewToolResultError("complete failed: " + err.Error()), nil
	}
	return jsonResult(c)
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := req.GetInt("day", AllDays)
	if day != AllDays && (day < 0 || day > 6) {
		return mcp.NewToolResultError("day must be 0-6"), nil
	}

	list, err := h.ds.ListWorkouts(ctx, day)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetStats(ctx)
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) listAchievements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := models.AchievementCategory(req.GetString("category", ""))
	if cat != "" && !cat.Valid() {
		return mcp.NewToolResultError("unknown category: " + string(cat)), nil
	}

	list, err := h.ds.ListAchievements(ctx, cat)
	if err != nil {
		h.log.Error("mcp list_achievements", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) previewSetXP(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	level := req.GetInt("level", 1)
	streak := req.GetInt("streak", 0)
	if err := progression.ValidateSet(weight, reps, 0); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if level < 1 || streak < 0 {
		return mcp.NewToolResultError("level must be at least 1 and streak must not be negative"), nil
	}

	return jsonResult(map[string]int{
		"xp":            progression.SetXP(weight, reps, level, streak),
		"xpToNextLevel": progression.XPToNextLevel(level),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
