package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/persist"
	"github.com/claude/levelgym/internal/snapshot"
	"github.com/claude/levelgym/internal/storage"
	"github.com/claude/levelgym/internal/store"
)

func newTestHandlers(t *testing.T) (*handlers, *store.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := persist.New(storage.NewMemoryStore(), snapshot.DefaultKey, time.Second, log, nil)
	st := store.Open(context.Background(), w, log)
	t.Cleanup(func() { st.Close(context.Background()) })
	return &handlers{ds: NewLocalSource(st), log: log}, st
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

// TestNewRegistersTools verifies the server builds with a local source.
func TestNewRegistersTools(t *testing.T) {
	h, _ := newTestHandlers(t)
	if s := New(h.ds, "test", h.log); s == nil {
		t.Fatal("New returned nil")
	}
}

// TestAddAndCompleteTools walks add_exercise then complete_exercise.
func TestAddAndCompleteTools(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	res, err := h.addExercise(ctx, callTool(map[string]any{"name": "Bench Press", "category": "chest"}))
	if err != nil || res.IsError {
		t.Fatalf("add_exercise: err=%v result=%+v", err, res)
	}
	var ex models.Exercise
	if err := json.Unmarshal([]byte(resultText(t, res)), &ex); err != nil {
		t.Fatal(err)
	}

	res, _ = h.completeExercise(ctx, callTool(map[string]any{
		"exercise_id": ex.ID, "weight": 50.0, "reps": 10.0, "sets": 3.0,
	}))
	if res.IsError {
		t.Fatalf("complete_exercise error: %s", resultText(t, res))
	}
	var c store.Completion
	if err := json.Unmarshal([]byte(resultText(t, res)), &c); err != nil {
		t.Fatal(err)
	}
	if c.XPGained != 20 {
		t.Errorf("xpGained = %d, want 20", c.XPGained)
	}
	if got := st.Stats().TotalXP; got != 20 {
		t.Errorf("store totalXP = %d, want 20", got)
	}
}

// TestToolErrors verifies bad arguments come back as tool errors.
func TestToolErrors(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*mcp.CallToolResult, error)
	}{
		{"add without name", func() (*mcp.CallToolResult, error) {
			return h.addExercise(ctx, callTool(map[string]any{"name": " "}))
		}},
		{"complete unknown", func() (*mcp.CallToolResult, error) {
			return h.completeExercise(ctx, callTool(map[string]any{"exercise_id": "nope", "weight": 1.0, "reps": 1.0, "sets": 1.0}))
		}},
		{"complete negative", func() (*mcp.CallToolResult, error) {
			return h.completeExercise(ctx, callTool(map[string]any{"exercise_id": "nope", "weight": -1.0, "reps": 1.0, "sets": 1.0}))
		}},
		{"complete huge weight", func() (*mcp.CallToolResult, error) {
			return h.completeExercise(ctx, callTool(map[string]any{"exercise_id": "nope", "weight": 1e300, "reps": 1.0, "sets": 1.0}))
		}},
		{"preview huge weight", func() (*mcp.CallToolResult, error) {
			return h.previewSetXP(ctx, callTool(map[string]any{"weight": 1e300, "reps": 1.0}))
		}},
		{"get unknown", func() (*mcp.CallToolResult, error) {
			return h.getExercise(ctx, callTool(map[string]any{"exercise_id": "nope"}))
		}},
		{"bad day", func() (*mcp.CallToolResult, error) {
			return h.listWorkouts(ctx, callTool(map[string]any{"day": 9.0}))
		}},
		{"bad category", func() (*mcp.CallToolResult, error) {
			return h.listAchievements(ctx, callTool(map[string]any{"category": "nope"}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if !res.IsError {
				t.Errorf("IsError = false, want true")
			}
		})
	}
}

// TestPreviewSetXP verifies the preview matches the XP formula.
func TestPreviewSetXP(t *testing.T) {
	h, _ := newTestHandlers(t)
	res, _ := h.previewSetXP(context.Background(), callTool(map[string]any{"weight": 50.0, "reps": 10.0}))
	if res.IsError {
		t.Fatalf("preview error: %s", resultText(t, res))
	}
	var got map[string]int
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got["xp"] != 20 || got["xpToNextLevel"] != 150 {
		t.Errorf("preview = %v, want xp 20, xpToNextLevel 150", got)
	}
}

// TestResources verifies both resources return JSON for their URI.
func TestResources(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	var req mcp.ReadResourceRequest
	req.Params.URI = "levelgym://achievements"
	contents, err := h.achievementsResource(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents)
	var body struct {
		Summary      struct{ Total int } `json:"summary"`
		Achievements []models.Achievement `json:"achievements"`
	}
	if err := json.Unmarshal([]byte(text.Text), &body); err != nil {
		t.Fatal(err)
	}
	if body.Summary.Total != len(body.Achievements) || body.Summary.Total == 0 {
		t.Errorf("summary total = %d, achievements = %d", body.Summary.Total, len(body.Achievements))
	}

	req.Params.URI = "levelgym://stats"
	contents, err = h.statsResource(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if got := contents[0].(mcp.TextResourceContents).URI; got != "levelgym://stats" {
		t.Errorf("uri = %q", got)
	}
}
