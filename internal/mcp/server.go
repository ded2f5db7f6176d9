package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LevelGym", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LevelGym training tracker. Exercises level up with XP earned from logged sets; achievements unlock from training history. Use preview_set_xp to estimate a set before logging it."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExercise, Handler: h.getExercise},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolCompleteExercise, Handler: h.completeExercise},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolListAchievements, Handler: h.listAchievements},
		server.ServerTool{Tool: toolPreviewSetXP, Handler: h.previewSetXP},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStats, Handler: h.statsResource},
		server.ServerResource{Resource: resAchievements, Handler: h.achievementsResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resStats = mcp.NewResource(
	"levelgym://stats",
	"Training Stats",
	mcp.WithResourceDescription("Total level, total XP, workout count, streaks and favorite exercise"),
	mcp.WithMIMEType("application/json"),
)

var resAchievements = mcp.NewResource(
	"levelgym://achievements",
	"Achievements",
	mcp.WithResourceDescription("Achievement completion summary and every achievement with its progress"),
	mcp.WithMIMEType("application/json"),
)
