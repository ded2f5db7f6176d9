package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/levelgym/internal/achievements"
	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/store"
)

// HTTPClient implements DataSource by calling the LevelGym REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil, http.StatusOK)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, want int) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode body: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, data, want)
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body []byte, want int) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("httpclient: %s: %w", u, ErrNotFound)
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("httpclient: %s %s returned %d: %s", method, u, resp.StatusCode, data)
	}
	return data, nil
}

func decodeInto[T any](body []byte, what string) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("httpclient: decode %s: %w", what, err)
	}
	return &v, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, category string) ([]models.Exercise, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	body, err := c.get(ctx, "/api/v1/exercises", params)
	if err != nil {
		return nil, err
	}
	list, err := decodeInto[[]models.Exercise](body, "exercises")
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (c *HTTPClient) GetExercise(ctx context.Context, id string) (*store.ExerciseDetail, error) {
	body, err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[store.ExerciseDetail](body, "exercise")
}

func (c *HTTPClient) AddExercise(ctx context.Context, name, category string) (*models.Exercise, error) {
	body, err := c.post(ctx, "/api/v1/exercises",
		map[string]string{"name": name, "category": category}, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return decodeInto[models.Exercise](body, "exercise")
}

func (c *HTTPClient) CompleteExercise(ctx context.Context, cmd store.CompleteExercise) (*store.Completion, error) {
	body, err := c.post(ctx, "/api/v1/exercises/"+url.PathEscape(cmd.ExerciseID)+"/complete",
		map[string]any{"weight": cmd.Weight, "reps": cmd.Reps, "sets": cmd.Sets}, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodeInto[store.Completion](body, "completion")
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, day int) ([]models.Workout, error) {
	params := url.Values{}
	if day != AllDays {
		params.Set("day", strconv.Itoa(day))
	}
	body, err := c.get(ctx, "/api/v1/workouts", params)
	if err != nil {
		return nil, err
	}
	list, err := decodeInto[[]models.Workout](body, "workouts")
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (c *HTTPClient) GetStats(ctx context.Context) (*models.UserStats, error) {
	body, err := c.get(ctx, "/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[models.UserStats](body, "stats")
}

func (c *HTTPClient) ListAchievements(ctx context.Context, category models.AchievementCategory) ([]models.Achievement, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", string(category))
	}
	body, err := c.get(ctx, "/api/v1/achievements", params)
	if err != nil {
		return nil, err
	}
	list, err := decodeInto[[]models.Achievement](body, "achievements")
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (c *HTTPClient) AchievementSummary(ctx context.Context) (*achievements.Summary, error) {
	body, err := c.get(ctx, "/api/v1/achievements/summary", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[achievements.Summary](body, "achievement summary")
}
