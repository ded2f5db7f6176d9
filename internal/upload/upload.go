// Package upload moves progression snapshots between local files and a
// LevelGym server.
package upload

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/claude/levelgym/internal/models"
	"github.com/claude/levelgym/internal/snapshot"
)

// Stats summarizes a push.
type Stats struct {
	Skipped   bool
	Exercises int
	Workouts  int
	Sessions  int
	Server    models.UserStats
}

// Uploader pushes snapshot files to the server and pulls backups from it.
type Uploader struct {
	client *Client
	state  *StateDB
	server string
	dryRun bool
	force  bool
	log    *slog.Logger
	now    func() time.Time
}

// New creates a new Uploader. state may be nil to disable duplicate tracking.
func New(client *Client, state *StateDB, dryRun, force bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		server: client.serverURL,
		dryRun: dryRun,
		force:  force,
		log:    log,
		now:    time.Now,
	}
}

// Push reads a snapshot file (gzipped when it ends in .gz), validates it and
// replaces the server state with it.
func (u *Uploader) Push(ctx context.Context, path string) (*Stats, error) {
	data, err := ReadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	st, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	stats := &Stats{
		Exercises: len(st.Exercises),
		Workouts:  len(st.Workouts),
		Sessions:  len(st.Sessions),
	}

	// Re-encode so the server always receives the current envelope version.
	data, err = snapshot.Encode(st)
	if err != nil {
		return nil, err
	}
	hash := HashBytes(data)

	if u.state != nil && !u.force {
		done, err := u.state.IsPushed(u.server, hash)
		if err != nil {
			return nil, fmt.Errorf("checking state db: %w", err)
		}
		if done {
			u.log.Info("snapshot already pushed, skipping", "file", path, "hash", hash[:12])
			stats.Skipped = true
			return stats, nil
		}
	}

	if u.dryRun {
		u.log.Info("dry run: would push snapshot", "file", path,
			"exercises", stats.Exercises, "workouts", stats.Workouts, "sessions", stats.Sessions)
		return stats, nil
	}

	stats.Server, err = u.client.PushState(ctx, data)
	if err != nil {
		return stats, err
	}
	if u.state != nil {
		if err := u.state.MarkPushed(u.server, hash, path, u.now()); err != nil {
			u.log.Warn("recording push failed", "error", err)
		}
	}
	u.log.Info("snapshot pushed", "file", path, "totalXP", stats.Server.TotalXP, "totalLevel", stats.Server.TotalLevel)
	return stats, nil
}

// Pull downloads the server state and writes it to path, gzipped when path
// ends in .gz.
func (u *Uploader) Pull(ctx context.Context, path string) error {
	data, err := u.client.FetchState(ctx)
	if err != nil {
		return err
	}
	if _, err := snapshot.Decode(data); err != nil {
		return fmt.Errorf("server returned invalid snapshot: %w", err)
	}
	if err := WriteSnapshotFile(path, data); err != nil {
		return err
	}
	u.log.Info("snapshot saved", "file", path, "bytes", len(data))
	return nil
}

// ReadSnapshotFile returns the contents of path, gunzipping .gz files.
func ReadSnapshotFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("gunzip %s: %w", path, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gunzip %s: %w", path, err)
	}
	return data, nil
}

// WriteSnapshotFile writes data to path, gzipping .gz files.
func WriteSnapshotFile(path string, data []byte) error {
	if !strings.HasSuffix(path, ".gz") {
		return os.WriteFile(path, data, 0o644)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
