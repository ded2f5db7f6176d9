package achievements

import (
	"math"
	"time"

	"github.com/claude/levelgym/internal/models"
)

// Result is the diff produced by one evaluation.
type Result struct {
	NewlyUnlocked   []models.Achievement `json:"newlyUnlocked"`
	ProgressUpdates []models.Achievement `json:"progressUpdates"`
}

// Empty reports whether the evaluation changed nothing.
func (r Result) Empty() bool {
	return len(r.NewlyUnlocked) == 0 && len(r.ProgressUpdates) == 0
}

// Evaluate walks the catalog in declaration order and compares each entry
// against the stored records in current. It never locks an unlocked record.
// now stamps newly unlocked achievements.
func (c *Catalog) Evaluate(current []models.Achievement, p Progress, now time.Time) Result {
	stored := make(map[string]models.Achievement, len(current))
	for _, a := range current {
		stored[a.ID] = a
	}

	var res Result
	for _, d := range c.defs {
		cur, found := stored[d.ID]
		value := d.progress(p)

		switch {
		case found && cur.Unlocked:
			if d.Tracked() && value != cur.Progress {
				upd := d.Locked()
				upd.Unlocked = true
				upd.UnlockedAt = cur.UnlockedAt
				upd.Progress = value
				res.ProgressUpdates = append(res.ProgressUpdates, upd)
			}

		case d.Unlocks(p):
			at := now
			a := d.Locked()
			a.Unlocked = true
			a.UnlockedAt = &at
			if d.Tracked() {
				a.Progress = d.MaxProgress
			}
			res.NewlyUnlocked = append(res.NewlyUnlocked, a)

		case d.Tracked() && value > 0 && value != cur.Progress:
			upd := d.Locked()
			upd.Progress = value
			res.ProgressUpdates = append(res.ProgressUpdates, upd)
		}
	}
	return res
}

// Unlock returns the record for id unlocked at now. ok is false when id is
// unknown or already unlocked in current.
func (c *Catalog) Unlock(current []models.Achievement, id string, now time.Time) (models.Achievement, bool) {
	d, known := c.Lookup(id)
	if !known {
		return models.Achievement{}, false
	}
	for _, a := range current {
		if a.ID == id && a.Unlocked {
			return models.Achievement{}, false
		}
	}
	at := now
	a := d.Locked()
	a.Unlocked = true
	a.UnlockedAt = &at
	if d.Tracked() {
		a.Progress = d.MaxProgress
	}
	return a, true
}

// Merge folds an evaluation result into current, replacing records by id and
// appending ids not yet present. An unlocked record is never reverted.
func Merge(current []models.Achievement, res Result) []models.Achievement {
	out := append([]models.Achievement(nil), current...)
	index := make(map[string]int, len(out))
	for i, a := range out {
		index[a.ID] = i
	}

	apply := func(a models.Achievement) {
		i, ok := index[a.ID]
		if !ok {
			index[a.ID] = len(out)
			out = append(out, a)
			return
		}
		if out[i].Unlocked && !a.Unlocked {
			a.Unlocked = true
			a.UnlockedAt = out[i].UnlockedAt
		}
		out[i] = a
	}

	for _, a := range res.ProgressUpdates {
		apply(a)
	}
	for _, a := range res.NewlyUnlocked {
		apply(a)
	}
	return out
}

// Reconcile aligns stored records with the catalog: catalog order and
// metadata, stored unlock state and progress, missing entries added locked,
// ids the catalog no longer knows dropped.
func (c *Catalog) Reconcile(stored []models.Achievement) []models.Achievement {
	byID := make(map[string]models.Achievement, len(stored))
	for _, a := range stored {
		if prev, dup := byID[a.ID]; dup && prev.Unlocked {
			continue
		}
		byID[a.ID] = a
	}

	out := make([]models.Achievement, len(c.defs))
	for i, d := range c.defs {
		a := d.Locked()
		if s, ok := byID[d.ID]; ok {
			a.Unlocked = s.Unlocked
			a.UnlockedAt = s.UnlockedAt
			if d.Tracked() {
				a.Progress = min(max(s.Progress, 0), d.MaxProgress)
			}
		}
		out[i] = a
	}
	return out
}

// ByCategory filters list down to one category, preserving order.
func ByCategory(list []models.Achievement, cat models.AchievementCategory) []models.Achievement {
	out := make([]models.Achievement, 0, len(list))
	for _, a := range list {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

// Summary counts unlocked achievements.
type Summary struct {
	Total          int `json:"total"`
	Unlocked       int `json:"unlocked"`
	Locked         int `json:"locked"`
	CompletionRate int `json:"completionRate"` // rounded percent
}

func Summarize(list []models.Achievement) Summary {
	s := Summary{Total: len(list)}
	for _, a := range list {
		if a.Unlocked {
			s.Unlocked++
		}
	}
	s.Locked = s.Total - s.Unlocked
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Unlocked) / float64(s.Total) * 100))
	}
	return s
}
