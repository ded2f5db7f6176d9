package models

import "time"

// AchievementCategory groups achievements for display.
type AchievementCategory string

const (
	CategoryFirstTime AchievementCategory = "first_time"
	CategoryProgress  AchievementCategory = "progress"
	CategoryStreak    AchievementCategory = "streak"
	CategoryMilestone AchievementCategory = "milestone"
	CategorySpecial   AchievementCategory = "special"
)

// Valid reports whether c is one of the known categories.
func (c AchievementCategory) Valid() bool {
	switch c {
	case CategoryFirstTime, CategoryProgress, CategoryStreak, CategoryMilestone, CategorySpecial:
		return true
	}
	return false
}

// Achievement is the stored state of one catalog entry. Once Unlocked is
// true it stays true; UnlockedAt is set exactly once.
type Achievement struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Unlocked    bool                `json:"unlocked"`
	UnlockedAt  *time.Time          `json:"unlockedAt"`
	Progress    int                 `json:"progress,omitempty"`
	MaxProgress int                 `json:"maxProgress,omitempty"`
}
