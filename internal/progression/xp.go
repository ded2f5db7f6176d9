// Package progression holds the XP formula and the level ladder.
package progression

import (
	"errors"
	"fmt"
	"math"
)

// XP formula coefficients.
const (
	BaseXP           = 10.0
	WeightMultiplier = 0.1
	RepsMultiplier   = 0.5
	LevelBonus       = 0.1
	StreakBonus      = 0.2
)

// Level ladder parameters.
const (
	BaseThreshold = 100.0
	GrowthFactor  = 1.5
)

// Bounds on caller-supplied set values. MaxSetXP caps a single award so the
// running totals stay far below integer overflow.
const (
	MaxWeight = 10000.0
	MaxReps   = 10000
	MaxSets   = 1000
	MaxSetXP  = 1_000_000
)

// ValidateSet checks a set's inputs against the accepted ranges.
func ValidateSet(weight float64, reps, sets int) error {
	switch {
	case math.IsNaN(weight) || weight < 0 || reps < 0 || sets < 0:
		return errors.New("weight, reps and sets must not be negative")
	case weight > MaxWeight:
		return fmt.Errorf("weight must be at most %g", MaxWeight)
	case reps > MaxReps:
		return fmt.Errorf("reps must be at most %d", MaxReps)
	case sets > MaxSets:
		return fmt.Errorf("sets must be at most %d", MaxSets)
	}
	return nil
}

// SetXP returns the XP earned for one completed set, saturating at MaxSetXP.
// Inputs are assumed non-negative and level >= 1; callers validate before
// calling.
func SetXP(weight float64, reps, level, streak int) int {
	xp := BaseXP +
		weight*WeightMultiplier +
		float64(reps)*RepsMultiplier +
		float64(level)*LevelBonus +
		float64(streak)*StreakBonus
	if !(xp < MaxSetXP) {
		return MaxSetXP
	}
	return int(math.Floor(xp))
}

// XPThreshold returns floor(100 * 1.5^(level-1)).
func XPThreshold(level int) int {
	return int(math.Floor(BaseThreshold * math.Pow(GrowthFactor, float64(level-1))))
}

// XPToNextLevel is the XP an exercise at level must accumulate to advance.
// It is the same value CheckLevelUp compares against.
func XPToNextLevel(level int) int {
	return XPThreshold(level + 1)
}

// LevelUp is the outcome of a single level-up check.
type LevelUp struct {
	LeveledUp   bool `json:"leveledUp"`
	NewLevel    int  `json:"newLevel"`
	XPRemaining int  `json:"xpRemaining"`
}

// CheckLevelUp advances at most one level. Surplus XP carries over.
func CheckLevelUp(level, currentXP int) LevelUp {
	need := XPToNextLevel(level)
	if currentXP < need {
		return LevelUp{NewLevel: level, XPRemaining: currentXP}
	}
	return LevelUp{
		LeveledUp:   true,
		NewLevel:    level + 1,
		XPRemaining: currentXP - need,
	}
}

// LevelProgress returns how far currentXP is toward the next level, in [0, 1].
func LevelProgress(level, currentXP int) float64 {
	need := XPToNextLevel(level)
	if need <= 0 {
		return 0
	}
	p := float64(currentXP) / float64(need)
	return math.Max(0, math.Min(1, p))
}

// XPRemainingToNext returns the XP still missing before the next level.
func XPRemainingToNext(level, currentXP int) int {
	return max(0, XPToNextLevel(level)-currentXP)
}
