// Package construction defines blueprints, construction bays and in-progress builds.
// This package is PURE and must NOT import any infrastructure packages.
package construction

import (
	"fmt"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

// Size is the bay size class a blueprint requires.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// ParseSize converts a persisted size name, accepting the capitalized form older saves used.
func ParseSize(s string) (Size, bool) {
	switch s {
	case "small", "Small":
		return SizeSmall, true
	case "medium", "Medium":
		return SizeMedium, true
	case "large", "Large":
		return SizeLarge, true
	}
	return "", false
}

// Blueprint is an immutable crafting recipe.
type Blueprint struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	Duration     int                       `json:"duration"` // seconds
	Cost         map[resource.Type]float64 `json:"cost"`
	CurrencyCost int64                     `json:"currency_cost"`
	Reward       map[resource.Type]float64 `json:"reward"`
	Size         Size                      `json:"size"`
	XPReward     int64                     `json:"xp_reward"`
}

// Construction is a build in progress inside a bay.
type Construction struct {
	ID            string  `json:"id"`
	BlueprintID   string  `json:"blueprint_id"`
	TimeRemaining int     `json:"time_remaining"` // seconds, never below 0
	Progress      float64 `json:"progress"`       // 0..1
	Duration      int     `json:"duration"`       // effective total seconds after build-time bonuses
}

// IsComplete reports whether the build can be collected.
func (c Construction) IsComplete() bool {
	return c.TimeRemaining == 0
}

// Advance moves the build forward by one second.
func (c *Construction) Advance() {
	if c.TimeRemaining > 0 {
		c.TimeRemaining--
	}
	if c.Duration <= 0 {
		c.Progress = 1
		return
	}
	p := float64(c.Duration-c.TimeRemaining) / float64(c.Duration)
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	c.Progress = p
}

// Bay is a construction slot of a fixed size.
type Bay struct {
	ID         string        `json:"id"`
	Size       Size          `json:"size"`
	Current    *Construction `json:"current_construction,omitempty"`
	IsUnlocked bool          `json:"is_unlocked"`
}

// IsFree reports whether the bay can accept a new build.
func (b Bay) IsFree() bool {
	return b.IsUnlocked && b.Current == nil
}

// Default roster sizes.
const (
	SmallBays  = 4
	MediumBays = 3
	LargeBays  = 2
)

// DefaultBays returns the starting roster: 4 small (first unlocked), 3 medium and 2 large.
func DefaultBays() []Bay {
	bays := make([]Bay, 0, SmallBays+MediumBays+LargeBays)
	for i := 0; i < SmallBays; i++ {
		bays = append(bays, Bay{ID: fmt.Sprintf("small-bay-%d", i+1), Size: SizeSmall, IsUnlocked: i == 0})
	}
	for i := 0; i < MediumBays; i++ {
		bays = append(bays, Bay{ID: fmt.Sprintf("medium-bay-%d", i+1), Size: SizeMedium})
	}
	for i := 0; i < LargeBays; i++ {
		bays = append(bays, Bay{ID: fmt.Sprintf("large-bay-%d", i+1), Size: SizeLarge})
	}
	return bays
}
