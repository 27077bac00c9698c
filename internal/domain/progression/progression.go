// Package progression holds the player level curve.
// This package is PURE and must NOT import any infrastructure packages.
package progression

// MaxLevel is the level cap. Past it XP still accumulates but no further levels are granted.
const MaxLevel = 40

// Thresholds[i] is the XP needed to go from level i to level i+1.
// Each step is the sum of the previous two, seeded with 10 and 15.
var Thresholds = buildThresholds()

func buildThresholds() [MaxLevel]int64 {
	var t [MaxLevel]int64
	t[0], t[1] = 10, 15
	for i := 2; i < MaxLevel; i++ {
		t[i] = t[i-1] + t[i-2]
	}
	return t
}

// Threshold returns the XP needed to leave the given level, or false when the level is capped.
func Threshold(level int) (int64, bool) {
	if level < 0 || level >= MaxLevel {
		return 0, false
	}
	return Thresholds[level], true
}

// Apply adds xp to a (level, xp) pair and resolves every level-up it pays for.
// It returns the new level, the leftover XP and the number of levels gained.
func Apply(level int, xp, gain int64) (int, int64, int) {
	if gain > 0 {
		xp += gain
	}
	gained := 0
	for {
		need, ok := Threshold(level)
		if !ok || xp < need {
			break
		}
		xp -= need
		level++
		gained++
	}
	return level, xp, gained
}
