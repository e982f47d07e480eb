// Package progression applies experience-point thresholds to level up a
// character, granting skill points each level and an attribute point on
// even levels.
package progression

import "github.com/ashfall-games/wasteland/internal/game/character"

// Threshold returns the XP required to advance past the given level.
func Threshold(level int) int {
	t := 100 * level
	if t < 50 {
		t = 50
	}
	return t
}

// Apply levels the character up while its XP meets the current threshold.
// Each new level grants max(1, (I-5)+1) skill points into the unspent pool
// and the lifetime total; every even new level also grants one unspent
// SPECIAL point. XP is never consumed.
//
// The loop terminates: level strictly increases each iteration and XP does
// not change, bounding iterations by xp/50.
//
// Postcondition: Returns true when at least one level was gained.
func Apply(c *character.Character) bool {
	changed := false
	if c.Level < 1 {
		c.Level = 1
	}
	for c.XP >= Threshold(c.Level) {
		c.Level++

		gained := (c.Special.I - 5) + 1
		if gained < 1 {
			gained = 1
		}
		c.UnspentSkillPoints += gained
		c.TotalSkillPointsGranted += gained

		if c.Level%2 == 0 {
			c.UnspentSpecialPoints++
		}
		changed = true
	}
	return changed
}
