package models

import (
	"encoding/json"
	"fmt"
)

// Achievement ids unlocked by the scorer (great race/role ids come from the game tables)
const (
	AchievementPolytheist       = "polytheist"
	AchievementGreatPlayer      = "greatplayer"
	AchievementGreaterPlayer    = "greaterplayer"
	AchievementGoodPlayer       = "goodplayer"
	AchievementCenturyPlayer    = "centuryplayer"
	AchievementNoPotionOrScroll = "no_potion_or_scroll_win"
	AchievementClearedZig       = "cleared_zig"
)

// Achievement is either a plain unlock or a counter.
// It encodes as JSON `true` or as the counter value.
type Achievement struct {
	counter bool
	count   int64
}

// Unlocked returns an unlocked achievement value
func Unlocked() Achievement {
	return Achievement{}
}

// Counter returns a counter achievement value
func Counter(n int64) Achievement {
	return Achievement{counter: true, count: n}
}

// IsCounter reports whether the value is a counter
func (a Achievement) IsCounter() bool {
	return a.counter
}

// Count returns the counter value, or 0 for plain unlocks
func (a Achievement) Count() int64 {
	return a.count
}

func (a Achievement) MarshalJSON() ([]byte, error) {
	if a.counter {
		return json.Marshal(a.count)
	}
	return []byte("true"), nil
}

func (a *Achievement) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		if !v {
			return fmt.Errorf("achievement cannot be false")
		}
		*a = Unlocked()
	case float64:
		*a = Counter(int64(v))
	default:
		return fmt.Errorf("unexpected achievement value %s", string(data))
	}
	return nil
}

// Achievements maps achievement id to its value. Entries are never removed.
type Achievements map[string]Achievement

// Has reports whether the achievement is present
func (a Achievements) Has(id string) bool {
	_, ok := a[id]
	return ok
}

// Unlock marks the achievement as unlocked. It reports whether it was newly added.
func (a Achievements) Unlock(id string) bool {
	if _, ok := a[id]; ok {
		return false
	}
	a[id] = Unlocked()
	return true
}

// Increment bumps a counter achievement, creating it at 1
func (a Achievements) Increment(id string) int64 {
	cur := a[id]
	next := Counter(cur.count + 1)
	a[id] = next
	return next.count
}

// Set overwrites an achievement value; used for manual awards
func (a Achievements) Set(id string, value Achievement) {
	a[id] = value
}
