package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Outcome represents how a game ended
type Outcome int

const (
	OutcomeOther Outcome = iota
	OutcomeWinning
	OutcomeLeaving
	OutcomeQuitting
	OutcomeDeath
)

// deathKillTypes are the raw kill types that mean the character died
var deathKillTypes = map[string]struct{}{
	"mon": {}, "pois": {}, "cloud": {}, "beam": {}, "lava": {}, "water": {},
	"stupidity": {}, "weakness": {}, "clumsiness": {}, "trap": {}, "spore": {},
	"targeting": {}, "spines": {}, "reflect": {}, "headbutt": {}, "rolling": {},
	"burning": {}, "disint": {}, "acid": {}, "curare": {}, "melting": {},
	"bleeding": {}, "tso_smiting": {}, "xom": {}, "rotting": {}, "draining": {},
	"collapse": {}, "statue": {}, "starvation": {}, "divine_wrath": {},
	"bounce": {}, "falling_down_stairs": {}, "falling_through_gate": {},
	"self_aimed": {}, "freezing": {}, "barbs": {}, "being_thrown": {},
	"collision": {}, "zot": {}, "mirror_damage": {}, "wild_magic": {},
	"misc": {}, "unknown": {},
}

// ParseOutcome maps a raw kill type onto an Outcome
func ParseOutcome(ktyp string) (Outcome, error) {
	ktyp = strings.TrimSpace(strings.ToLower(ktyp))
	switch ktyp {
	case "":
		return OutcomeOther, fmt.Errorf("empty kill type")
	case "winning":
		return OutcomeWinning, nil
	case "leaving":
		return OutcomeLeaving, nil
	case "quitting":
		return OutcomeQuitting, nil
	}
	if _, ok := deathKillTypes[ktyp]; ok {
		return OutcomeDeath, nil
	}
	return OutcomeOther, nil
}

// String returns the canonical kill type for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeWinning:
		return "winning"
	case OutcomeLeaving:
		return "leaving"
	case OutcomeQuitting:
		return "quitting"
	case OutcomeDeath:
		return "death"
	default:
		return "other"
	}
}

// IsWin reports whether the game was won
func (o Outcome) IsWin() bool {
	return o == OutcomeWinning
}

// IsBoring reports whether the game ended by leaving or quitting rather than dying
func (o Outcome) IsBoring() bool {
	return o == OutcomeLeaving || o == OutcomeQuitting
}

// GameRecord represents one completed game as ingested from the server logs.
// Only Scored ever changes after ingestion.
type GameRecord struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Src      string         `db:"src"`
	Start    time.Time      `db:"start_time"`
	End      time.Time      `db:"end_time"`
	KillType string         `db:"ktyp"`
	Outcome  Outcome        `db:"-"`
	Race     string         `db:"race"`
	Role     string         `db:"role"`
	God      string         `db:"god"`
	Score    int64          `db:"score"`
	Duration int64          `db:"duration"` // seconds
	Turns    int64          `db:"turns"`
	Payload  map[string]any `db:"raw_data"`
	Scored   bool           `db:"scored"`
}

// Payload field names read by the scorer
const (
	PayloadPotionsUsed = "potionsused"
	PayloadScrollsUsed = "scrollsused"
	PayloadZigDeepest  = "zigdeepest"
)

// GamePayload is the typed view of the auxiliary fields the scorer reads.
// Nil pointers mean the field was absent from the log line.
type GamePayload struct {
	PotionsUsed *int64
	ScrollsUsed *int64
	ZigDeepest  *string
}

// UsedConsumables reports whether any potion or scroll was used
func (p GamePayload) UsedConsumables() bool {
	return (p.PotionsUsed != nil && *p.PotionsUsed > 0) ||
		(p.ScrollsUsed != nil && *p.ScrollsUsed > 0)
}

// NoConsumables reports whether both counters are present and zero
func (p GamePayload) NoConsumables() bool {
	return p.PotionsUsed != nil && *p.PotionsUsed == 0 &&
		p.ScrollsUsed != nil && *p.ScrollsUsed == 0
}

// ParsePayload reads the scorer's fields out of a raw payload.
// It returns the offending field name with the error.
func ParsePayload(raw map[string]any) (GamePayload, string, error) {
	var p GamePayload
	var err error

	if p.PotionsUsed, err = payloadInt(raw, PayloadPotionsUsed); err != nil {
		return p, PayloadPotionsUsed, err
	}
	if p.ScrollsUsed, err = payloadInt(raw, PayloadScrollsUsed); err != nil {
		return p, PayloadScrollsUsed, err
	}
	if v, ok := raw[PayloadZigDeepest]; ok && v != nil {
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatInt(int64(t), 10)
		case int:
			s = strconv.Itoa(t)
		case int64:
			s = strconv.FormatInt(t, 10)
		default:
			return p, PayloadZigDeepest, fmt.Errorf("unexpected type %T", v)
		}
		p.ZigDeepest = &s
	}
	return p, "", nil
}

func payloadInt(raw map[string]any, key string) (*int64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int64
	switch t := v.(type) {
	case float64:
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", t)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	if n < 0 {
		return nil, fmt.Errorf("negative count %d", n)
	}
	return &n, nil
}
