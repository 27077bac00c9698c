package save

import (
	"encoding/json"
	"math"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
)

// Defaults for fields a legacy dictionary does not carry.
const (
	legacyPlayerName = "Commander"
	legacyCapacity   = 1000
	legacyPage       = "starMap"
)

// fromLegacyDictionary salvages what it can from an unversioned JSON object.
// Each field falls back to its default when absent or of the wrong type, and list entries
// missing a required key are dropped.
func fromLegacyDictionary(raw map[string]json.RawMessage, now time.Time) *Envelope {
	env := &Envelope{
		Version:           CurrentVersion,
		PlayerName:        stringOr(raw, "playerName", legacyPlayerName),
		PlayerLevel:       int(intOr(raw, "playerLevel", 0)),
		PlayerXP:          intOr(raw, "playerXP", 0),
		Currency:          intOr(raw, "currency", 0),
		CurrentLocationID: stringOr(raw, "currentLocationId", location.StartingID),
		Resources:         []ResourceRecord{},
		ConstructionBays:  []BayRecord{},
		OwnedCards:        []CardRecord{},

		CurrentLocationTapCount:      int(intOr(raw, "currentLocationTapCount", 0)),
		LocationTapCounts:            countsOr(raw, "locationTapCounts"),
		TotalTapsCount:               int(intOr(raw, "totalTapsCount", 0)),
		TotalXPGained:                intOr(raw, "totalXPGained", 0),
		LocationIdleCollectionCounts: countsOr(raw, "locationIdleCollectionCounts"),
		TotalIdleCollectionCount:     int(intOr(raw, "totalIdleCollectionCount", 0)),
		TotalNuminsCollected:         intOr(raw, "totalNuminsCollected", 0),
		TotalConstructionsCompleted:  int(intOr(raw, "totalConstructionsCompleted", 0)),
		SmallConstructionsCompleted:  int(intOr(raw, "smallConstructionsCompleted", 0)),
		MediumConstructionsCompleted: int(intOr(raw, "mediumConstructionsCompleted", 0)),
		LargeConstructionsCompleted:  int(intOr(raw, "largeConstructionsCompleted", 0)),

		MaxStorageCapacity: int(intOr(raw, "maxStorageCapacity", legacyCapacity)),
		CurrentPage:        stringOr(raw, "currentPage", legacyPage),
		LastSaved:          now.UTC(),
	}

	for _, obj := range objectsOf(raw, "resources") {
		t, okT := asString(obj["type"])
		amount, okA := asFloat(obj["amount"])
		if !okT || !okA {
			continue
		}
		env.Resources = append(env.Resources, ResourceRecord{Type: t, Amount: amount})
	}

	for _, obj := range objectsOf(raw, "constructionBays") {
		id, okID := asString(obj["id"])
		size, okSize := asString(obj["size"])
		unlocked, okU := asBool(obj["isUnlocked"])
		if !okID || !okSize || !okU {
			continue
		}
		bay := BayRecord{ID: id, Size: size, IsUnlocked: unlocked}
		if c := legacyConstruction(obj["currentConstruction"]); c != nil {
			bay.CurrentConstruction = c
		}
		env.ConstructionBays = append(env.ConstructionBays, bay)
	}

	for _, obj := range objectsOf(raw, "ownedCards") {
		id, okID := asString(obj["id"])
		cardID, okCard := asString(obj["cardId"])
		copies, okC := asInt(obj["copies"])
		tier, okT := asInt(obj["tier"])
		if !okID || !okCard || !okC || !okT {
			continue
		}
		var slotted []string
		if v, ok := obj["slottedOn"]; !ok || json.Unmarshal(v, &slotted) != nil || slotted == nil {
			slotted = []string{}
		}
		env.OwnedCards = append(env.OwnedCards, CardRecord{
			ID: id, CardID: cardID, Copies: int(copies), Tier: int(tier), SlottedOn: slotted,
		})
	}
	return env
}

// legacyConstruction accepts either recipeId or blueprintId for the blueprint reference.
func legacyConstruction(v json.RawMessage) *ConstructionRecord {
	if v == nil {
		return nil
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(v, &obj) != nil || obj == nil {
		return nil
	}
	id, okID := asString(obj["id"])
	bp, okBP := asString(obj["recipeId"])
	if !okBP {
		bp, okBP = asString(obj["blueprintId"])
	}
	remaining, okR := asFloat(obj["timeRemaining"])
	progress, okP := asFloat(obj["progress"])
	if !okID || !okBP || !okR || !okP {
		return nil
	}
	return &ConstructionRecord{ID: id, BlueprintID: bp, TimeRemaining: remaining, Progress: progress}
}

func objectsOf(raw map[string]json.RawMessage, key string) []map[string]json.RawMessage {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(v, &items) != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if json.Unmarshal(item, &obj) == nil && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

func stringOr(raw map[string]json.RawMessage, key, def string) string {
	if s, ok := asString(raw[key]); ok {
		return s
	}
	return def
}

func intOr(raw map[string]json.RawMessage, key string, def int64) int64 {
	if n, ok := asInt(raw[key]); ok {
		return n
	}
	return def
}

// countsOr reads a map of integer counters. One non-integer value discards the whole map.
func countsOr(raw map[string]json.RawMessage, key string) map[string]int {
	var m map[string]float64
	if v, ok := raw[key]; !ok || json.Unmarshal(v, &m) != nil || m == nil {
		return map[string]int{}
	}
	out := make(map[string]int, len(m))
	for k, f := range m {
		if f != math.Trunc(f) {
			return map[string]int{}
		}
		out[k] = int(f)
	}
	return out
}

func asString(v json.RawMessage) (string, bool) {
	var s string
	if v == nil || string(v) == "null" || json.Unmarshal(v, &s) != nil {
		return "", false
	}
	return s, true
}

func asFloat(v json.RawMessage) (float64, bool) {
	var f float64
	if v == nil || string(v) == "null" || json.Unmarshal(v, &f) != nil {
		return 0, false
	}
	return f, true
}

// asInt accepts only integral numbers.
func asInt(v json.RawMessage) (int64, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}

func asBool(v json.RawMessage) (bool, bool) {
	var b bool
	if v == nil || string(v) == "null" || json.Unmarshal(v, &b) != nil {
		return false, false
	}
	return b, true
}
