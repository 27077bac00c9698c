package save

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Outcome classifies a stored blob.
type Outcome string

const (
	OutcomeAbsent           Outcome = "absent"
	OutcomeCurrent          Outcome = "current"
	OutcomeMigrated         Outcome = "migrated"
	OutcomeLegacyDictionary Outcome = "legacy_dictionary"
	OutcomeCorrupt          Outcome = "corrupt"
)

// MigrationError reports a blob that could not be turned into a current envelope.
type MigrationError struct {
	Reason string
	Err    error
}

func (e *MigrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Step upgrades an envelope from one version to the next.
type Step struct {
	From  string
	To    string
	Apply func(env *Envelope) error
}

// Result is what Migrate made of a blob.
type Result struct {
	Envelope    *Envelope
	Outcome     Outcome
	FromVersion string
}

// Migrator classifies stored blobs and upgrades them to CurrentVersion.
type Migrator struct {
	steps map[string]Step
	now   func() time.Time
}

// DefaultSteps is the ordered upgrade chain shipped with this build.
// 1.0.0 is the first versioned format, so it is empty.
var DefaultSteps []Step

// NewMigrator builds a migrator over the given steps. With no steps only CurrentVersion
// and legacy dictionaries are readable.
func NewMigrator(steps ...Step) *Migrator {
	m := &Migrator{steps: make(map[string]Step, len(steps)), now: time.Now}
	for _, s := range steps {
		m.steps[s.From] = s
	}
	return m
}

// requiredKeys are the envelope keys a typed decode needs. A blob missing any of them
// is read as a legacy dictionary.
var requiredKeys = []string{
	"version", "playerName", "playerLevel", "playerXP", "currency", "currentLocationId",
	"resources", "constructionBays", "ownedCards",
	"currentLocationTapCount", "locationTapCounts", "totalTapsCount", "totalXPGained",
	"locationIdleCollectionCounts", "totalIdleCollectionCount", "totalNuminsCollected",
	"totalConstructionsCompleted", "smallConstructionsCompleted",
	"mediumConstructionsCompleted", "largeConstructionsCompleted",
	"maxStorageCapacity", "currentPage", "lastSaved",
}

// Migrate classifies data and returns a current-version envelope for everything but
// Absent and Corrupt. Corrupt blobs return a *MigrationError.
func (m *Migrator) Migrate(data []byte) (Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{Outcome: OutcomeAbsent}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Result{Outcome: OutcomeCorrupt}, &MigrationError{Reason: "Unable to migrate from legacy format", Err: err}
	}

	if env, ok := decodeTyped(data, raw); ok {
		if env.Version == CurrentVersion {
			return Result{Envelope: env, Outcome: OutcomeCurrent, FromVersion: env.Version}, nil
		}
		from := env.Version
		path, ok := m.path(from)
		if !ok {
			return Result{Outcome: OutcomeCorrupt, FromVersion: from},
				&MigrationError{Reason: "Unsupported save version: " + from}
		}
		for _, step := range path {
			if err := step.Apply(env); err != nil {
				return Result{Outcome: OutcomeCorrupt, FromVersion: from},
					&MigrationError{Reason: fmt.Sprintf("Migration failed: %s to %s", step.From, step.To), Err: err}
			}
			env.Version = step.To
		}
		return Result{Envelope: env, Outcome: OutcomeMigrated, FromVersion: from}, nil
	}

	return Result{Envelope: fromLegacyDictionary(raw, m.now()), Outcome: OutcomeLegacyDictionary}, nil
}

func decodeTyped(data []byte, raw map[string]json.RawMessage) (*Envelope, bool) {
	for _, k := range requiredKeys {
		if v, ok := raw[k]; !ok || string(v) == "null" {
			return nil, false
		}
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	return &env, true
}

// path returns the steps leading from a version to CurrentVersion.
func (m *Migrator) path(from string) ([]Step, bool) {
	var out []Step
	seen := map[string]bool{}
	for v := from; v != CurrentVersion; {
		if seen[v] {
			return nil, false
		}
		seen[v] = true
		step, ok := m.steps[v]
		if !ok || step.Apply == nil {
			return nil, false
		}
		out = append(out, step)
		v = step.To
	}
	return out, true
}
