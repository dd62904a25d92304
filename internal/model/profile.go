package model

import "time"

// HistoryEntry is one finished analysis kept by the store
type HistoryEntry struct {
	ID          string         `json:"id" yaml:"id"`
	Date        time.Time      `json:"date" yaml:"date"`
	State       SyntheticState `json:"state" yaml:"state"`
	Explanation string         `json:"explanation" yaml:"explanation"`
	Confidence  float64        `json:"confidence" yaml:"confidence"`
}

// DefaultEnergy is the baseline energy assumed when no profile exists
const DefaultEnergy = 5

// Profile describes the observed dog
type Profile struct {
	Name   string `json:"name" yaml:"name" msgpack:"name"`
	Age    int    `json:"age" yaml:"age" msgpack:"age"`
	Energy int    `json:"energy" yaml:"energy" msgpack:"energy"` // 1-10
}

// EffectiveEnergy returns the energy level, falling back to the default
func (p Profile) EffectiveEnergy() int {
	if p.Energy <= 0 {
		return DefaultEnergy
	}
	return p.Energy
}

// Feedback records whether the user agreed with an analysis
type Feedback struct {
	AnalysisID string    `json:"analysis_id"`
	Timestamp  time.Time `json:"timestamp"`
	Correct    bool      `json:"correct"`
	Comment    string    `json:"comment,omitempty"`
}

// Snapshot is the read-only context handed to context engines.
// Recent is ordered newest first.
type Snapshot struct {
	Recent  []HistoryEntry `json:"recent"`
	Profile Profile        `json:"profile"`
}
