package render

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder formats labels for class IDs missing from a LabelTable.
const DefaultPlaceholder = "Class %d"

// LabelTable maps detector class IDs to display names.
//
// Tables are versioned so that an override shipped alongside a retrained
// model can be told apart from the built-in one in logs and reports.
type LabelTable struct {
	// Version identifies this mapping (e.g. "fruit-v3").
	Version string `json:"version"`

	// Names maps class IDs to display names.
	Names map[int]string `json:"names"`

	// Placeholder is a fmt pattern taking the class ID, used when an ID has no
	// name. Empty means DefaultPlaceholder.
	Placeholder string `json:"placeholder,omitempty"`
}

// Resolve returns the display name for a class ID.
//
// The result is never empty: missing or blank names fall back to the
// placeholder pattern.
func (t LabelTable) Resolve(classID int) string {
	if name, ok := t.Names[classID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	pattern := t.Placeholder
	if pattern == "" {
		pattern = DefaultPlaceholder
	}
	return fmt.Sprintf(pattern, classID)
}

// ClassCount returns one more than the highest class ID in the table, which
// is the number of class scores a detector head must produce for it.
func (t LabelTable) ClassCount() int {
	n := 0
	for id := range t.Names {
		if id+1 > n {
			n = id + 1
		}
	}
	return n
}

// DefaultSentinels are substrings that mark a label as leaked model metadata
// rather than a category name.
var DefaultSentinels = []string{"dataset", "created on"}

// CorruptionFilter rejects labels that contain any of its sentinels.
//
// Some exported models carry a dataset description (for example
// "Dataset v2 created on 2024") in place of a class name. Detections that
// resolve to such a label are filtered out before drawing.
type CorruptionFilter struct {
	Sentinels []string
}

// DefaultCorruptionFilter returns a filter using DefaultSentinels.
func DefaultCorruptionFilter() CorruptionFilter {
	sentinels := make([]string, len(DefaultSentinels))
	copy(sentinels, DefaultSentinels)
	return CorruptionFilter{Sentinels: sentinels}
}

// IsCorrupt reports whether label contains a sentinel, ignoring case.
func (f CorruptionFilter) IsCorrupt(label string) bool {
	lower := strings.ToLower(label)
	for _, s := range f.Sentinels {
		if s == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
