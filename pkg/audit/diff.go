package audit

import (
	"bytes"
	"encoding/json"
	"sort"
)

// ChangedFields computes the set of fields that differ between a before-
// and after-snapshot. A key counts as changed when its canonical JSON
// serialization differs between the two sides, or when only one side
// defines it. The result is sorted and contains each key at most once;
// it is nil when the snapshots are structurally identical or both empty.
//
// JSON marshaling is the canonicalization: map key order is normalized
// and equivalent numeric representations compare equal.
func ChangedFields(oldValues, newValues map[string]interface{}) []string {
	if len(oldValues) == 0 && len(newValues) == 0 {
		return nil
	}

	changed := make([]string, 0, len(newValues))

	for key, newVal := range newValues {
		oldVal, ok := oldValues[key]
		if !ok || !jsonEqual(oldVal, newVal) {
			changed = append(changed, key)
		}
	}

	// Keys removed between snapshots count as changed too
	for key := range oldValues {
		if _, ok := newValues[key]; !ok {
			changed = append(changed, key)
		}
	}

	if len(changed) == 0 {
		return nil
	}

	sort.Strings(changed)
	return changed
}

// jsonEqual compares two values by their canonical JSON form. Values that
// cannot be marshaled are treated as unequal so they surface as changed
// rather than silently vanish from the diff.
func jsonEqual(a, b interface{}) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
