package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangedFields(t *testing.T) {
	tests := []struct {
		name      string
		oldValues map[string]interface{}
		newValues map[string]interface{}
		want      []string
	}{
		{
			name:      "both nil",
			oldValues: nil,
			newValues: nil,
			want:      nil,
		},
		{
			name:      "identical snapshots",
			oldValues: map[string]interface{}{"status": "pending", "count": 3},
			newValues: map[string]interface{}{"status": "pending", "count": 3},
			want:      nil,
		},
		{
			name:      "one value changed",
			oldValues: map[string]interface{}{"status": "pending", "count": 3},
			newValues: map[string]interface{}{"status": "success", "count": 3},
			want:      []string{"status"},
		},
		{
			name:      "changed and added",
			oldValues: map[string]interface{}{"a": 1, "b": 2},
			newValues: map[string]interface{}{"a": 1, "b": 3, "c": 4},
			want:      []string{"b", "c"},
		},
		{
			name:      "key removed counts as changed",
			oldValues: map[string]interface{}{"a": 1, "b": 2},
			newValues: map[string]interface{}{"a": 1},
			want:      []string{"b"},
		},
		{
			name:      "nil value differs from absent key",
			oldValues: map[string]interface{}{"a": 1},
			newValues: map[string]interface{}{"a": 1, "b": nil},
			want:      []string{"b"},
		},
		{
			name:      "nested structures compared by serialization",
			oldValues: map[string]interface{}{"meta": map[string]interface{}{"x": 1, "y": 2}},
			newValues: map[string]interface{}{"meta": map[string]interface{}{"y": 2, "x": 1}},
			want:      nil,
		},
		{
			name:      "nested change detected",
			oldValues: map[string]interface{}{"meta": map[string]interface{}{"x": 1}},
			newValues: map[string]interface{}{"meta": map[string]interface{}{"x": 2}},
			want:      []string{"meta"},
		},
		{
			name:      "only old snapshot",
			oldValues: map[string]interface{}{"a": 1, "b": 2},
			newValues: nil,
			want:      []string{"a", "b"},
		},
		{
			name:      "only new snapshot",
			oldValues: nil,
			newValues: map[string]interface{}{"a": 1},
			want:      []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChangedFields(tt.oldValues, tt.newValues))
		})
	}
}

func TestChangedFields_EquivalentNumericForms(t *testing.T) {
	// int 1 and float64 1 both serialize to "1"
	old := map[string]interface{}{"count": 1}
	updated := map[string]interface{}{"count": float64(1)}
	assert.Nil(t, ChangedFields(old, updated))
}

func TestChangedFields_Sorted(t *testing.T) {
	old := map[string]interface{}{"z": 1, "a": 1, "m": 1}
	updated := map[string]interface{}{"z": 2, "a": 2, "m": 2}
	assert.Equal(t, []string{"a", "m", "z"}, ChangedFields(old, updated))
}
