package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionGroupCheck(t *testing.T) {
	tests := []struct {
		name  string
		group OptionGroup
		ok    bool
	}{
		{"required single", OptionGroup{Name: "Size", Required: true, SelectionType: SelectionSingle, MinSelect: 1, MaxSelect: 1}, true},
		{"optional multiple unbounded", OptionGroup{Name: "Extras", SelectionType: SelectionMultiple}, true},
		{"required without min", OptionGroup{Name: "Size", Required: true, SelectionType: SelectionSingle, MaxSelect: 1}, false},
		{"single with max 2", OptionGroup{Name: "Size", SelectionType: SelectionSingle, MaxSelect: 2}, false},
		{"max below min", OptionGroup{Name: "Extras", SelectionType: SelectionMultiple, MinSelect: 3, MaxSelect: 2}, false},
		{"unknown type", OptionGroup{Name: "Extras", SelectionType: "some"}, false},
		{"missing name", OptionGroup{SelectionType: SelectionMultiple}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.group.Check()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidGroup))
		})
	}
}
