package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusUnsynced, StatusApplying, true},
		{StatusApplying, StatusSynced, true},
		{StatusApplying, StatusFailed, true},
		{StatusApplying, StatusUnsupported, true},
		{StatusSynced, StatusApplying, true},
		{StatusFailed, StatusApplying, true},
		{StatusUnsynced, StatusSynced, false},
		{StatusSynced, StatusFailed, false},
		{StatusApplying, StatusApplying, false},
		{StatusSynced, StatusUnsynced, true},
		{StatusSynced, Status("bogus"), false},
	}
	for _, tt := range tests {
		got, err := Transition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, got)
		} else {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, got)
		}
	}
}
