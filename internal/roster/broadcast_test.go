package roster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(id, name string) Participant {
	return NewParticipantWithID(id, Personal{Name: name})
}

func TestValidateForBroadcast(t *testing.T) {
	tests := []struct {
		name   string
		roster Roster
		kind   ValidationKind
		index  int
	}{
		{name: "empty roster", roster: Roster{}, kind: MissingParticipant, index: -1},
		{name: "nil roster", roster: nil, kind: MissingParticipant, index: -1},
		{name: "blank name", roster: Roster{named("p1", "Kim"), named("p2", "   ")}, kind: MissingName, index: 1},
		{name: "first blank wins", roster: Roster{named("p1", ""), named("p2", "")}, kind: MissingName, index: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForBroadcast(tt.roster)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.kind, verr.Kind)
			assert.Equal(t, tt.index, verr.Index)
		})
	}
}

func TestValidateForBroadcastAcceptsNamedRoster(t *testing.T) {
	require.NoError(t, ValidateForBroadcast(Roster{named("p1", "Kim"), named("p2", "Lee")}))
}

func TestComputeFingerprintDeterministicAndOrderSensitive(t *testing.T) {
	a := Roster{named("p1", "Kim"), named("p2", "Lee")}
	b := Roster{named("p1", "Someone else"), named("p2", "")}
	reordered := Roster{named("p2", "Lee"), named("p1", "Kim")}

	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(a.Clone()))
	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b), "only ids feed the fingerprint")
	assert.NotEqual(t, ComputeFingerprint(a), ComputeFingerprint(reordered))
}

func TestComputeFingerprintLengthPrefixesIDs(t *testing.T) {
	left := Roster{named("ab", "x"), named("c", "y")}
	right := Roster{named("a", "x"), named("bc", "y")}
	assert.NotEqual(t, ComputeFingerprint(left), ComputeFingerprint(right))
	assert.NotEqual(t, ComputeFingerprint(nil), ComputeFingerprint(Roster{named("", "x")}))
}
