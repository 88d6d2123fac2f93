package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionYAML = `
context:
  agency_id: 7
  open_day: "2024-01-01"
  eval_date: "2024-01-02"
participants:
  - id: p1
    personal:
      name: Kim
      sex: M
      age: "30"
      residence: seoul
      job: Teacher
      participation_period: day-trip
  - personal:
      name: Lee
`

func TestLoadFileNormalizesAndAssignsIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sessionYAML), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Participants, 2)
	kim := f.Participants[0]
	assert.Equal(t, "p1", kim.ID)
	assert.Equal(t, SexMale, kim.Personal.Sex)
	assert.Equal(t, Residence("Seoul"), kim.Personal.Residence)
	assert.Equal(t, Job("teacher"), kim.Personal.Job)
	assert.Equal(t, ParticipationPeriod("day-trip"), kim.Personal.ParticipationPeriod)
	assert.NotEmpty(t, f.Participants[1].ID)
	assert.Equal(t, SexUnspecified, f.Participants[1].Personal.Sex)

	s := NewStore(NewStaticDirectory(Agency{ID: 7, Name: "ACME"}), fixedNow)
	require.NoError(t, s.Load(f))
	assert.Equal(t, "ACME", s.Context().Agency)
	assert.Equal(t, "7", s.Context().AgencyIDString())
	assert.Equal(t, 2, s.Len())
}

func TestLoadFileRejectsBadDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context:\n  open_day: tomorrow\n"), 0o644))
	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestSaveThenLoadKeepsOrder(t *testing.T) {
	s := NewStore(nil, fixedNow)
	require.NoError(t, s.Add(named("p2", "Lee")))
	require.NoError(t, s.Add(named("p1", "Kim")))
	path := filepath.Join(t.TempDir(), "state", "roster.yaml")
	require.NoError(t, SaveFile(path, s.Snapshot()))

	f, ok, err := LoadFileIfExists(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"p2", "p1"}, f.Participants.IDs())
	assert.Equal(t, "2024-01-02", f.Context.EvalDate)

	_, ok, err = LoadFileIfExists(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)
}
