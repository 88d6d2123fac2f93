package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func TestNewStoreDefaultsEvalDateToToday(t *testing.T) {
	s := NewStore(nil, fixedNow)
	assert.Equal(t, "2024-01-02", s.Context().EvalDate)
	assert.Zero(t, s.Len())
}

func TestStoreAddRemoveKeepsOrder(t *testing.T) {
	s := NewStore(nil, fixedNow)
	require.NoError(t, s.Add(named("p1", "Kim")))
	require.NoError(t, s.Add(named("p2", "Lee")))
	require.NoError(t, s.Add(named("p3", "Park")))
	require.Error(t, s.Add(named("p2", "dup")))
	require.Error(t, s.Add(named(" ", "blank id")))

	snapshot := s.Roster()
	assert.True(t, s.Remove("p2"))
	assert.False(t, s.Remove("p2"))
	assert.Equal(t, []string{"p1", "p3"}, s.Roster().IDs())
	assert.Equal(t, []string{"p1", "p2", "p3"}, snapshot.IDs(), "snapshots are detached")
}

func TestStoreAddBlankGeneratesUniqueIDs(t *testing.T) {
	s := NewStore(nil, fixedNow)
	a := s.AddBlank()
	b := s.AddBlank()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, SexUnspecified, a.Personal.Sex)
	assert.Equal(t, JobUnspecified, a.Personal.Job)
}

func TestStoreUpdateCannotChangeID(t *testing.T) {
	s := NewStore(nil, fixedNow)
	require.NoError(t, s.Add(named("p1", "Kim")))
	require.NoError(t, s.Update("p1", func(p *Personal) {
		p.Name = "  Kim Minsu "
		p.Sex = ParseSex("F")
		p.Age = "31"
	}))
	got := s.Roster()[0]
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Kim Minsu", got.Personal.Name)
	assert.Equal(t, SexFemale, got.Personal.Sex)
	require.Error(t, s.Update("missing", func(*Personal) {}))
}

func TestStoreReplaceRejectsDuplicates(t *testing.T) {
	s := NewStore(nil, fixedNow)
	require.NoError(t, s.Add(named("p0", "Old")))
	err := s.Replace(Roster{named("p1", "Kim"), named("p1", "Lee")})
	require.Error(t, err)
	assert.Equal(t, []string{"p0"}, s.Roster().IDs())

	require.NoError(t, s.Replace(Roster{named("p1", "Kim"), named("p2", "Lee")}))
	assert.Equal(t, []string{"p1", "p2"}, s.Roster().IDs())
}

func TestStoreUnifyFromTemplate(t *testing.T) {
	s := NewStore(nil, fixedNow)
	require.NoError(t, s.Add(NewParticipantWithID("p1", Personal{Name: "Kim", Job: "teacher", Residence: "Seoul", Age: "30"})))
	require.NoError(t, s.Add(NewParticipantWithID("p2", Personal{Name: "Lee", Age: "41"})))
	require.NoError(t, s.UnifyFromTemplate(FieldJob, FieldResidence))

	second := s.Roster()[1].Personal
	assert.Equal(t, Job("teacher"), second.Job)
	assert.Equal(t, Residence("Seoul"), second.Residence)
	assert.Equal(t, "41", second.Age, "fields not asked for stay put")
	assert.Equal(t, "Lee", second.Name)

	assert.Error(t, s.UnifyFromTemplate(Field("name")))
	assert.ErrorIs(t, NewStore(nil, fixedNow).UnifyFromTemplate(FieldAge), ErrValidation)
}

func TestStoreUnifyRejectsUnknownFieldBeforeEditing(t *testing.T) {
	s := NewStore(nil, fixedNow)
	require.NoError(t, s.Add(NewParticipantWithID("p1", Personal{Name: "Kim", Age: "30", Job: "teacher"})))
	require.NoError(t, s.Add(NewParticipantWithID("p2", Personal{Name: "Lee", Age: "41"})))
	require.NoError(t, s.Add(NewParticipantWithID("p3", Personal{Name: "Park", Age: "52"})))

	require.Error(t, s.UnifyFromTemplate(FieldAge, Field("name"), FieldJob))
	r := s.Roster()
	assert.Equal(t, "41", r[1].Personal.Age)
	assert.Equal(t, "52", r[2].Personal.Age)
	assert.Equal(t, JobUnspecified, r[1].Personal.Job)
}

func TestStoreSelectAgencyOverwritesName(t *testing.T) {
	s := NewStore(NewStaticDirectory(Agency{ID: 7, Name: "ACME"}), fixedNow)
	require.NoError(t, s.SetContext(func(c *OrganizationContext) { c.Agency = "typed by hand" }))
	require.NoError(t, s.SelectAgency(7))
	ctx := s.Context()
	require.NotNil(t, ctx.AgencyID)
	assert.Equal(t, 7, *ctx.AgencyID)
	assert.Equal(t, "ACME", ctx.Agency)
	assert.Equal(t, "7", ctx.AgencyIDString())

	err := s.SelectAgency(99)
	assert.True(t, errors.Is(err, ErrUnknownAgency))
	assert.Equal(t, "ACME", s.Context().Agency)

	*ctx.AgencyID = 100
	assert.Equal(t, 7, *s.Context().AgencyID, "context copies do not alias the store")

	s.ClearAgency()
	assert.Nil(t, s.Context().AgencyID)
	assert.Empty(t, s.Context().Agency)
}

func TestStoreSetContextValidatesDates(t *testing.T) {
	s := NewStore(nil, fixedNow)
	err := s.SetContext(func(c *OrganizationContext) { c.OpenDay = "01/01/2024" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenDay")
	assert.Empty(t, s.Context().OpenDay)

	require.NoError(t, s.SetContext(func(c *OrganizationContext) {
		c.OpenDay = " 2024-01-01 "
		c.Program = "Forest walk"
	}))
	assert.Equal(t, "2024-01-01", s.Context().OpenDay)
	assert.Equal(t, "Forest walk", s.Context().Program)
}

func TestParseEnumsAreLenient(t *testing.T) {
	assert.Equal(t, SexMale, ParseSex(" Male "))
	assert.Equal(t, SexUnspecified, ParseSex("?"))
	assert.Equal(t, Residence("Seoul"), ParseResidence("seoul"))
	assert.Equal(t, ResidenceUnspecified, ParseResidence("Atlantis"))
	assert.Equal(t, Job("teacher"), ParseJob("TEACHER"))
	assert.Equal(t, ParticipationPeriod("day-trip"), ParsePeriod("Day-Trip"))
	assert.Equal(t, ParticipationPeriod(""), ParsePeriod("forever"))
}
