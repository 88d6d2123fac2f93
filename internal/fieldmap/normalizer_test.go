package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

func kim() roster.Participant {
	return roster.NewParticipantWithID("p1", roster.Personal{
		Name:                "Kim",
		Sex:                 roster.SexMale,
		Age:                 "30",
		Residence:           "Seoul",
		Job:                 "teacher",
		ParticipationPeriod: "day-trip",
	})
}

func acme() roster.OrganizationContext {
	id := 7
	return roster.OrganizationContext{Agency: "ACME", AgencyID: &id, OpenDay: "2024-01-01", EvalDate: "2024-01-02"}
}

func builtin(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewBuiltin()
	require.NoError(t, err)
	return n
}

func TestBuiltinTablesCoverEveryModule(t *testing.T) {
	n := builtin(t)
	assert.Equal(t,
		[]string{"counsel", "facility", "gambling", "healing", "hrv", "prevention", "program", "vibra"},
		n.ModuleIDs())
}

func TestNormalizeUpperCaseModule(t *testing.T) {
	row := builtin(t).Normalize("facility", kim(), acme())
	assert.Equal(t, "Kim", row["NAME"])
	assert.Equal(t, "male", row["SEX"])
	assert.Equal(t, "30", row["AGE"])
	assert.Equal(t, "Seoul", row["RESIDENCE"])
	assert.Equal(t, 7, row["AGENCY_ID"])
	assert.Equal(t, "p1", row["idx"])
	assert.Equal(t, false, row["chk"])
	_, hasLower := row["name"]
	assert.False(t, hasLower)
}

func TestNormalizeEmitsEverySpellingAndDefaults(t *testing.T) {
	n := builtin(t)
	row := n.Normalize("gambling", kim(), acme())
	assert.Equal(t, "Kim", row["NAME"])
	assert.Equal(t, "Kim", row["name"])
	assert.Equal(t, "none", row["PAST_GAMBLING_EXPERIENCE"])
	assert.Equal(t, false, row["CHK"])

	row = n.Normalize("prevention", kim(), acme())
	assert.Equal(t, "none", row["past_stress_experience"])
	assert.Equal(t, "day-trip", row["participation_period"])

	row = n.Normalize("counsel", kim(), acme())
	assert.Equal(t, 1, row["sessionNo"])
	assert.Equal(t, "p1", row["rowId"])
	assert.Equal(t, false, row["selected"])
}

func TestNormalizeIsTotalForSparseInput(t *testing.T) {
	n := builtin(t)
	sparse := roster.NewParticipantWithID("p9", roster.Personal{})
	for _, id := range append(n.ModuleIDs(), "not-configured") {
		row := n.Normalize(id, sparse, roster.OrganizationContext{})
		table := n.Table(id)
		assert.Equal(t, "p9", row[table.RowID], id)
		assert.Equal(t, false, row[table.Selected], id)
		for _, spelling := range table.Spellings(KeyAgencyID) {
			assert.Equal(t, "", row[spelling], id)
		}
		for _, spelling := range table.Spellings(KeyOpenDay) {
			assert.Equal(t, "", row[spelling], id)
		}
	}
}

func TestNormalizeUnknownModuleUsesGenericTable(t *testing.T) {
	row := builtin(t).Normalize("unknown", kim(), acme())
	assert.Equal(t, "p1", row["id"])
	assert.Equal(t, "Kim", row["name"])
	assert.Equal(t, "ACME", row["agency"])
	assert.Equal(t, false, row["selected"])

	var nilNormalizer *Normalizer
	assert.Equal(t, "Kim", nilNormalizer.Normalize("x", kim(), acme())["name"])
}

func TestDenormalizeRoundTripsEveryModule(t *testing.T) {
	n := builtin(t)
	p := kim()
	for _, id := range n.ModuleIDs() {
		back := n.Denormalize(id, n.Normalize(id, p, acme()))
		assert.Equal(t, p.ID, back.ID, id)
		assert.Equal(t, p.Personal.Name, back.Personal.Name, id)
		assert.Equal(t, p.Personal.Sex, back.Personal.Sex, id)
		assert.Equal(t, p.Personal.Age, back.Personal.Age, id)
	}
}

func TestNormalizeRosterKeepsOrder(t *testing.T) {
	n := builtin(t)
	second := roster.NewParticipantWithID("p2", roster.Personal{Name: "Lee"})
	rows := n.NormalizeRoster("program", roster.Roster{kim(), second}, acme())
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0].ID("id"))
	assert.Equal(t, "p2", rows[1].ID("id"))
}
