package surveys

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DawPlus/healing-server-sub000/internal/bus"
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

func sample() (roster.Roster, roster.OrganizationContext) {
	id := 7
	r := roster.Roster{
		roster.NewParticipantWithID("p1", roster.Personal{Name: "Kim", Sex: roster.SexMale, Age: "30", Residence: "Seoul", Job: "teacher", ParticipationPeriod: "day-trip"}),
		roster.NewParticipantWithID("p2", roster.Personal{Name: "Lee", Sex: roster.SexFemale, Age: "41"}),
	}
	ctx := roster.OrganizationContext{Agency: "ACME", AgencyID: &id, OpenDay: "2024-01-01", EvalDate: "2024-01-02"}
	return r, ctx
}

// deliver hands rows to f the way the bridge does: through the probed
// operation, then through the bus listener.
func deliver(t *testing.T, f Form, n *fieldmap.Normalizer, r roster.Roster, ctx roster.OrganizationContext) module.Outcome {
	t.Helper()
	id := f.ID()
	rows := n.NormalizeRoster(string(id), r, ctx)
	out := module.Apply(
		module.Entry{ID: id, Handle: f, Capability: module.Probe(f)},
		module.Batch{Rows: rows, RowIDKey: n.Table(string(id)).RowID},
	)
	f.OnBroadcast(bus.Payload{ModuleID: id, Roster: r, NormalizedRows: rows})
	return out
}

func TestCapabilitiesPerModule(t *testing.T) {
	want := map[module.ID]module.Capability{
		module.Program:    module.CapabilityBulkReplace,
		module.Facility:   module.CapabilityPerRowSet,
		module.Prevention: module.CapabilityBulkReplace,
		module.Healing:    module.CapabilityRawAssign,
		module.Counsel:    module.CapabilityPerRowSet,
		module.HRV:        module.CapabilityRawAssign,
		module.Vibra:      module.CapabilityNone,
		module.Gambling:   module.CapabilityBulkReplace,
	}
	for _, id := range module.All() {
		f, err := New(id)
		require.NoError(t, err)
		assert.Equal(t, id, f.ID())
		assert.Equal(t, want[id], module.Probe(f), id)
		if want[id] == module.CapabilityNone {
			assert.Nil(t, Handle(f), "%s mounts bus only", id)
		} else {
			assert.Same(t, f, Handle(f), id)
		}
	}
	_, err := New("unknown")
	require.Error(t, err)
}

func TestRoundTripRecoversPersonalFields(t *testing.T) {
	n, err := fieldmap.NewBuiltin()
	require.NoError(t, err)
	r, ctx := sample()

	forms, err := NewAll(module.All())
	require.NoError(t, err)
	for _, f := range forms {
		t.Run(string(f.ID()), func(t *testing.T) {
			out := deliver(t, f, n, r, ctx)
			if f.ID() == module.Vibra {
				assert.Equal(t, module.OutcomeUnsupported, out.Kind)
			} else {
				assert.Equal(t, module.OutcomeSynced, out.Kind, out.Reason())
			}

			got := f.Participants()
			require.Len(t, got, len(r))
			for i, p := range r {
				assert.Equal(t, p.ID, got[i].ID)
				assert.Equal(t, p.Personal.Name, got[i].Personal.Name)
				assert.Equal(t, p.Personal.Sex, got[i].Personal.Sex)
				assert.Equal(t, p.Personal.Age, got[i].Personal.Age)
			}
			assert.Equal(t, []string{"p1", "p2"}, f.Observed())
		})
	}
}

func TestBulkReplaceIsAllOrNothing(t *testing.T) {
	f, err := New(module.Program)
	require.NoError(t, err)
	bulk := f.(module.BulkReplacer)
	require.True(t, bulk.ReplaceAllRows([]fieldmap.Row{{"id": "p1", "NAME": "Kim"}}))
	assert.False(t, bulk.ReplaceAllRows([]fieldmap.Row{{"id": "p2", "NAME": "Lee"}, {"NAME": "no id"}}))
	rows := f.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Kim", rows[0]["name"])
}

func TestSetRowUpsertsAndPrunes(t *testing.T) {
	f, err := New(module.Counsel)
	require.NoError(t, err)
	setter := f.(module.RowSetter)
	first := []fieldmap.Row{
		{"rowId": "a", "participantName": "Kim"},
		{"rowId": "b", "participantName": "Lee"},
	}
	require.True(t, setter.SetRow("a", first))
	require.True(t, setter.SetRow("b", first))
	assert.Len(t, f.Rows(), 2)

	second := []fieldmap.Row{{"rowId": "b", "participantName": "Lee Jiwoo", "sessionNo": 3}}
	require.True(t, setter.SetRow("b", second))
	rows := f.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Lee Jiwoo", rows[0]["participantName"])
	assert.Equal(t, 3, rows[0]["sessionNo"])

	assert.False(t, setter.SetRow("missing", second))
	assert.False(t, setter.SetRow("", second))
}

func TestRawSlotKeepsRowsVerbatim(t *testing.T) {
	f, err := New(module.HRV)
	require.NoError(t, err)
	slot := f.(module.RowsSlot).RowsSlot()
	*slot = []fieldmap.Row{{"id": "p1", "name": "Kim", "extra": 1}, {"name": "no id"}}

	rows := f.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0]["extra"])
	assert.Len(t, f.Participants(), 1, "undecodable rows are skipped on read")
}

func TestRawSlotSharesTheSheetLock(t *testing.T) {
	f, err := New(module.Healing)
	require.NoError(t, err)
	locker, ok := f.(sync.Locker)
	require.True(t, ok, "raw slot forms guard their slot")
	locker.Lock()
	*f.(module.RowsSlot).RowsSlot() = []fieldmap.Row{{"id": "p1", "name": "Kim"}}
	locker.Unlock()
	assert.Len(t, f.Participants(), 1)
}

func TestOnBroadcastIgnoresOtherModules(t *testing.T) {
	f, err := New(module.Vibra)
	require.NoError(t, err)
	f.OnBroadcast(bus.Payload{
		ModuleID:       module.HRV,
		Roster:         roster.Roster{roster.NewParticipantWithID("p1", roster.Personal{Name: "Kim"})},
		NormalizedRows: []fieldmap.Row{{"id": "p1", "name": "Kim"}},
	})
	assert.Empty(t, f.Observed())
	assert.Empty(t, f.Rows())
}

func TestDefaultsSurviveReverseMapping(t *testing.T) {
	n, err := fieldmap.NewBuiltin()
	require.NoError(t, err)
	r, ctx := sample()
	f, err := New(module.Gambling)
	require.NoError(t, err)
	deliver(t, f, n, r, ctx)
	rows := f.Rows()
	require.NotEmpty(t, rows)
	assert.Equal(t, "none", rows[0]["PAST_GAMBLING_EXPERIENCE"])
	assert.Equal(t, "7", rows[0]["AGENCY_ID"])
}
