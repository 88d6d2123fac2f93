package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DawPlus/healing-server-sub000/internal/bridge"
	"github.com/DawPlus/healing-server-sub000/internal/module"
)

func init() {
	color.NoColor = true
}

func TestSummaryListsEveryModule(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &out)
	p.Summary(bridge.Summary{
		Fingerprint: "abc",
		Succeeded:   []module.ID{module.Program},
		Unsupported: []module.ID{module.Vibra},
		Failed:      []bridge.Failure{{ModuleID: module.HRV, Reason: "slot missing"}},
		Deferred:    []module.ID{module.Counsel},
		Deliveries:  4,
	}, []module.ID{module.Program, module.Counsel, module.HRV, module.Vibra})

	text := out.String()
	assert.Contains(t, text, "fingerprint abc")
	assert.Contains(t, text, "program    synced")
	assert.Contains(t, text, "counsel    bus only")
	assert.Contains(t, text, "hrv        failed: slot missing")
	assert.Contains(t, text, "vibra      unsupported")
	assert.Contains(t, text, "1 synced, 1 unsupported, 1 failed, 4 bus deliveries")
}

func TestErrorWritesSuggestions(t *testing.T) {
	var out, errOut bytes.Buffer
	p := New(&out, &errOut)
	err := p.Error("Roster rejected", "participant 2 has no name", "fix the roster", "remove the row")
	require.EqualError(t, err, "Roster rejected")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Either:")
	assert.Contains(t, errOut.String(), "  2. remove the row")
}
