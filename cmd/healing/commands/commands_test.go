package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DawPlus/healing-server-sub000/internal/module"
)

func init() {
	color.NoColor = true
}

const rosterFile = `
context:
  agency: ACME
  agency_id: 7
  open_day: "2024-01-01"
  eval_date: "2024-01-02"
participants:
  - id: p1
    personal:
      name: Kim
      sex: male
      age: "30"
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestApplyRosterMountsEverySurvey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "roster.yaml", rosterFile)
	var out, errOut bytes.Buffer

	summary, err := applyRoster(dir, path, false, &out, &errOut)
	require.NoError(t, err, errOut.String())
	assert.Len(t, summary.Succeeded, len(module.All())-1)
	assert.Empty(t, summary.Unsupported)
	assert.Equal(t, []module.ID{module.Vibra}, summary.Deferred)
	assert.Contains(t, out.String(), "vibra      bus only")
	assert.FileExists(t, filepath.Join(dir, ".healing", "logs", "healing.log"))
	assert.FileExists(t, filepath.Join(dir, ".healing", "logs", "journal.log"))

	_, err = applyRoster(dir, path, true, &out, &errOut)
	require.NoError(t, err, "a bus-only module does not fail strict mode")
}

func TestApplyRosterRejectsBlankNames(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "roster.yaml", "participants:\n  - id: p1\n    personal:\n      name: \"  \"\n")
	var out, errOut bytes.Buffer

	_, err := applyRoster(dir, path, false, &out, &errOut)
	require.EqualError(t, err, "Roster rejected")
	assert.Contains(t, errOut.String(), "give every participant a name")
}

func TestApplyRosterMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	_, err := applyRoster(t.TempDir(), "nope.yaml", false, &out, &errOut)
	require.EqualError(t, err, "Roster file unreadable")
}

func TestFieldsCommandPrintsOneModule(t *testing.T) {
	dir := t.TempDir()
	projectDir = dir
	t.Cleanup(func() { projectDir = "" })
	var out bytes.Buffer
	fieldsCmd.SetOut(&out)
	fieldsCmd.SetErr(&out)

	require.NoError(t, fieldsCmd.RunE(fieldsCmd, []string{"counsel"}))
	assert.Contains(t, out.String(), "counsel:")
	assert.Contains(t, out.String(), "participantName")
	assert.NotContains(t, out.String(), "gambling:")

	require.Error(t, fieldsCmd.RunE(fieldsCmd, []string{"astrology"}))
}
