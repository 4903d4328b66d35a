package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLibrary saves the inverse and reversal of circ and the reversal of
// measured into a fresh library and returns its path.
func seedLibrary(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "library.db")
	runs := [][]string{
		{"invert", "circ"},
		{"reverse", "circ"},
		{"reverse", "measured"},
	}
	for _, run := range runs {
		cmdOpts := testOptions(t, "text")
		cmd := NewInvertCommand(cmdOpts)
		if run[0] == "reverse" {
			cmd = NewReverseCommand(cmdOpts)
		}
		_, err := execute(cmd, commandsScenario, run[1], "--save", "--db", db)
		require.NoError(t, err, "%v", run)
	}
	return db
}

func TestLibraryListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	out, err := execute(NewLibraryCommand(testOptions(t, "text")), "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No operations stored.")
}

func TestLibraryList(t *testing.T) {
	db := seedLibrary(t)

	out, err := execute(NewLibraryCommand(testOptions(t, "text")), "list", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "circ_dg")
	assert.Contains(t, lines[1], "circ_reverse")
	assert.Contains(t, lines[2], "measured_reverse")
	assert.Contains(t, lines[2], "q=1 c=1")
}

func TestLibraryListJSONByName(t *testing.T) {
	db := seedLibrary(t)

	out, err := execute(NewLibraryCommand(testOptions(t, "json")), "list", "--db", db, "--name", "measured_reverse")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []LibraryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "measured_reverse", resp.Data[0].Name)
	assert.Equal(t, "instruction", resp.Data[0].Kind)
	assert.Equal(t, int64(3), resp.Data[0].Seq)
}

func TestLibraryShow(t *testing.T) {
	db := seedLibrary(t)

	out, err := execute(NewLibraryCommand(testOptions(t, "json")), "list", "--db", db, "--name", "circ_dg")
	require.NoError(t, err)
	var listed struct {
		Data []LibraryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Data, 1)
	fingerprint := listed.Data[0].Fingerprint

	out, err = execute(NewLibraryCommand(testOptions(t, "text")), "show", "--db", db, fingerprint)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], `Operation(name="circ_dg"`), lines[0])
	assert.Contains(t, lines[1], `Operation(name="crz"`)

	out, err = execute(NewLibraryCommand(testOptions(t, "json")), "show", "--db", db, fingerprint)
	require.NoError(t, err)
	var shown struct {
		Data InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "circ_dg", shown.Data.Name)
	assert.Equal(t, fingerprint, shown.Data.Fingerprint)
}

func TestLibraryShowUnknown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")
	out, err := execute(NewLibraryCommand(testOptions(t, "text")), "show", "--db", db, "deadbeef")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no operation with fingerprint deadbeef")
}
