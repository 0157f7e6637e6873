package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llb-tools/llbreduce/internal/xmlframe"
)

const fixture = "../../internal/xmlframe/testdata/two_frames.xml"

func TestInspectPrintsFrames(t *testing.T) {
	run, err := xmlframe.Load(fixture)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printRun(&buf, run))

	out := buf.String()
	assert.Contains(t, out, "wavelength: 2.5")
	assert.Contains(t, out, "frames:     2")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[len(lines)-3], "INDEX"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "1 "))

	assert.NotContains(t, out, "%!")
	assert.Equal(t, "12000", strings.Fields(lines[len(lines)-2])[4])
	assert.Equal(t, "11800", strings.Fields(lines[len(lines)-1])[4])
}

func TestReduceCommandWritesOutputs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	out := filepath.Join(dir, "dspacing.svg")
	csv := filepath.Join(dir, "dspacing.csv")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"reduce", fixture, "--output", out, "--profile-csv", csv, "--log-level", "warn"})
	require.NoError(t, cmd.Execute())

	for _, p := range []string{out, csv} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), p)
	}

	svg, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "two_frames.xml", "plot is titled with the input name")
}

func TestArgumentAndInputFlagConflict(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	cmd.SetArgs([]string{"inspect", fixture, "--input", "other.xml"})
	assert.Error(t, cmd.Execute())
}

func TestEnvironmentFillsInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LLBREDUCE_INPUT", fixture)

	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"inspect"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "frames:     2")
}

func TestFrameIndexOutOfRange(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	cmd.SetArgs([]string{"frame", fixture, "--index", "5", "--output", filepath.Join(t.TempDir(), "f.png")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
