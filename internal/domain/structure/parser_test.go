package structure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	content := strings.Join([]string{
		"REMARK generated for a docking run",
		atomLine("ATOM", 1, "N", "MET", 'A', 1, 38.198, 19.582, 28.998, "  1.00 49.32           N"),
		atomLine("ATOM", 2, "CA", "MET", 'A', 1, 38.562, 20.243, 27.723, "  1.00 49.33           C"),
		"TER",
		atomLine("HETATM", 3, "C1", "UNL", ' ', 1, 10.0, 11.0, 12.0, "  1.00  0.00           C"),
		"END",
	}, "\n")

	res := ParseString(content)
	require.Len(t, res.Lines, 6)
	assert.Empty(t, res.Malformed)

	assert.False(t, res.Lines[0].IsAtom())
	assert.True(t, res.Lines[1].IsAtom())
	assert.True(t, res.Lines[2].IsAtom())
	assert.False(t, res.Lines[3].IsAtom())
	assert.True(t, res.Lines[4].IsAtom())
	assert.False(t, res.Lines[5].IsAtom())

	atoms := res.Atoms()
	require.Len(t, atoms, 3)
	assert.Equal(t, RecordHetatm, atoms[2].Kind)
}

func TestParse_MalformedLineSkipped(t *testing.T) {
	content := strings.Join([]string{
		atomLine("ATOM", 1, "N", "GLY", 'A', 1, 1, 2, 3, ""),
		"ATOM  truncated",
		atomLine("ATOM", 3, "C", "GLY", 'A', 1, 4, 5, 6, ""),
	}, "\n")

	res := ParseString(content)
	assert.Len(t, res.Atoms(), 2)
	require.Len(t, res.Malformed, 1)
	assert.Equal(t, 2, res.Malformed[0].LineNumber)
}

func TestParse_NonAtomLinesKeptVerbatim(t *testing.T) {
	res := ParseString("MODEL        1\nENDMDL\nCONECT    1    2")
	require.Len(t, res.Lines, 3)
	for _, l := range res.Lines {
		assert.False(t, l.IsAtom())
	}
	assert.Equal(t, "MODEL        1", res.Lines[0].Text)
}

func TestParse_EmptyInput(t *testing.T) {
	res := ParseString("")
	assert.Empty(t, res.Lines)
	assert.Empty(t, res.Malformed)
	assert.Empty(t, res.Atoms())
}

func TestHasAtomTag(t *testing.T) {
	assert.True(t, hasAtomTag("ATOM      1"))
	assert.True(t, hasAtomTag("HETATM    1"))
	assert.False(t, hasAtomTag("ATOMIC"))
	assert.False(t, hasAtomTag("TER"))
	assert.False(t, hasAtomTag(""))
}
