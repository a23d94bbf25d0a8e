package structure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetFixture(atomCount int) string {
	lines := []string{"REMARK target receptor"}
	for i := 0; i < atomCount; i++ {
		chain := byte('A')
		if i >= atomCount/2 {
			chain = 'B'
		}
		lines = append(lines, atomLine("ATOM", i+1, "CA", "GLY", chain, i+1,
			float64(i), float64(i), float64(i), "  1.00 20.00           C"))
	}
	lines = append(lines, "TER", "END")
	return strings.Join(lines, "\n")
}

func TestAssembleComplex(t *testing.T) {
	target := ParseString(targetFixture(10)).Lines
	poseFile := poseFixture(
		fixtureAtoms([]string{"C1", "C2", "C3", "C4", "C5"}, 1),
		fixtureAtoms([]string{"N1", "N2", "N3", "N4", "N5"}, 6),
	)
	pose := FirstPose(ParseString(poseFile).Lines)
	require.Len(t, pose, 5)

	var buf strings.Builder
	stats, err := AssembleComplex(&buf, target, pose)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TargetAtoms)
	assert.Equal(t, 5, stats.LigandAtoms)
	assert.Equal(t, 15, stats.TotalAtoms())

	res := ParseString(buf.String())
	assert.Empty(t, res.Malformed)
	atoms := res.Atoms()
	require.Len(t, atoms, 15)

	// Serials are a fresh 1..N sequence in emission order.
	for i, a := range atoms {
		assert.Equal(t, i+1, a.Serial)
	}
	// Target chains untouched, every ligand atom forced onto chain L.
	for _, a := range atoms[:10] {
		assert.Contains(t, []byte{'A', 'B'}, a.ChainID)
	}
	for _, a := range atoms[10:] {
		assert.Equal(t, LigandChainID, a.ChainID)
	}
}

func TestAssembleComplex_DropsInlineTerminators(t *testing.T) {
	target := ParseString(strings.Join([]string{
		atomLine("ATOM", 1, "CA", "GLY", 'A', 1, 0, 0, 0, ""),
		"TER",
		atomLine("ATOM", 2, "CA", "ALA", 'B', 1, 1, 1, 1, ""),
		"END",
	}, "\n")).Lines

	var buf strings.Builder
	_, err := AssembleComplex(&buf, target, nil)
	require.NoError(t, err)

	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, out, 4)
	assert.True(t, strings.HasPrefix(out[0], "ATOM"))
	assert.True(t, strings.HasPrefix(out[1], "ATOM"))
	assert.Equal(t, "TER", out[2])
	assert.Equal(t, "END", out[3])
}

func TestAssembleComplex_PassesThroughAnnotations(t *testing.T) {
	target := ParseString(strings.Join([]string{
		"HEADER    docking target",
		"REMARK   2 prepared with reduce",
		atomLine("ATOM", 1, "CA", "GLY", 'A', 1, 0, 0, 0, ""),
	}, "\n")).Lines

	var buf strings.Builder
	_, err := AssembleComplex(&buf, target, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "HEADER    docking target\n")
	assert.Contains(t, out, "REMARK   2 prepared with reduce\n")
}

func TestAssembleComplex_EmptyInputsStillValid(t *testing.T) {
	var buf strings.Builder
	stats, err := AssembleComplex(&buf, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalAtoms())
	assert.Equal(t, "TER\nEND\n", buf.String())
}

func TestAssembleComplex_SourceSerialsIgnored(t *testing.T) {
	target := ParseString(strings.Join([]string{
		atomLine("ATOM", 500, "CA", "GLY", 'A', 1, 0, 0, 0, ""),
		atomLine("ATOM", 73, "CB", "GLY", 'A', 1, 1, 1, 1, ""),
	}, "\n")).Lines
	pose := []AtomRecord{*mustAtom(t, atomLine("HETATM", 9999, "C1", "UNL", 'X', 1, 2, 2, 2, ""))}

	var buf strings.Builder
	_, err := AssembleComplex(&buf, target, pose)
	require.NoError(t, err)

	atoms := ParseString(buf.String()).Atoms()
	require.Len(t, atoms, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{atoms[0].Serial, atoms[1].Serial, atoms[2].Serial})
	assert.Equal(t, LigandChainID, atoms[2].ChainID)
}

func mustAtom(t *testing.T, line string) *AtomRecord {
	t.Helper()
	rec, malformed := parseAtomRecord(line, 1)
	require.Nil(t, malformed)
	return rec
}
