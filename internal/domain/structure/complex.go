package structure

import (
	"bufio"
	"io"
	"strings"
)

// LigandChainID is the reserved chain identifier force-assigned to every
// ligand atom in an assembled complex.  Protein targets conventionally use
// chains A, B, C...; 'L' keeps the ligand visually and programmatically
// separable in downstream viewers.
const LigandChainID byte = 'L'

// ComplexStats summarises one assembled complex.
type ComplexStats struct {
	TargetAtoms int
	LigandAtoms int
}

// TotalAtoms returns the number of atom records emitted.
func (s ComplexStats) TotalAtoms() int { return s.TargetAtoms + s.LigandAtoms }

// AssembleComplex merges the target structure and one selected ligand pose
// into a single well-formed structure file written to w.
//
// Every emitted atom receives a fresh serial number from a strictly
// increasing sequence starting at 1, assigned in emission order (target
// first, then ligand) regardless of the serials in the source files.  Ligand
// atoms have their chain identifier overwritten to LigandChainID; target
// atoms keep theirs.  Terminator lines (TER, END, ENDMDL) found inline in
// the target are dropped; exactly one TER/END pair is written at the end,
// so an empty target and/or pose still yields a syntactically valid file.
func AssembleComplex(w io.Writer, target []Line, pose []AtomRecord) (ComplexStats, error) {
	bw := bufio.NewWriter(w)
	var stats ComplexStats
	serial := 0

	for _, l := range target {
		if l.IsAtom() {
			serial++
			stats.TargetAtoms++
			rec := *l.Atom
			rec.Serial = serial
			if _, err := bw.WriteString(rec.Render() + "\n"); err != nil {
				return stats, err
			}
			continue
		}
		if isTerminator(l.Text) {
			continue
		}
		if _, err := bw.WriteString(l.Text + "\n"); err != nil {
			return stats, err
		}
	}

	for _, rec := range pose {
		serial++
		stats.LigandAtoms++
		rec.Serial = serial
		rec.ChainID = LigandChainID
		if _, err := bw.WriteString(rec.Render() + "\n"); err != nil {
			return stats, err
		}
	}

	if _, err := bw.WriteString("TER\nEND\n"); err != nil {
		return stats, err
	}
	return stats, bw.Flush()
}

// isTerminator reports whether a non-atom line is a structural terminator.
// The END prefix also covers ENDMDL.
func isTerminator(text string) bool {
	return strings.HasPrefix(text, "TER") || strings.HasPrefix(text, "END")
}
