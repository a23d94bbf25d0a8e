package structure

import "strings"

// Pose delimiters in a multi-model ligand file.
const (
	poseStartMarker = "MODEL"
	poseEndMarker   = "ENDMDL"
)

// FirstPose returns the atom records of the best-scoring ligand pose.
//
// The docking engine emits poses pre-ranked best-first, so the first
// MODEL..ENDMDL block is the best pose; no per-pose scores are read or
// re-ranked here.  Scanning stops at the first ENDMDL; later models are
// never inspected, and a stray MODEL marker inside the first pose does not
// reset collection.
//
// Files without any MODEL marker are flat single-pose files; for those,
// every ATOM/HETATM record in the file is returned.
func FirstPose(lines []Line) []AtomRecord {
	var atoms []AtomRecord
	inPose := false
	sawMarker := false

	for _, l := range lines {
		if !l.IsAtom() && strings.HasPrefix(l.Text, poseStartMarker) {
			sawMarker = true
			inPose = true
			continue
		}
		if !inPose {
			continue
		}
		if !l.IsAtom() && strings.HasPrefix(l.Text, poseEndMarker) {
			break
		}
		if l.IsAtom() {
			atoms = append(atoms, *l.Atom)
		}
	}

	if sawMarker {
		return atoms
	}

	// Flat file: collect everything.
	for _, l := range lines {
		if l.IsAtom() {
			atoms = append(atoms, *l.Atom)
		}
	}
	return atoms
}
