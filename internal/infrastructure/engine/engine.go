// Package engine invokes the external docking engine and normalises its
// outcome into a score plus the path of the raw docked-ligand structure.
package engine

import "context"

// Result is one completed docking run.
type Result struct {
	// Score is the best-mode binding affinity in kcal/mol; lower is better.
	Score float64
	// RawLigandPath is the store path where the engine wrote the docked
	// multi-pose ligand structure.  The write may not be visible to other
	// processes yet when Dock returns.
	RawLigandPath string
}

// Engine runs one docking job.  Implementations return a typed error when
// the engine produced no score, exceeded its wall-clock budget, or could not
// be started.
type Engine interface {
	Dock(ctx context.Context, smiles, targetName string) (*Result, error)
}
