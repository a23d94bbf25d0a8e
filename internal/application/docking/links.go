package docking

import (
	"net/url"
	"path"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// StructureKind selects which artifact of a docking result is addressed.
type StructureKind string

const (
	KindLigand  StructureKind = "ligand"
	KindComplex StructureKind = "complex"
)

// ParseStructureKind validates a caller-supplied kind string.
func ParseStructureKind(s string) (StructureKind, error) {
	switch StructureKind(s) {
	case KindLigand:
		return KindLigand, nil
	case KindComplex:
		return KindComplex, nil
	}
	return "", apperrors.New(apperrors.ErrCodeInvalidStructureType,
		"unknown structure type "+s).WithDetail("valid types: ligand, complex")
}

// resultsPrefix is the store prefix under which all docking artifacts live,
// one directory per target.
const resultsPrefix = "docking_results"

// ArtifactPath returns the store path of one artifact.  It is a pure
// function of its inputs: the same target, molecule and kind always address
// the same path, so links can be re-derived at any time without persisted
// link state.
func ArtifactPath(targetName, moleculeID string, kind StructureKind) string {
	name := moleculeID + ".pdb"
	if kind == KindComplex {
		name = moleculeID + "_complex.pdb"
	}
	return path.Join(resultsPrefix, targetName, name)
}

// ResultLinks are the externally served viewer URLs of one docking result.
type ResultLinks struct {
	Ligand  string `json:"ligand"`
	Complex string `json:"complex"`
}

// LinkBuilder derives viewer URLs from a base endpoint.  Building is pure:
// no I/O and no randomness.
type LinkBuilder struct {
	baseURL string
}

// NewLinkBuilder returns a builder serving links under baseURL.
func NewLinkBuilder(baseURL string) *LinkBuilder {
	return &LinkBuilder{baseURL: baseURL}
}

// Link returns the viewer URL for one artifact.
func (b *LinkBuilder) Link(targetName, moleculeID string, kind StructureKind) string {
	q := url.Values{}
	q.Set("structure_type", string(kind))
	q.Set("target", targetName)
	q.Set("molecule_id", moleculeID)
	return b.baseURL + "?" + q.Encode()
}

// BuildResultLinks returns the viewer URLs for both artifacts of a result.
func (b *LinkBuilder) BuildResultLinks(targetName, moleculeID string) ResultLinks {
	return ResultLinks{
		Ligand:  b.Link(targetName, moleculeID, KindLigand),
		Complex: b.Link(targetName, moleculeID, KindComplex),
	}
}
