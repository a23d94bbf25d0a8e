// Package structure implements the PDB-style structure-record model used by
// the docking result-assembly pipeline: a fixed-column codec for ATOM/HETATM
// records, best-pose selection over multi-model ligand files, and assembly of
// a renumbered protein–ligand complex.
//
// The format is fixed-width and position-addressed.  The codec in this file
// owns the column-offset contract: parsing splits a record line into typed
// fields plus verbatim column segments, and rendering rewrites only the two
// fields this system is allowed to change (serial number, chain identifier)
// without shifting the length or alignment of anything else.
package structure

import (
	"fmt"
	"strconv"
	"strings"
)

// RecordKind classifies a structure-file line.
type RecordKind string

const (
	// RecordAtom marks a standard atom record.
	RecordAtom RecordKind = "ATOM"
	// RecordHetatm marks a hetero-atom record (ligands, waters, ions).
	RecordHetatm RecordKind = "HETATM"
	// RecordOther marks any line that is not an atom record; such lines are
	// passed through verbatim because unknown record types must be
	// reproducible unchanged if re-emitted.
	RecordOther RecordKind = "other"
)

// Fixed column offsets (0-based, exclusive end) per the PDB convention.
// Columns are 1-based in the format specification; these constants are the
// Go slice bounds for each field.
const (
	colKindEnd    = 6  // record name, columns 1-6
	colSerialEnd  = 11 // serial number, columns 7-11
	colChainStart = 21 // chain identifier, column 22
	colChainEnd   = 22
	colCoordStart = 30 // x/y/z block, columns 31-54
	colCoordEnd   = 54

	// minRecordWidth is the shortest line that still carries serial, name,
	// chain, and the full coordinate block.  Trailing optional columns
	// (occupancy, temperature factor, element) may be absent.
	minRecordWidth = colCoordEnd
)

// AtomRecord is one physical atom as it appears in a structure-file line.
//
// Typed fields are parsed for consumers; the verbatim column segments (mid1,
// mid2, coords, tail) preserve everything this system does not own so that a
// re-rendered line differs from its source only in the serial and chain
// columns.
type AtomRecord struct {
	Kind       RecordKind
	Serial     int
	Name       string // atom name, trimmed
	Residue    string // residue name, trimmed
	ChainID    byte
	ResidueSeq int
	X, Y, Z    float64

	kindCols string // columns 1-6 verbatim ("ATOM  ", "HETATM")
	mid1     string // columns 12-21 verbatim (atom name, altLoc, residue name)
	mid2     string // columns 23-30 verbatim (residue seq, insertion code)
	coords   string // columns 31-54 verbatim
	tail     string // columns 55+ verbatim (occupancy, temp factor, element)
}

// MalformedRecordError describes a line that carried an ATOM/HETATM tag but
// was too short or too garbled to contain the required fields.  It is a
// recoverable, per-line condition: the parser skips the line and reports it.
type MalformedRecordError struct {
	LineNumber int
	Text       string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("structure: malformed record at line %d (%s): %q",
		e.LineNumber, e.Reason, e.Text)
}

// parseAtomRecord decodes a single ATOM/HETATM line.  The caller has already
// established that columns 1-6 carry an atom tag.
func parseAtomRecord(line string, lineNo int) (*AtomRecord, *MalformedRecordError) {
	if len(line) < minRecordWidth {
		return nil, &MalformedRecordError{
			LineNumber: lineNo,
			Text:       line,
			Reason:     "shorter than coordinate block",
		}
	}

	serial, err := strconv.Atoi(strings.TrimSpace(line[colKindEnd:colSerialEnd]))
	if err != nil {
		return nil, &MalformedRecordError{
			LineNumber: lineNo,
			Text:       line,
			Reason:     "unparsable serial number",
		}
	}

	x, errX := parseCoord(line[30:38])
	y, errY := parseCoord(line[38:46])
	z, errZ := parseCoord(line[46:54])
	if errX != nil || errY != nil || errZ != nil {
		return nil, &MalformedRecordError{
			LineNumber: lineNo,
			Text:       line,
			Reason:     "unparsable coordinates",
		}
	}

	rec := &AtomRecord{
		Kind:     RecordKind(strings.TrimSpace(line[:colKindEnd])),
		Serial:   serial,
		Name:     strings.TrimSpace(line[12:16]),
		Residue:  strings.TrimSpace(line[17:20]),
		ChainID:  line[colChainStart],
		X:        x,
		Y:        y,
		Z:        z,
		kindCols: line[:colKindEnd],
		mid1:     line[colSerialEnd:colChainStart],
		mid2:     line[colChainEnd:colCoordStart],
		coords:   line[colCoordStart:colCoordEnd],
		tail:     line[colCoordEnd:],
	}
	// The residue sequence number is outside the minimum contract; tolerate
	// non-numeric content by leaving it zero.
	if n, err := strconv.Atoi(strings.TrimSpace(line[22:26])); err == nil {
		rec.ResidueSeq = n
	}
	return rec, nil
}

func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Render re-encodes the record as a fixed-width structure-file line.  Only
// the serial and chain columns are rebuilt from the typed fields; every
// other column range is emitted verbatim from the source line, so the output
// is byte-identical to the input except where Serial or ChainID changed.
func (r *AtomRecord) Render() string {
	var sb strings.Builder
	sb.Grow(minRecordWidth + len(r.tail))
	sb.WriteString(r.kindCols)
	fmt.Fprintf(&sb, "%5d", r.Serial)
	sb.WriteString(r.mid1)
	sb.WriteByte(r.ChainID)
	sb.WriteString(r.mid2)
	sb.WriteString(r.coords)
	sb.WriteString(r.tail)
	return sb.String()
}

// IsHetero reports whether the record is a hetero-atom.
func (r *AtomRecord) IsHetero() bool {
	return r.Kind == RecordHetatm
}
