package structure

import (
	"bufio"
	"io"
	"strings"
)

// Line is one classified structure-file line.  Atom is non-nil for
// ATOM/HETATM records; every other line keeps its exact text so unknown
// record types can be re-emitted verbatim.
type Line struct {
	Atom *AtomRecord
	Text string
}

// IsAtom reports whether the line carries a parsed atom record.
func (l Line) IsAtom() bool { return l.Atom != nil }

// ParseResult carries the classified lines of one structure file together
// with the malformed records that were skipped.  Malformed records are a
// routine, recoverable condition and never fail the parse as a whole.
type ParseResult struct {
	Lines     []Line
	Malformed []*MalformedRecordError
}

// Atoms returns the parsed atom records in file order.
func (p *ParseResult) Atoms() []AtomRecord {
	out := make([]AtomRecord, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.IsAtom() {
			out = append(out, *l.Atom)
		}
	}
	return out
}

// Parse reads raw structure-file text and classifies every line.  Lines whose
// first six columns carry an ATOM or HETATM tag are decoded into AtomRecords;
// a tagged line that is too short or garbled is recorded as malformed and
// skipped.  All other lines pass through unparsed.
//
// The only error returned is a read failure from r.
func Parse(r io.Reader) (*ParseResult, error) {
	res := &ParseResult{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !hasAtomTag(line) {
			res.Lines = append(res.Lines, Line{Text: line})
			continue
		}
		rec, malformed := parseAtomRecord(line, lineNo)
		if malformed != nil {
			res.Malformed = append(res.Malformed, malformed)
			continue
		}
		res.Lines = append(res.Lines, Line{Atom: rec, Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseString is a convenience wrapper around Parse for in-memory content.
func ParseString(s string) *ParseResult {
	// strings.Reader never fails.
	res, _ := Parse(strings.NewReader(s))
	return res
}

// hasAtomTag reports whether the first six columns of line equal ATOM or
// HETATM after trimming the fixed-width padding.
func hasAtomTag(line string) bool {
	tag := line
	if len(tag) > colKindEnd {
		tag = tag[:colKindEnd]
	}
	switch strings.TrimSpace(tag) {
	case string(RecordAtom), string(RecordHetatm):
		return true
	}
	return false
}
