package convert

import (
	"bufio"
	"context"
	"io"
	"strings"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// PDBQT atom lines extend the plain format with a partial charge and an
// AutoDock atom type after column 66.  Everything up to column 66 is
// layout-compatible, so conversion truncates there and restores the element
// symbol from the AutoDock type.
const pdbqtPlainWidth = 66

// adElement maps AutoDock atom types to element symbols.  Types absent from
// the table pass through unchanged (metals are already element names).
var adElement = map[string]string{
	"A":  "C",
	"C":  "C",
	"N":  "N",
	"NA": "N",
	"NS": "N",
	"OA": "O",
	"OS": "O",
	"SA": "S",
	"HD": "H",
	"HS": "H",
	"G":  "C",
	"GA": "C",
	"J":  "C",
	"Q":  "C",
}

// bookkeeping records the docking engine adds for torsion-tree handling.
var pdbqtBookkeeping = []string{
	"ROOT",
	"ENDROOT",
	"BRANCH",
	"ENDBRANCH",
	"TORSDOF",
	"REMARK",
}

// PDBQTConverter converts AutoDock PDBQT content into plain structure
// records.  Atom lines are truncated to the shared column layout with the
// element symbol re-derived from the AutoDock atom type; torsion-tree
// bookkeeping records are dropped; TER, MODEL and ENDMDL pass through.
type PDBQTConverter struct{}

// NewPDBQTConverter returns a ready-to-use converter.
func NewPDBQTConverter() *PDBQTConverter {
	return &PDBQTConverter{}
}

// Convert implements Converter.
func (c *PDBQTConverter) Convert(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	bw := bufio.NewWriter(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "conversion cancelled")
		}
		line := scanner.Text()
		out, keep := convertLine(line)
		if !keep {
			continue
		}
		if _, err := bw.WriteString(out + "\n"); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "write converted record")
		}
	}
	if err := scanner.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "read source structure")
	}
	if err := bw.Flush(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "flush converted structure")
	}
	return nil
}

func convertLine(line string) (string, bool) {
	tag := recordTag(line)
	switch tag {
	case "ATOM", "HETATM":
		return convertAtomLine(line), true
	case "TER", "MODEL", "ENDMDL", "END":
		return line, true
	}
	for _, b := range pdbqtBookkeeping {
		if tag == b {
			return "", false
		}
	}
	// Unknown records pass through untouched.
	return line, true
}

func recordTag(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// convertAtomLine truncates the engine columns and appends the element
// symbol right-justified in the standard two-column element field.
func convertAtomLine(line string) string {
	if len(line) <= pdbqtPlainWidth {
		return line
	}
	adType := strings.TrimSpace(line[pdbqtPlainWidth:])
	if i := strings.LastIndexByte(adType, ' '); i >= 0 {
		adType = adType[i+1:]
	}
	elem, ok := adElement[adType]
	if !ok {
		elem = adType
	}
	if len(elem) > 2 {
		elem = elem[:2]
	}
	plain := line[:pdbqtPlainWidth]
	// Columns 67-76 are blank in a plain record; element occupies 77-78.
	pad := strings.Repeat(" ", 76-len(plain))
	if len(elem) == 1 {
		return plain + pad + " " + elem
	}
	return plain + pad + elem
}
