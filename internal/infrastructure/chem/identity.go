// Package chem derives canonical chemical identifiers used as artifact
// storage keys.  Identical molecules must always map to the same identifier
// so repeated docking runs collide onto one artifact per target.
package chem

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// IdentityService maps a ligand descriptor to a stable identifier.
type IdentityService interface {
	// MoleculeID returns the canonical identifier for smiles.  The result
	// is a pure function of the molecule, never of the request.
	MoleculeID(smiles string) (string, error)
}

// validSMILESChars is the allowed character set for SMILES notation.  This
// is a simplified check; full SMILES validation requires a parser.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#/\\%.*]+$`)

// HashIdentityService derives an InChIKey-shaped identifier from a SHA-256
// digest of the normalised SMILES.  Real InChIKey generation requires the
// InChI library; the hash keeps the same shape and the same collision
// property (identical input, identical key) without the native dependency.
type HashIdentityService struct{}

// NewHashIdentityService returns the default identity service.
func NewHashIdentityService() *HashIdentityService {
	return &HashIdentityService{}
}

// MoleculeID implements IdentityService.
func (s *HashIdentityService) MoleculeID(smiles string) (string, error) {
	normalised, err := NormaliseSMILES(smiles)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(normalised))
	hexStr := strings.ToUpper(hex.EncodeToString(sum[:]))
	return hexStr[:14] + "-" + hexStr[14:24] + "-" + hexStr[24:25], nil
}

// NormaliseSMILES trims and validates a SMILES string.  Case is preserved:
// lowercase atoms denote aromaticity and must not fold onto their aliphatic
// counterparts.
func NormaliseSMILES(smiles string) (string, error) {
	smiles = strings.TrimSpace(smiles)
	if smiles == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidSMILES, "SMILES string cannot be empty")
	}
	if !validSMILESChars.MatchString(smiles) {
		return "", apperrors.New(apperrors.ErrCodeInvalidSMILES, "SMILES contains invalid characters").
			WithDetail("smiles=" + smiles)
	}
	if err := validateBrackets(smiles); err != nil {
		return "", err
	}
	return smiles, nil
}

// validateBrackets checks that all brackets in the SMILES string are
// balanced and properly nested.
func validateBrackets(smiles string) error {
	var stack []rune
	closers := map[rune]rune{
		')': '(',
		']': '[',
	}

	for _, ch := range smiles {
		switch ch {
		case '(', '[':
			stack = append(stack, ch)
		case ')', ']':
			if len(stack) == 0 || stack[len(stack)-1] != closers[ch] {
				return apperrors.New(apperrors.ErrCodeInvalidSMILES, "unbalanced brackets in SMILES").
					WithDetail("smiles=" + smiles)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return apperrors.New(apperrors.ErrCodeInvalidSMILES, "unclosed bracket in SMILES").
			WithDetail("smiles=" + smiles)
	}
	return nil
}
