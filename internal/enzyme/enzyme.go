// Package enzyme holds the built-in endonuclease records (Cas9, Mad7).
// Ported from enzyme.rs.
package enzyme

import (
	"strings"

	"github.com/laeblab/crispy/internal/pam"
)

// Enzyme is an immutable endonuclease record.
type Enzyme struct {
	Name      string
	Extension string
	GrnaLen   int
	PAM       pam.PAM

	// Cutsite is the signed offset from the PAM start to the genomic cut
	// position. HasCutsite is false for enzymes (Mad7) where no cut
	// position is known; downstream computations substitute 0 in that case
	// but must still report the Cutsite output column as NA.
	Cutsite    int
	HasCutsite bool
}

// Cas9 is the built-in Cas9 record: 3' NGG PAM, 23-nt gRNA, cut 3bp upstream
// of the PAM.
func Cas9() Enzyme {
	return Enzyme{
		Name:       "Cas9",
		Extension:  ".crispyr_cas9",
		GrnaLen:    23,
		PAM:        pam.NewTail([]byte("NGG")),
		Cutsite:    -3,
		HasCutsite: true,
	}
}

// Mad7 is the built-in Mad7 record: 5' YTTN PAM, 25-nt gRNA, no defined
// cutsite offset.
func Mad7() Enzyme {
	return Enzyme{
		Name:       "Mad7",
		Extension:  ".crispyr_mad7",
		GrnaLen:    25,
		PAM:        pam.NewHead([]byte("YTTN")),
		HasCutsite: false,
	}
}

// Get resolves a case-insensitive enzyme name to its record. The second
// return value is false if the name is not recognized.
func Get(name string) (Enzyme, bool) {
	switch strings.ToLower(name) {
	case "cas9":
		return Cas9(), true
	case "mad7":
		return Mad7(), true
	default:
		return Enzyme{}, false
	}
}

// CutsiteOrZero returns Cutsite if defined, else 0 - the substitution used
// throughout the indexing and query pipelines when the enzyme has no known
// cut position.
func (e Enzyme) CutsiteOrZero() int {
	if e.HasCutsite {
		return e.Cutsite
	}
	return 0
}
