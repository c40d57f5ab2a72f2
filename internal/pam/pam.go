// Package pam implements the PAM matcher (C3): recognizing an IUPAC
// degenerate motif at either end of a sliding window and extracting the
// k-mer adjacent to it. Ported from the original PAM struct in pam.rs,
// generalized from unikmer's fixed-window codec usage into the Head/Tail
// variant described in spec.md §4.3.
package pam

import (
	"github.com/laeblab/crispy/internal/iupac"
	"github.com/laeblab/crispy/internal/kmer"
)

// Side is which end of the window the PAM motif occupies.
type Side int

const (
	// Head means the motif precedes the k-mer (5' PAM, e.g. Mad7's YTTN).
	Head Side = iota
	// Tail means the motif follows the k-mer (3' PAM, e.g. Cas9's NGG).
	Tail
)

// PAM is an IUPAC motif anchored to one side of a gRNA window.
type PAM struct {
	motif []byte
	side  Side
}

// NewHead builds a Head-anchored PAM from an IUPAC motif.
func NewHead(motif []byte) PAM {
	return PAM{motif: append([]byte(nil), motif...), side: Head}
}

// NewTail builds a Tail-anchored PAM from an IUPAC motif.
func NewTail(motif []byte) PAM {
	return PAM{motif: append([]byte(nil), motif...), side: Tail}
}

// Side reports which end of the window the motif occupies.
func (p PAM) Side() Side { return p.side }

// IsHead reports whether the motif is anchored to the head (5') of the window.
func (p PAM) IsHead() bool { return p.side == Head }

// Len returns the motif length.
func (p PAM) Len() int { return len(p.motif) }

// String renders the motif bytes.
func (p PAM) String() string { return string(p.motif) }

// Matches reports whether the PAM motif is present at its anchored side of
// window. For Tail, comparison walks from the right so a too-short window
// is rejected before any byte comparison is attempted.
func (p PAM) Matches(window []byte) bool {
	if len(window) < p.Len() {
		return false
	}
	switch p.side {
	case Head:
		for i, q := range p.motif {
			if !iupac.Matches(q, window[i]) {
				return false
			}
		}
		return true
	default: // Tail
		n := len(window)
		m := len(p.motif)
		for i := 0; i < m; i++ {
			q := p.motif[m-1-i]
			c := window[n-1-i]
			if !iupac.Matches(q, c) {
				return false
			}
		}
		return true
	}
}

// KmerSlice returns the fixed K-length window segment adjacent to the PAM,
// on the side opposite the PAM. The caller must ensure len(window) >=
// Len()+kmer.K.
func (p PAM) KmerSlice(window []byte) []byte {
	switch p.side {
	case Head:
		return window[p.Len() : p.Len()+kmer.K]
	default: // Tail
		end := len(window) - p.Len()
		return window[end-kmer.K : end]
	}
}

// Kmer inspects window and, if it is long enough, the PAM matches, and the
// adjacent k-mer segment is encodable, returns the offset of the first PAM
// byte within the window and the encoded k-mer. Otherwise it returns
// ok=false.
func (p PAM) Kmer(window []byte) (pamPos int, code uint32, ok bool) {
	if len(window) < p.Len()+kmer.K || !p.Matches(window) {
		return 0, 0, false
	}

	slice := p.KmerSlice(window)
	code, err := kmer.Encode(slice)
	if err != nil {
		return 0, 0, false
	}

	if p.side == Head {
		return 0, code, true
	}
	return len(window) - p.Len(), code, true
}
