// Package iupac implements the degenerate-base matcher used by the PAM
// scanner (C1). It follows the teacher's approach of precomputing a small
// lookup table once (compare unikmer's bit2base array in kmer.go) rather
// than branching on characters at match time.
package iupac

// expansion lists, for each IUPAC query code, every single canonical or
// degenerate byte it is allowed to match. Ported from the standard IUPAC
// nucleotide table.
var expansion = map[byte]string{
	'A': "A",
	'C': "C",
	'G': "G",
	'T': "T",
	'R': "AGR",
	'Y': "CTY",
	'S': "GCS",
	'W': "ATW",
	'K': "GTK",
	'M': "ACM",
	'B': "CGTB",
	'D': "AGTD",
	'H': "ACTH",
	'V': "ACGV",
	'N': "ACGTRYSWKMBDHVN",
}

// table[query-'A'][candidate-'A'] is true iff candidate matches query.
var table [26][26]bool

func init() {
	for query, candidates := range expansion {
		qi := query - 'A'
		for i := 0; i < len(candidates); i++ {
			ci := candidates[i] - 'A'
			table[qi][ci] = true
		}
	}
}

// Matches reports whether candidate is an acceptable base for the IUPAC
// code query. Exact equality always matches, even outside 'A'..'Z'; beyond
// that, only uppercase-Latin query/candidate pairs consult the expansion
// table.
func Matches(query, candidate byte) bool {
	if query == candidate {
		return true
	}
	if query < 'A' || query > 'Z' || candidate < 'A' || candidate > 'Z' {
		return false
	}
	return table[query-'A'][candidate-'A']
}
