package pipeline

import (
	"bytes"
	"io"
	"runtime"
	"strconv"
	"sync"

	farm "github.com/dgryski/go-farm"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/twotwotwo/sorts"

	"github.com/laeblab/crispy/internal/enzyme"
	"github.com/laeblab/crispy/internal/ioutil"
	"github.com/laeblab/crispy/internal/kindex"
	"github.com/laeblab/crispy/internal/progress"
)

// ScoreRows reads rows from in, treating the first column of each as a
// candidate gRNA sequence, and appends a Score column computed from index.
// Row 0 is treated as a header: if its first column does not itself decode
// to a valid PAM-adjacent k-mer, "Score" is appended rather than "NA". Rows
// run across a teacher-style buffered-channel worker pool, but are emitted
// in input order. Grounded on original_source's commands/score.rs build_row.
func ScoreRows(idx *kindex.Index, rows func(func(ioutil.TableRow) error) error, emit func([]string) error, threads int, obs progress.Observer) error {
	if obs == nil {
		obs = progress.Noop{}
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	var all []ioutil.TableRow
	if err := rows(func(r ioutil.TableRow) error {
		all = append(all, r)
		return nil
	}); err != nil {
		return err
	}

	results := make([][]string, len(all))
	token := make(chan int, threads)
	var wg sync.WaitGroup
	for i, row := range all {
		wg.Add(1)
		token <- 1
		go func(i int, row ioutil.TableRow) {
			defer func() {
				wg.Done()
				<-token
			}()
			results[i] = scoreRow(idx, row)
			obs.Inc(1)
		}(i, row)
	}
	wg.Wait()
	obs.Finish()

	for _, cols := range results {
		if err := emit(cols); err != nil {
			return err
		}
	}
	return nil
}

func scoreRow(idx *kindex.Index, row ioutil.TableRow) []string {
	out := append([]string(nil), row.Columns...)
	if len(row.Columns) == 0 {
		return append(out, "NA")
	}

	value := upper([]byte(row.Columns[0]))
	if _, code, ok := idx.Enzyme.PAM.Kmer(value); ok {
		return append(out, strconv.FormatUint(idx.Score(code), 10))
	}

	if row.Index == 0 {
		return append(out, "Score")
	}
	return append(out, "NA")
}

// TargetSite is one candidate gRNA site discovered by FindTargets, ready for
// tab-separated rendering.
type TargetSite struct {
	Start    int
	End      int
	Cutsite  int
	HasCut   bool
	Forward  bool
	Sequence []byte
	Score    uint64
}

type targetSitesByCutsite struct {
	sites []TargetSite
	less  func(a, b TargetSite) bool
}

func (s targetSitesByCutsite) Len() int      { return len(s.sites) }
func (s targetSitesByCutsite) Swap(i, j int) { s.sites[i], s.sites[j] = s.sites[j], s.sites[i] }
func (s targetSitesByCutsite) Less(i, j int) bool {
	return s.less(s.sites[i], s.sites[j])
}

// FindTargets slides grna_len windows across sequence (both strands) and
// returns every PAM-matching site, sorted ascending by cut-site, ties broken
// by start then strand to keep the ordering deterministic. Unlike the
// indexing pipeline, which slides |PAM|+K windows to extract just the
// adjacent k-mer, find slides full grna_len windows so the displayed
// sequence is the whole candidate gRNA. Grounded on original_source's
// commands/find.rs collect_forward_targets/collect_reverse_targets.
func FindTargets(idx *kindex.Index, sequence []byte) []TargetSite {
	sequence = upper(sequence)
	sites := findForward(idx, sequence)
	sites = append(sites, findReverse(idx, sequence)...)

	wrapped := targetSitesByCutsite{sites: sites, less: func(a, b TargetSite) bool {
		if a.HasCut != b.HasCut {
			// Mirrors Rust's Option<isize> ordering (None < Some(_)): NA
			// cutsites (Mad7) sort before any known cutsite.
			return !a.HasCut
		}
		if a.HasCut && a.Cutsite != b.Cutsite {
			return a.Cutsite < b.Cutsite
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Forward && !b.Forward
	}}
	sorts.Quicksort(wrapped)
	return sites
}

func findForward(idx *kindex.Index, sequence []byte) []TargetSite {
	e := idx.Enzyme
	grnaLen := e.GrnaLen
	if len(sequence) < grnaLen {
		return nil
	}

	var sites []TargetSite
	for i := 0; i+grnaLen <= len(sequence); i++ {
		window := sequence[i : i+grnaLen]
		pamPos, code, ok := e.PAM.Kmer(window)
		if !ok {
			continue
		}
		site := TargetSite{
			Start:    i,
			End:      i + grnaLen,
			Forward:  true,
			Sequence: append([]byte(nil), window...),
			Score:    idx.Score(code),
		}
		if e.HasCutsite {
			site.HasCut = true
			site.Cutsite = i + pamPos + e.Cutsite
		}
		sites = append(sites, site)
	}
	return sites
}

func findReverse(idx *kindex.Index, sequence []byte) []TargetSite {
	rc := revcomp(sequence)
	sites := findForward(idx, rc)
	n := len(rc)
	for i := range sites {
		start := n - sites[i].End
		end := n - sites[i].Start
		sites[i].Start = start
		sites[i].End = end
		if sites[i].HasCut {
			sites[i].Cutsite = n - sites[i].Cutsite
		}
		sites[i].Forward = false
	}
	return sites
}

// RenderTargetRow formats one TargetSite as the tab-separated output row
// used by the find query pipeline, lowercasing the PAM portion of the
// displayed sequence, per original_source's pam_offset convention.
func RenderTargetRow(e enzyme.Enzyme, contig string, site TargetSite) []string {
	seq := append([]byte(nil), site.Sequence...)
	pamOffset := 0
	if !e.PAM.IsHead() {
		pamOffset = e.GrnaLen - e.PAM.Len()
	}
	for i := pamOffset; i < pamOffset+e.PAM.Len() && i < len(seq); i++ {
		if seq[i] >= 'A' && seq[i] <= 'Z' {
			seq[i] += 'a' - 'A'
		}
	}

	strand := "+"
	if !site.Forward {
		strand = "-"
	}
	cutsite := "NA"
	if site.HasCut {
		cutsite = strconv.Itoa(site.Cutsite + 1)
	}

	return []string{
		string(seq),
		contig,
		strconv.Itoa(site.Start + 1),
		strconv.Itoa(site.End),
		cutsite,
		strand,
		strconv.FormatUint(site.Score, 10),
	}
}

// FindTargetsInFasta streams every record of fastaPath through FindTargets
// and invokes emit for every resulting row, in file order.
func FindTargetsInFasta(idx *kindex.Index, fastaPath string, emit func([]string) error, obs progress.Observer) error {
	if obs == nil {
		obs = progress.Noop{}
	}
	reader, err := fastx.NewDefaultReader(fastaPath)
	if err != nil {
		return err
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		sites := FindTargets(idx, record.Seq.Seq)
		for _, site := range sites {
			if err := emit(RenderTargetRow(idx.Enzyme, string(record.ID), site)); err != nil {
				return err
			}
			obs.Inc(1)
		}
	}
	obs.Finish()
	return nil
}

// OffTargetRow is one rendered row of the offtargets query pipeline.
type OffTargetRow struct {
	Query    string
	Offtarget string
	Contig   string
	Start    int64
	End      int64
	Cutsite  string
	Strand   byte
	Score    uint64
}

// OffTargetsForQuery resolves a single query gRNA sequence into its scored
// genomic hits, applying the strand-dependent offset_start/offset_end
// conversion from the PAM anchoring, per original_source's
// commands/offtargets.rs write_off_targets. ok is false if query is not
// long enough or does not carry a valid PAM. When fasta is non-nil the
// actual off-target genomic sequence is fetched (and reverse-complemented
// for minus-strand hits) into the Offtarget column; otherwise that column
// is "NA".
func OffTargetsForQuery(idx *kindex.Index, query string, minScore uint64, fasta *ioutil.RandomAccessFasta) (rows []OffTargetRow, ok bool, err error) {
	e := idx.Enzyme
	value := upper([]byte(query))

	_, code, matched := e.PAM.Kmer(value)
	if !matched {
		return nil, false, nil
	}

	grnaLen := int64(e.GrnaLen)
	pamLen := int64(e.PAM.Len())
	cutsite := int64(e.CutsiteOrZero())

	var offsetStart, offsetEnd int64
	if e.PAM.IsHead() {
		offsetStart = 1 - cutsite
		offsetEnd = grnaLen - cutsite
	} else {
		offsetStart = -cutsite - grnaLen + pamLen + 1
		offsetEnd = pamLen - cutsite
	}

	hits, err := idx.OffTargets(code, minScore)
	if err != nil {
		return nil, true, err
	}

	for _, hit := range hits {
		hStart, hEnd := offsetStart, offsetEnd
		if hit.Position.Strand() != '+' {
			hStart, hEnd = 1-offsetEnd, 1-offsetStart
		}

		cutsiteCol := "NA"
		if e.HasCutsite {
			cutsiteCol = strconv.FormatInt(int64(hit.Position.Pos)+1, 10)
		}

		contig := ""
		if int(hit.Position.Refseq) < len(idx.Refseqs) {
			contig = idx.Refseqs[hit.Position.Refseq]
		}

		start := int64(hit.Position.Pos) + hStart
		end := int64(hit.Position.Pos) + hEnd

		offtarget := "NA"
		if fasta != nil && contig != "" {
			seq := fasta.Fetch(contig, int(start), int(end))
			if hit.Position.Strand() != '+' {
				seq = revcomp(seq)
			}
			offtarget = string(seq)
		}

		rows = append(rows, OffTargetRow{
			Query:     query,
			Offtarget: offtarget,
			Contig:    contig,
			Start:     start,
			End:       end,
			Cutsite:   cutsiteCol,
			Strand:    hit.Position.Strand(),
			Score:     hit.Score,
		})
	}
	return rows, true, nil
}

// OffTargetsForQueries dedupes rows (by exact, case-normalized query bytes,
// using a farm-hashed fast path ahead of an exact-bytes map to avoid
// retaining every raw string key) and resolves each distinct query via
// OffTargetsForQuery, emitting in first-seen order. Unmatched queries are
// reported to warn rather than aborting the run, mirroring the original
// CLI's best-effort per-row warning.
func OffTargetsForQueries(idx *kindex.Index, queries []string, minScore uint64, fasta *ioutil.RandomAccessFasta, emit func(OffTargetRow) error, warn func(query string)) error {
	seen := make(map[uint64][][]byte)

	for _, raw := range queries {
		normalized := upper([]byte(raw))
		h := farm.Hash64(normalized)
		bucket := seen[h]
		duplicate := false
		for _, b := range bucket {
			if bytes.Equal(b, normalized) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[h] = append(bucket, normalized)

		rows, ok, err := OffTargetsForQuery(idx, raw, minScore, fasta)
		if err != nil {
			return err
		}
		if !ok {
			if warn != nil {
				warn(raw)
			}
			continue
		}
		for _, row := range rows {
			if err := emit(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func revcomp(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		j := len(seq) - 1 - i
		out[j] = complement(b)
	}
	return out
}

func complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'T':
		return 'A'
	default:
		return 'N'
	}
}
