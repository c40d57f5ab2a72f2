// Package progress provides the injectable progress-reporting capability
// used by the indexing pipeline and the query pipelines. It is a thin
// collaborator (per spec.md §6 "Observability"): operations complete
// correctly with no observer at all.
//
// Grounded on the original Rust progress.rs, which wraps indicatif's
// ProgressBar behind a small default()/with_prefix() helper; here that
// becomes a one-method interface so callers can no-op it in tests, and a
// default stderr implementation modeled on the teacher's own "Mbp
// processed" status line in commands/index.rs, humanized with
// dustin/go-humanize the way the teacher's dependency set suggests.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Observer receives progress updates for a unit of work of known total
// size. Inc reports n additional units completed; Finish signals the work
// is done.
type Observer interface {
	Inc(n uint64)
	Finish()
}

// Noop is an Observer that does nothing; used by tests and by callers that
// don't want progress output.
type Noop struct{}

// Inc implements Observer.
func (Noop) Inc(uint64) {}

// Finish implements Observer.
func (Noop) Finish() {}

// textBar is the default Observer: a single line of status text, rewritten
// in place on an interactive stream, in the style of the original CLI's
// "Processed N Mbp in S seconds (R Mbp/s)" banner.
type textBar struct {
	w       io.Writer
	prefix  string
	total   uint64
	done    uint64
	started time.Time
	lastLen int
}

// NewTextBar returns a default Observer writing a single status line to w,
// prefixed with prefix, tracking progress toward total units of work.
func NewTextBar(w io.Writer, prefix string, total uint64) Observer {
	return &textBar{w: w, prefix: prefix, total: total, started: time.Now()}
}

// NewStderrBar is a convenience wrapper around NewTextBar targeting stderr.
func NewStderrBar(prefix string, total uint64) Observer {
	return NewTextBar(os.Stderr, prefix, total)
}

func (b *textBar) Inc(n uint64) {
	b.done += n
	elapsed := time.Since(b.started)
	rate := float64(b.done) / elapsed.Seconds()

	line := fmt.Sprintf("\r%sprocessed %s / %s (%s/s)",
		b.prefix,
		humanize.Comma(int64(b.done)),
		humanize.Comma(int64(b.total)),
		humanize.Comma(int64(rate)))

	pad := b.lastLen - len(line)
	if pad > 0 {
		line += fmt.Sprintf("%*s", pad, "")
	}
	b.lastLen = len(line)
	fmt.Fprint(b.w, line)
}

func (b *textBar) Finish() {
	fmt.Fprintln(b.w)
}
