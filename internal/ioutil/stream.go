// Package ioutil collects the thin, out-of-scope I/O collaborators named by
// the system's external interfaces: gzip-transparent file streams, TSV table
// rows, BED region records, and a random-access FASTA reader for the
// offtargets sequence fetch. None of these carry core scoring logic.
//
// Grounded on the teacher's unikmer/cmd/util-io.go gzip-aware stream helpers.
package ioutil

import (
	"bufio"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"

	"github.com/laeblab/crispy/internal/crispyerr"
)

// IsStdin reports whether file names the conventional stdin placeholder.
func IsStdin(file string) bool { return file == "-" || file == "" }

// IsStdout reports whether file names the conventional stdout placeholder.
func IsStdout(file string) bool { return file == "-" || file == "" }

// InStream opens file for reading, transparently decompressing it if it
// begins with a gzip magic header. Returns the buffered reader and a closer
// for the underlying file (a no-op closer for stdin) so the caller can
// manage lifetime.
func InStream(file string) (*bufio.Reader, io.Closer, error) {
	var r io.Reader
	var closer io.Closer
	if IsStdin(file) {
		r = os.Stdin
		closer = io.NopCloser(nil)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, nil, crispyerr.WrapKind(crispyerr.InputNotFound, err, "failed to open "+file)
		}
		r = f
		closer = f
	}

	br := bufio.NewReaderSize(r, os.Getpagesize())
	gzipped, err := isGzip(br)
	if err != nil {
		return br, closer, nil
	}
	if gzipped {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, closer, crispyerr.WrapKind(crispyerr.FormatInvalid, err, "failed to open gzip stream in "+file)
		}
		return bufio.NewReaderSize(gr, os.Getpagesize()), closer, nil
	}
	return br, closer, nil
}

// OutStream opens file for writing, optionally wrapping it with a gzip
// writer at the given compression level. Returns a buffered writer; callers
// must Flush it and Close the returned io.Closer (which in turn closes any
// gzip writer and the underlying file).
func OutStream(file string, gzipped bool, level int) (*bufio.Writer, io.Closer, error) {
	var w io.Writer
	var f *os.File
	if IsStdout(file) {
		f = os.Stdout
	} else {
		var err error
		f, err = os.Create(file)
		if err != nil {
			return nil, nil, crispyerr.WrapKind(crispyerr.IoFailure, err, "failed to create "+file)
		}
	}
	w = f

	if gzipped {
		gw, err := gzip.NewWriterLevel(f, level)
		if err != nil {
			return nil, f, crispyerr.WrapKind(crispyerr.IoFailure, err, "failed to open gzip writer for "+file)
		}
		return bufio.NewWriterSize(gw, os.Getpagesize()), multiCloser{gw, f}, nil
	}
	return bufio.NewWriterSize(w, os.Getpagesize()), f, nil
}

type multiCloser struct {
	inner io.Closer
	outer io.Closer
}

func (m multiCloser) Close() error {
	if err := m.inner.Close(); err != nil {
		return err
	}
	return m.outer.Close()
}

func isGzip(b *bufio.Reader) (bool, error) {
	magic := []byte{0x1f, 0x8b}
	peeked, err := b.Peek(len(magic))
	if err != nil {
		return false, err
	}
	return peeked[0] == magic[0] && peeked[1] == magic[1], nil
}
