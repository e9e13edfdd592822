// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedRecord marks a record without a usable accession or sequence.
// Such records are reported through the warn callback and skipped.
var ErrMalformedRecord = errors.New("malformed sequence record")

// Record is one FASTA entry. ID is the first whitespace token of the header.
type Record struct {
	ID     string
	Header string
	Seq    []byte
}

// Scan reads FASTA records from r in order and calls emit for each usable
// record. Malformed records are passed to warn (when non-nil) and skipped.
// A non-nil error from emit stops the scan and is returned.
func Scan(r io.Reader, emit func(Record) error, warn func(error)) error {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		header  string
		hdrLine int
		inRec   bool
		orphan  bool
		seq     = make([]byte, 0, 4096)
		ln      int
	)
	skip := func(format string, a ...any) {
		if warn != nil {
			warn(fmt.Errorf("%w: "+format, append([]any{ErrMalformedRecord}, a...)...))
		}
	}
	flush := func() error {
		if !inRec {
			return nil
		}
		id := firstField(header)
		switch {
		case id == "":
			skip("line %d: empty header", hdrLine)
			return nil
		case len(seq) == 0:
			skip("line %d: record %q has no sequence", hdrLine, id)
			return nil
		}
		return emit(Record{ID: id, Header: header, Seq: bytes.Clone(seq)})
	}

	for sc.Scan() {
		ln++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			header = string(bytes.TrimSpace(line[1:]))
			hdrLine = ln
			inRec = true
			seq = seq[:0]
			continue
		}
		if !inRec {
			if !orphan {
				skip("line %d: sequence data before first header", ln)
				orphan = true
			}
			continue
		}
		seq = append(seq, bytes.ToUpper(line)...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	return flush()
}

// ScanFile is Scan over a path ("-" for stdin, gzip detected automatically).
func ScanFile(path string, emit func(Record) error, warn func(error)) error {
	rc, err := openReader(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := Scan(rc, emit, warn); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func firstField(s string) string {
	f := bytes.Fields([]byte(s))
	if len(f) == 0 {
		return ""
	}
	return string(f[0])
}
