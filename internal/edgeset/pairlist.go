// internal/edgeset/pairlist.go
package edgeset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cogs/internal/model"
)

// WritePairList writes one "a;b" line per edge in sorted order. This is the
// interchange form used for checkpoints and --dump-edges.
func WritePairList(w io.Writer, s *Set) error {
	bw := bufio.NewWriter(w)
	for _, p := range s.Pairs() {
		if _, err := fmt.Fprintf(bw, "%d;%d\n", p.A, p.B); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPairList parses a pair list. Fields may be separated by ';', tabs or
// spaces; blank lines and '#' comments are ignored.
func ReadPairList(r io.Reader) (*Set, error) {
	s := New()
	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.FieldsFunc(line, func(r rune) bool { return r == ';' || r == ' ' || r == '\t' })
		if len(f) != 2 {
			return nil, fmt.Errorf("pair list line %d: want 2 fields, got %d", ln, len(f))
		}
		a, err := strconv.ParseInt(f[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pair list line %d: %w", ln, err)
		}
		b, err := strconv.ParseInt(f[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pair list line %d: %w", ln, err)
		}
		if a == b {
			return nil, fmt.Errorf("pair list line %d: self edge %d", ln, a)
		}
		s.Add(model.ProteinID(a), model.ProteinID(b))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
