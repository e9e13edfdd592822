// internal/bbh/hits.go
package bbh

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// TopHits reads a reduced tabular search result (query and subject in the
// first two columns, separated by ';' or whitespace) and keeps only the first
// subject seen for each query, which is its best hit.
func TopHits(r io.Reader) (map[string]string, error) {
	best := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.FieldsFunc(line, func(r rune) bool { return r == ';' || r == ' ' || r == '\t' })
		if len(f) < 2 {
			return nil, fmt.Errorf("hit table line %d: want query and subject, got %q", ln, line)
		}
		if _, seen := best[f[0]]; !seen {
			best[f[0]] = f[1]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return best, nil
}

// Mutual keeps the pairs whose members are each other's top hit. Pairs are
// (accession in A, accession in B) sorted by the A side.
func Mutual(ab, ba map[string]string) [][2]string {
	var out [][2]string
	for q, s := range ab {
		if ba[s] == q {
			out = append(out, [2]string{q, s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
