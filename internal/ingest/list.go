// internal/ingest/list.go
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source is one organism's FASTA file.
type Source struct {
	Name string
	Path string
}

// LoadOrganismList reads an organism list. Each line is either a bare name,
// whose sequences are expected in "<name>.fa" next to the list, or
// "name<TAB>path". Relative paths resolve against the list's directory.
func LoadOrganismList(path string) ([]Source, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	dir := filepath.Dir(path)
	var out []Source
	seen := make(map[string]int)
	sc := bufio.NewScanner(fh)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		src := Source{Name: line, Path: line + ".fa"}
		if name, p, ok := strings.Cut(line, "\t"); ok {
			src = Source{Name: strings.TrimSpace(name), Path: strings.TrimSpace(p)}
		}
		if src.Name == "" || src.Path == "" {
			return nil, fmt.Errorf("%s:%d: malformed entry %q", path, ln, line)
		}
		if first, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("%s:%d: organism %q already listed on line %d", path, ln, src.Name, first)
		}
		seen[src.Name] = ln
		if !filepath.IsAbs(src.Path) {
			src.Path = filepath.Join(dir, src.Path)
		}
		out = append(out, src)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseSource parses a "name=path" command-line spec.
func ParseSource(spec string) (Source, error) {
	name, path, ok := strings.Cut(spec, "=")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return Source{}, fmt.Errorf("organism %q: want name=path", spec)
	}
	return Source{Name: name, Path: path}, nil
}
